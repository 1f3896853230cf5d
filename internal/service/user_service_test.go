package service

import (
	"context"
	"testing"

	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoleRepo struct {
	roles []model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	var all []model.Privilege
	for i, p := range model.DefaultPrivileges {
		p.ID = uint(i + 1)
		all = append(all, p)
	}
	r := &fakeRoleRepo{}
	for i, role := range model.DefaultRoles {
		role.ID = uint(i + 1)
		role.Privileges = model.PrivilegesFor(role.Code, all)
		r.roles = append(r.roles, role)
	}
	return r
}

func (f *fakeRoleRepo) FindAll(ctx context.Context) ([]model.Role, error) { return f.roles, nil }

func (f *fakeRoleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	for _, r := range f.roles {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	for _, r := range f.roles {
		if r.Code == code {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) SeedDefaults(ctx context.Context) error { return nil }

type fakePrivilegeRepo struct{}

func (fakePrivilegeRepo) FindByCodes(ctx context.Context, codes []string) ([]model.Privilege, error) {
	var out []model.Privilege
	for _, p := range model.DefaultPrivileges {
		for _, c := range codes {
			if p.Code == c {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (fakePrivilegeRepo) FindAll(ctx context.Context) ([]model.Privilege, error) {
	return model.DefaultPrivileges, nil
}

func (fakePrivilegeRepo) SeedDefaults(ctx context.Context) error { return nil }

func newUserFixture() (*fakeUserRepo, *fakeRoleRepo, UserService) {
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	return users, roles, NewUserService(users, fakePrivilegeRepo{}, roles)
}

func roleID(t *testing.T, roles *fakeRoleRepo, code string) uint {
	t.Helper()
	r, err := roles.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return r.ID
}

func TestUserService_CreateUser(t *testing.T) {
	users, roles, svc := newUserFixture()
	ctx := context.Background()

	req := &CreateUserRequest{
		Email:    "keeper@example.com",
		Password: "secret1",
		FullName: "Store Keeper",
		RoleID:   roleID(t, roles, model.RoleStorekeeper),
	}
	user, err := svc.CreateUser(ctx, req, "creator")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.True(t, user.HasPrivilege(model.PrivStockRecord))
	assert.False(t, user.HasPrivilege(model.PrivStockCloseYear))
	assert.Equal(t, "creator", users.users[user.ID].CreatedBy)

	_, err = svc.CreateUser(ctx, req, "creator")
	assert.ErrorIs(t, err, ErrEmailExists)

	bad := *req
	bad.Email = "other@example.com"
	bad.RoleID = 99
	_, err = svc.CreateUser(ctx, &bad, "creator")
	assert.ErrorIs(t, err, ErrRoleNotFound)

	bad.Password = "123"
	_, err = svc.CreateUser(ctx, &bad, "creator")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUserService_RoleChangeResetsPrivileges(t *testing.T) {
	_, roles, svc := newUserFixture()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &CreateUserRequest{
		Email:    "keeper@example.com",
		Password: "secret1",
		FullName: "Store Keeper",
		RoleID:   roleID(t, roles, model.RoleStorekeeper),
	}, "creator")
	require.NoError(t, err)

	user, err = svc.UpdateUserPrivileges(ctx, user.ID, []string{model.PrivStockView}, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrivStockView}, user.GetPrivilegeCodes())

	_, err = svc.UpdateUserPrivileges(ctx, user.ID, []string{"stock:teleport"}, "admin")
	assert.ErrorIs(t, err, ErrValidation)

	user, err = svc.UpdateUser(ctx, user.ID, &UpdateUserRequest{
		Email:    "keeper@example.com",
		FullName: "Store Keeper",
		RoleID:   roleID(t, roles, model.RoleAdmin),
	}, "admin")
	require.NoError(t, err)
	assert.True(t, user.HasPrivilege(model.PrivStockRecompute))
}

func TestUserService_ResetPasswordAndEnsureAdmin(t *testing.T) {
	users, _, svc := newUserFixture()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.HasPrivilege(model.PrivStockCloseYear))
	before := admin.TokenVersion

	require.NoError(t, svc.ResetPassword(ctx, "admin@example.com", "n3w-pass"))
	admin, err = users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, admin.CheckPassword("n3w-pass"))
	assert.NotEqual(t, before, admin.TokenVersion)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "admin@example.com", "abc"), ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "nobody@example.com", "n3w-pass"), ErrUserNotFound)
}
