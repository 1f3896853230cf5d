package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"
	"profitpath-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	repository.UserRepository
	user *model.User
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, repository.ErrNotFound
	}
	return s.user, nil
}

func newAuthApp(tokens *jwt.Manager, repo *stubUserRepo) *fiber.App {
	app := fiber.New()
	protected := app.Group("", RequireAuth(tokens, repo))
	protected.Get("/summary", RequirePrivilege(model.PrivStockView), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_name").(string))
	})
	protected.Post("/close", RequirePrivilege(model.PrivStockCloseYear), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	protected.Post("/adjust", RequireAnyPrivilege(model.PrivStockAdjust, model.PrivStockRecord), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour)
	user := &model.User{
		Email:        "store@example.com",
		FullName:     "Ravi",
		IsActive:     true,
		TokenVersion: "v2",
		Privileges:   []model.Privilege{{Code: model.PrivStockView}, {Code: model.PrivStockRecord}},
	}
	user.ID = uuid.New()
	repo := &stubUserRepo{user: user}
	app := newAuthApp(tokens, repo)

	current, err := tokens.GenerateToken(user.ID, user.Email, user.FullName, model.RoleStorekeeper, nil, "v2")
	require.NoError(t, err)
	stale, err := tokens.GenerateToken(user.ID, user.Email, user.FullName, model.RoleStorekeeper, nil, "v1")
	require.NoError(t, err)
	stranger, err := tokens.GenerateToken(uuid.New(), "x@example.com", "X", model.RoleAdmin, nil, "v2")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"missing header", http.MethodGet, "/summary", "", fiber.StatusUnauthorized},
		{"wrong scheme", http.MethodGet, "/summary", "Basic " + current, fiber.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/summary", "Bearer nope", fiber.StatusUnauthorized},
		{"replaced session", http.MethodGet, "/summary", "Bearer " + stale, fiber.StatusUnauthorized},
		{"unknown user", http.MethodGet, "/summary", "Bearer " + stranger, fiber.StatusUnauthorized},
		{"granted", http.MethodGet, "/summary", "Bearer " + current, fiber.StatusOK},
		{"lowercase scheme", http.MethodGet, "/summary", "bearer " + current, fiber.StatusOK},
		{"missing privilege", http.MethodPost, "/close", "Bearer " + current, fiber.StatusForbidden},
		{"any privilege", http.MethodPost, "/adjust", "Bearer " + current, fiber.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, call(t, app, tt.method, tt.path, tt.auth))
		})
	}

	t.Run("inactive user", func(t *testing.T) {
		user.IsActive = false
		defer func() { user.IsActive = true }()
		assert.Equal(t, fiber.StatusUnauthorized, call(t, app, http.MethodGet, "/summary", "Bearer "+current))
	})
}
