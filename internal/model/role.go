package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // MASTER_ADMIN, ADMIN, STOREKEEPER
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleStorekeeper = "STOREKEEPER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Master Administrator",
		Description: "Full system access with all privileges",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Books and stock access without user management or year closing",
	},
	{
		Code:        RoleStorekeeper,
		Name:        "Storekeeper",
		Description: "Views stock and records receipts, shipments and adjustments",
	},
}

// PrivilegesFor picks the default privileges a role receives on first seed.
func PrivilegesFor(roleCode string, all []Privilege) []Privilege {
	var out []Privilege
	for _, p := range all {
		switch roleCode {
		case RoleMasterAdmin:
			out = append(out, p)
		case RoleAdmin:
			if !IsMasterOnly(p.Code) {
				out = append(out, p)
			}
		case RoleStorekeeper:
			switch p.Code {
			case PrivProductView, PrivStockView, PrivStockRecord, PrivStockAdjust, PrivDashboardView:
				out = append(out, p)
			}
		}
	}
	return out
}
