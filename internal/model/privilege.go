package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "stock:adjust"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"
	PrivProductUpdate = "product:update"

	PrivStockView      = "stock:view"
	PrivStockRecord    = "stock:record"
	PrivStockAdjust    = "stock:adjust"
	PrivStockOpening   = "stock:opening"
	PrivStockRecompute = "stock:recompute"
	PrivStockCloseYear = "stock:close_year"

	PrivDashboardView = "dashboard:view"
)

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},

	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivProductUpdate, Name: "Update Product"},

	{Code: PrivStockView, Name: "View Stock Ledger"},
	{Code: PrivStockRecord, Name: "Record Purchase/Invoice Stock Movement"},
	{Code: PrivStockAdjust, Name: "Adjust Stock"},
	{Code: PrivStockOpening, Name: "Set Opening Stock"},
	{Code: PrivStockRecompute, Name: "Recompute Running Balances"},
	{Code: PrivStockCloseYear, Name: "Close Financial Year"},

	{Code: PrivDashboardView, Name: "View Dashboard"},
}

// IsMasterOnly reports whether code is reserved for the master admin role.
func IsMasterOnly(code string) bool {
	switch code {
	case PrivUserCreate, PrivUserUpdate, PrivUserDelete, PrivUserUpdatePrivilege, PrivStockCloseYear:
		return true
	}
	return false
}
