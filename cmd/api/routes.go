package main

import (
	"profitpath-api/internal/handler"
	"profitpath-api/internal/middleware"
	"profitpath-api/internal/model"

	"github.com/gofiber/fiber/v2"
)

type routes struct {
	auth      *handler.AuthHandler
	stock     *handler.StockHandler
	product   *handler.ProductHandler
	dashboard *handler.DashboardHandler
	user      *handler.UserHandler
	role      *handler.RoleHandler

	requireAuth fiber.Handler
}

func registerRoutes(api fiber.Router, r routes) {
	priv := middleware.RequirePrivilege

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", r.auth.Login)
	auth.Post("/validate-token", r.auth.ValidateToken)
	auth.Post("/change-password", r.requireAuth, r.auth.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", r.requireAuth)

	stock := protected.Group("/stock")
	stock.Get("/summary", priv(model.PrivStockView), r.stock.GetSummary)
	stock.Get("/movement-history", priv(model.PrivStockView), r.stock.GetMovementHistory)
	stock.Get("/movement-history/export", priv(model.PrivStockView), r.stock.ExportMovementHistory)
	stock.Get("/transactions", priv(model.PrivStockView), r.stock.GetTransactions)
	stock.Get("/transactions/:id", priv(model.PrivStockView), r.stock.GetTransaction)
	stock.Post("/transactions", priv(model.PrivStockRecord), r.stock.CreateTransaction)
	stock.Post("/adjust", priv(model.PrivStockAdjust), r.stock.Adjust)
	stock.Put("/opening", priv(model.PrivStockOpening), r.stock.SetOpening)
	stock.Post("/recompute", priv(model.PrivStockRecompute), r.stock.Recompute)
	stock.Post("/financial-years/:fy/close", priv(model.PrivStockCloseYear), r.stock.CloseFinancialYear)

	protected.Get("/products", priv(model.PrivProductView), r.product.GetProducts)
	protected.Get("/products/:id", priv(model.PrivProductView), r.product.GetProduct)
	protected.Post("/products", priv(model.PrivProductCreate), r.product.CreateProduct)
	protected.Put("/products/:id", priv(model.PrivProductUpdate), r.product.UpdateProduct)

	protected.Get("/dashboard/stats", priv(model.PrivDashboardView), r.dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", priv(model.PrivDashboardView), r.dashboard.GetStockMovement)

	protected.Get("/users", priv(model.PrivUserView), r.user.GetUsers)
	protected.Get("/users/:id", priv(model.PrivUserView), r.user.GetUser)
	protected.Post("/users", priv(model.PrivUserCreate), r.user.CreateUser)
	protected.Put("/users/:id", priv(model.PrivUserUpdate), r.user.UpdateUser)
	protected.Delete("/users/:id", priv(model.PrivUserDelete), r.user.DeleteUser)
	protected.Put("/users/:id/privileges", priv(model.PrivUserUpdatePrivilege), r.user.UpdateUserPrivileges)

	protected.Get("/roles", r.role.GetRoles)
	protected.Get("/privileges", r.role.GetPrivileges)
}
