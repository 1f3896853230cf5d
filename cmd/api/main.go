package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"profitpath-api/internal/handler"
	"profitpath-api/internal/middleware"
	"profitpath-api/internal/model"
	"profitpath-api/internal/repository"
	"profitpath-api/internal/service"
	"profitpath-api/internal/ws"
	"profitpath-api/pkg/config"
	"profitpath-api/pkg/database"
	"profitpath-api/pkg/jwt"
	"profitpath-api/pkg/logger"
	"profitpath-api/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	// Quantities and values go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// 2. Setup Database
	db, err := database.Connect(cfg.DSN(), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := db.AutoMigrate(
		&model.Privilege{}, &model.Role{}, &model.User{},
		&model.Product{}, &model.StockTransaction{}, &model.StockOpening{},
	); err != nil {
		log.WithError(err).Fatal("auto migrate failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	stockRepo := repository.NewStockRepo(db)
	dashRepo := repository.NewDashboardRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New("profitpath")

	stockService := service.NewStockService(stockRepo, service.StockConfig{
		FinancialYearStart: cfg.FinancialYearStart,
		AllowNegativeStock: cfg.AllowNegativeStock,
	}, m, hub, log)
	productService := service.NewProductService(productRepo, stockService, hub, log)
	dashService := service.NewDashboardService(dashRepo, cfg.LowStockThreshold)
	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	seed(ctx, log, privilegeRepo, roleRepo, userService, cfg)

	stockHandler := handler.NewStockHandler(stockService, log)
	productHandler := handler.NewProductHandler(productService, log)
	dashHandler := handler.NewDashboardHandler(dashService, log)
	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(userService, log)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo, log)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "ProfitPath Stock Ledger",
	})
	app.Use(fiberlogger.New(fiberlogger.Config{Output: log.Writer()}))
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	registerRoutes(app.Group("/api"), routes{
		auth:        authHandler,
		stock:       stockHandler,
		product:     productHandler,
		dashboard:   dashHandler,
		user:        userHandler,
		role:        roleHandler,
		requireAuth: middleware.RequireAuth(tokens, userRepo),
	})

	app.Use("/ws", ws.Upgrade)
	app.Get("/ws", hub.Handler())

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	closeDB(db, log)
	log.Info("Server exited")
}

// seed creates default privileges, roles and the master admin if they don't exist.
func seed(ctx context.Context, log logrus.FieldLogger, privileges repository.PrivilegeRepository, roles repository.RoleRepository, users service.UserService, cfg *config.Config) {
	if err := privileges.SeedDefaults(ctx); err != nil {
		logger.LogError(log, "main", "seed", "seed privileges", nil, err)
	}
	if err := roles.SeedDefaults(ctx); err != nil {
		logger.LogError(log, "main", "seed", "seed roles", nil, err)
	}

	created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.LogError(log, "main", "seed", "create admin user", cfg.AdminEmail, err)
		return
	}
	if created {
		log.WithField("email", cfg.AdminEmail).Info("master admin created")
	}
}

func closeDB(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close database")
	}
}
