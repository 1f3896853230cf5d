package main

import (
	"os"

	"profitpath-api/internal/repository"
	"profitpath-api/internal/service"
	"profitpath-api/pkg/config"
	"profitpath-api/pkg/database"
	"profitpath-api/pkg/logger"
	"profitpath-api/pkg/metrics"

	"gorm.io/gorm"
)

type env struct {
	db    *gorm.DB
	stock service.StockService
	users service.UserService
}

// openEnv wires the services a command needs. Broadcasts are disabled since
// no websocket clients are attached.
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel, "text", os.Stderr)

	db, err := database.Connect(cfg.DSN(), log)
	if err != nil {
		return nil, err
	}

	stock := service.NewStockService(repository.NewStockRepo(db), service.StockConfig{
		FinancialYearStart: cfg.FinancialYearStart,
		AllowNegativeStock: cfg.AllowNegativeStock,
	}, metrics.New("ledgerctl"), nil, log)

	users := service.NewUserService(
		repository.NewUserRepo(db),
		repository.NewPrivilegeRepo(db),
		repository.NewRoleRepo(db),
	)

	return &env{db: db, stock: stock, users: users}, nil
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
