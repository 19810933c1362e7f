package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"daily-meals/internal/config"
	"daily-meals/internal/handler"
	applog "daily-meals/internal/logger"
	"daily-meals/internal/middleware"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	var configFile string
	root := &cobra.Command{
		Use:           "daily-meals",
		Short:         "Daily breakfast/lunch/dinner counts per center",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configFile)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file path (e.g. etc/config-dev.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configFile)
		},
	})
	root.AddCommand(exportCmd(&configFile))

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// openStore connects, migrates and seeds the directory.
func openStore(cfg *config.Config) (*gorm.DB, *service.DirectoryService, error) {
	db, err := cfg.OpenGormDB()
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	dir := service.NewDirectoryService(db, cfg.Directory)
	if err := dir.Seed(context.Background(), cfg.Directory); err != nil {
		return nil, nil, err
	}
	return db, dir, nil
}

func serve(configFile string) error {
	cfg := config.Load(configFile)
	out := applog.Init(cfg.Log)
	gin.DefaultWriter = out

	db, dir, err := openStore(cfg)
	if err != nil {
		return err
	}

	var catalog *service.CatalogSync
	if cfg.MOI.APIKey != "" {
		raw, err := cfg.NewRawClient()
		if err != nil {
			slog.Warn("sdk client init failed", "err", err)
		} else {
			catalog = service.NewCatalogSync(raw, cfg.MOI)
			slog.Info("catalog sync enabled", "ready", catalog.Ready())
		}
	}

	lock := service.NewLockService(db)
	reports := service.NewReportService(db, lock, dir)
	deps := handler.Deps{
		Auth:      service.NewAuthService(dir, cfg.IsAdmin),
		Directory: dir,
		Reports:   reports,
		Lock:      lock,
		Dashboard: service.NewDashboardService(dir, reports, lock),
		Export:    service.NewExportService(db),
		Catalog:   catalog,
		Tokens:    middleware.NewTokens(cfg.Server.Secret, time.Duration(cfg.Server.TokenDays)*24*time.Hour).WithAdminCheck(cfg.IsAdmin),
	}

	r := handler.NewRouter(deps)
	slog.Info("server starting", "addr", cfg.Addr(), "driver", cfg.Database.Driver)
	return r.Run(cfg.Addr())
}
