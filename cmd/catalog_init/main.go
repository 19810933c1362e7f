package main

import (
	"context"
	"flag"
	"log"

	"daily-meals/internal/config"
	"daily-meals/internal/logger"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	withKnowledge := flag.Bool("knowledge", true, "also load NL2SQL knowledge")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	client, err := cfg.NewRawClient()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	catalogID := sdk.CatalogID(cfg.MOI.CatalogID)
	if catalogID == 0 {
		catalogID = 1
	}

	// Step 1: catalog database + tables
	ids, err := initCatalog(ctx, client, catalogID, cfg.Database.Name)
	if err != nil {
		log.Fatal("catalog init failed:", err)
	}
	logger.Info("catalog ids, copy into moi config", "database_id", ids.database,
		"reports_table_id", ids.reports, "identities_table_id", ids.identities)

	// Step 2: push the directory
	if ids.identities != 0 || cfg.MOI.IdentitiesTableID != 0 {
		moi := cfg.MOI
		moi.DatabaseID = int64(ids.database)
		if ids.identities != 0 {
			moi.IdentitiesTableID = int64(ids.identities)
		}
		db, err := cfg.OpenGormDB()
		if err != nil {
			log.Fatal("db connect failed:", err)
		}
		if err := db.AutoMigrate(model.All()...); err != nil {
			log.Fatal("migrate failed:", err)
		}
		dir := service.NewDirectoryService(db, cfg.Directory)
		if err := dir.Seed(ctx, cfg.Directory); err != nil {
			log.Fatal("seed failed:", err)
		}
		idents, err := dir.All(ctx)
		if err != nil {
			log.Fatal("list identities failed:", err)
		}
		service.NewCatalogSync(client, moi).SyncDirectory(ctx, idents)
	}

	// Step 3: NL2SQL knowledge
	if *withKnowledge {
		if err := initKnowledge(ctx, client); err != nil {
			log.Fatal("knowledge init failed:", err)
		}
	}

	logger.Info("=== all done ===")
}
