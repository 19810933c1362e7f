package main

import (
	"context"
	"fmt"
	"strings"

	"daily-meals/internal/logger"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

type catalogIDs struct {
	database   sdk.DatabaseID
	reports    sdk.TableID
	identities sdk.TableID
}

var catalogTables = []struct {
	name    string
	columns []sdk.Column
}{
	{"users", []sdk.Column{
		{Name: "id", Type: "INT", IsPk: true, Comment: "primary key"},
		{Name: "email", Type: "VARCHAR(191)", Comment: "login email of the center"},
		{Name: "center", Type: "VARCHAR(100)", Comment: "center name"},
		{Name: "area", Type: "VARCHAR(100)", Comment: "area grouping centers"},
	}},
	{"reports", []sdk.Column{
		{Name: "id", Type: "INT", IsPk: true, Comment: "primary key"},
		{Name: "email", Type: "VARCHAR(191)", Comment: "submitter, users.email"},
		{Name: "area", Type: "VARCHAR(100)", Comment: "area of the center"},
		{Name: "center", Type: "VARCHAR(100)", Comment: "center name"},
		{Name: "report_date", Type: "DATE", Comment: "day the counts belong to"},
		{Name: "breakfast", Type: "INT", Comment: "breakfasts served"},
		{Name: "lunch", Type: "INT", Comment: "lunches served"},
		{Name: "dinner", Type: "INT", Comment: "dinners served"},
		{Name: "total", Type: "INT", Comment: "breakfast + lunch + dinner"},
		{Name: "updated_at", Type: "DATETIME", Comment: "last modification"},
	}},
}

func initCatalog(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (catalogIDs, error) {
	var ids catalogIDs
	dbResp, err := client.CreateDatabase(ctx, &sdk.DatabaseCreateRequest{
		CatalogID:    catalogID,
		DatabaseName: dbName,
		Comment:      "daily meal counts per center",
	})
	if err != nil {
		if !isDuplicate(err) {
			return ids, fmt.Errorf("create database: %w", err)
		}
		logger.Info("catalog: database already exists, discovering ID", "name", dbName)
		if ids.database, err = discoverDatabaseID(ctx, client, catalogID, dbName); err != nil {
			return ids, err
		}
	} else {
		ids.database = dbResp.DatabaseID
		logger.Info("catalog: database created", "id", ids.database)
	}

	for _, t := range catalogTables {
		resp, err := client.CreateTable(ctx, &sdk.TableCreateRequest{
			DatabaseID: ids.database,
			Name:       t.name,
			Columns:    t.columns,
			Comment:    t.name,
		})
		if err != nil {
			if isDuplicate(err) {
				logger.Info("catalog: table already exists, skipping", "name", t.name)
				continue
			}
			return ids, fmt.Errorf("create table %s: %w", t.name, err)
		}
		logger.Info("catalog: table created", "name", t.name, "id", resp.TableID)
		switch t.name {
		case "users":
			ids.identities = resp.TableID
		case "reports":
			ids.reports = resp.TableID
		}
	}
	return ids, nil
}

func discoverDatabaseID(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, error) {
	resp, err := client.ListDatabases(ctx, &sdk.DatabaseListRequest{CatalogID: catalogID})
	if err != nil {
		return 0, fmt.Errorf("list databases: %w", err)
	}
	for _, db := range resp.List {
		if db.DatabaseName == dbName {
			logger.Info("catalog: database discovered", "id", db.DatabaseID)
			return db.DatabaseID, nil
		}
	}
	return 0, fmt.Errorf("database %s not found in catalog %d", dbName, catalogID)
}

func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "already exist") || strings.Contains(s, "conflict")
}
