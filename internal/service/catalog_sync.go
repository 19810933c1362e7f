package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"daily-meals/internal/config"
	"daily-meals/internal/model"

	sdk "github.com/matrixorigin/moi-go-sdk"
)

// CatalogSync mirrors reports and the directory into MatrixOne catalog
// tables. It is best-effort: failures are logged and never reach callers.
type CatalogSync struct {
	raw        *sdk.RawClient
	sdk        *sdk.SDKClient
	databaseID sdk.DatabaseID
	reportsID  sdk.TableID
	identsID   sdk.TableID
}

func NewCatalogSync(raw *sdk.RawClient, cfg config.MOIConfig) *CatalogSync {
	return &CatalogSync{
		raw:        raw,
		sdk:        sdk.NewSDKClient(raw),
		databaseID: sdk.DatabaseID(cfg.DatabaseID),
		reportsID:  sdk.TableID(cfg.ReportsTableID),
		identsID:   sdk.TableID(cfg.IdentitiesTableID),
	}
}

// Ready is false for a nil receiver or when no target tables are configured.
func (s *CatalogSync) Ready() bool {
	return s != nil && s.databaseID != 0 && (s.reportsID != 0 || s.identsID != 0)
}

var reportColumns = []string{
	"id", "email", "area", "center", "report_date",
	"breakfast", "lunch", "dinner", "total", "updated_at",
}

func (s *CatalogSync) SyncReport(ctx context.Context, r *model.Report) {
	if !s.Ready() || s.reportsID == 0 {
		return
	}
	data, err := csvRows([][]string{{
		strconv.Itoa(r.ID), r.Email, r.Area, r.Center, r.ReportDate,
		strconv.Itoa(r.Breakfast), strconv.Itoa(r.Lunch), strconv.Itoa(r.Dinner), strconv.Itoa(r.Total),
		modified(r),
	}})
	if err != nil {
		slog.Warn("catalog sync: encode report", "id", r.ID, "err", err)
		return
	}
	s.importCSV(ctx, s.reportsID, data, fmt.Sprintf("report_%d.csv", r.ID), mapping(reportColumns))
}

var identityColumns = []string{"id", "email", "center", "area"}

func (s *CatalogSync) SyncDirectory(ctx context.Context, idents []model.Identity) {
	if !s.Ready() || s.identsID == 0 || len(idents) == 0 {
		return
	}
	lines := make([][]string, 0, len(idents))
	for _, id := range idents {
		lines = append(lines, []string{strconv.Itoa(id.ID), id.Email, id.Center, id.Area})
	}
	data, err := csvRows(lines)
	if err != nil {
		slog.Warn("catalog sync: encode directory", "err", err)
		return
	}
	s.importCSV(ctx, s.identsID, data, "users.csv", mapping(identityColumns))
}

func mapping(cols []string) []sdk.FileAndTableColumnMapping {
	out := make([]sdk.FileAndTableColumnMapping, len(cols))
	for i, c := range cols {
		out[i] = sdk.FileAndTableColumnMapping{TableColumn: c, Column: c, ColNumInFile: int32(i + 1)}
	}
	return out
}

func csvRows(lines [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(lines); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *CatalogSync) importCSV(ctx context.Context, tableID sdk.TableID, data []byte, fileName string, cols []sdk.FileAndTableColumnMapping) {
	resp, err := s.raw.UploadLocalFile(ctx, bytes.NewReader(data), fileName, []sdk.FileMeta{{Filename: fileName, Path: "/"}})
	if err != nil {
		slog.Warn("catalog sync: upload failed", "table", tableID, "err", err)
		return
	}
	if len(resp.ConnFileIds) == 0 {
		slog.Warn("catalog sync: no conn_file_ids", "table", tableID)
		return
	}

	_, err = s.sdk.ImportLocalFileToTable(ctx, &sdk.TableConfig{
		ConnFileIDs:      resp.ConnFileIds,
		NewTable:         false,
		DatabaseID:       s.databaseID,
		TableID:          tableID,
		IsColumnName:     false,
		RowStart:         1,
		Conflict:         1,
		ExistedTable:     cols,
		ExistedTableOpts: sdk.ExistedTableOptions{Method: sdk.ExistedTableOptionAppend},
	})
	if err != nil {
		slog.Warn("catalog sync: import failed", "table", tableID, "file", fileName, "err", err)
		return
	}
	slog.Info("catalog sync: ok", "table", tableID, "file", fileName)
}
