package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"daily-meals/internal/model"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const utf8BOM = "\xEF\xBB\xBF"

var ExportHeader = []string{
	"id", "usuario_carga", "area", "centro", "fecha",
	"nro_desayuno", "nro_almuerzo", "nro_cena", "total", "modificado",
}

type ExportFilter struct {
	Area   string `form:"area"`
	Center string `form:"center"`
	From   string `form:"from"`
	To     string `form:"to"`
	Format string `form:"format"` // csv (default) or xlsx
}

// Normalize trims every field so validation and the query see the same
// values.
func (f ExportFilter) Normalize() ExportFilter {
	return ExportFilter{
		Area:   strings.TrimSpace(f.Area),
		Center: strings.TrimSpace(f.Center),
		From:   strings.TrimSpace(f.From),
		To:     strings.TrimSpace(f.To),
		Format: strings.ToLower(strings.TrimSpace(f.Format)),
	}
}

func (f ExportFilter) validate() error {
	for _, d := range []string{f.From, f.To} {
		if d != "" && !validDate(d) {
			return validationError("date range must be YYYY-MM-DD")
		}
	}
	switch f.Format {
	case "", "csv", "xlsx":
		return nil
	}
	return validationError("format must be csv or xlsx")
}

// FileName mirrors the range in the download name, with ini/fin for open ends.
func (f ExportFilter) FileName() string {
	from, to := f.From, f.To
	if from == "" {
		from = "ini"
	}
	if to == "" {
		to = "fin"
	}
	ext := "csv"
	if f.Format == "xlsx" {
		ext = "xlsx"
	}
	return fmt.Sprintf("dotacion_%s_%s.%s", from, to, ext)
}

type ExportService struct{ db *gorm.DB }

func NewExportService(db *gorm.DB) *ExportService { return &ExportService{db: db} }

// Rows selects every report matching f, newest date first then by center.
func (s *ExportService) Rows(ctx context.Context, f ExportFilter) ([]model.Report, error) {
	f = f.Normalize()
	if err := f.validate(); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&model.Report{})
	if f.Area != "" {
		q = q.Where("area = ?", f.Area)
	}
	if f.Center != "" {
		q = q.Where("center = ?", f.Center)
	}
	if f.From != "" {
		q = q.Where("report_date >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("report_date <= ?", f.To)
	}
	var rows []model.Report
	if err := q.Order("report_date DESC").Order("center").Order("id").Find(&rows).Error; err != nil {
		return nil, storeError("query export", err)
	}
	return rows, nil
}

// Write renders rows in the format named by f.
func (s *ExportService) Write(w io.Writer, f ExportFilter, rows []model.Report) error {
	if f.Normalize().Format == "xlsx" {
		return WriteXLSX(w, rows)
	}
	return WriteCSV(w, rows)
}

func record(r *model.Report) []string {
	return []string{
		strconv.Itoa(r.ID), r.Email, r.Area, r.Center, r.ReportDate,
		strconv.Itoa(r.Breakfast), strconv.Itoa(r.Lunch), strconv.Itoa(r.Dinner), strconv.Itoa(r.Total),
		modified(r),
	}
}

// modified renders updated_at in UTC so every store yields the same text.
func modified(r *model.Report) string {
	return r.UpdatedAt.UTC().Format(TimestampLayout)
}

// WriteCSV writes a BOM-prefixed, semicolon separated file that spreadsheet
// tools in es-CL locales split into columns.
func WriteCSV(w io.Writer, rows []model.Report) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(record(&rows[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const xlsxSheet = "dotacion"

func WriteXLSX(w io.Writer, rows []model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		line := []any{
			r.ID, r.Email, r.Area, r.Center, r.ReportDate,
			r.Breakfast, r.Lunch, r.Dinner, r.Total,
			modified(r),
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &line); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

// ContentType returns the MIME type for the export format.
func ContentType(format string) string {
	if strings.EqualFold(format, "xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}
