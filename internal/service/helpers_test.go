package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"daily-meals/internal/config"
	"daily-meals/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDirectory = config.DirectoryConfig{
	Centers: []config.CenterSeed{
		{Email: "angostura@multix", Center: "ANGOSTURA", Area: "AYSEN"},
		{Email: "cuchi@multix", Center: "CUCHI", Area: "AYSEN"},
		{Email: "norte@multix", Center: "NORTE", Area: "ARICA"},
		{Email: "areaysen@multix", Center: "AREA AYSEN", Area: "AYSEN"},
	},
	Admins:        []string{"boss@multix"},
	HiddenCenters: []string{"AREA AYSEN"},
}

// today is pinned for every calendar test: Friday 2024-05-10.
var today = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.Local)

func fixedClock() time.Time { return today }

type testEnv struct {
	db        *gorm.DB
	dir       *DirectoryService
	lock      *LockService
	reports   *ReportService
	dashboard *DashboardService
	export    *ExportService
}

// newTestDB opens a file-backed sqlite store; an in-memory one would give
// every pooled connection its own empty database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "meals.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	dir := NewDirectoryService(db, testDirectory)
	require.NoError(t, dir.Seed(context.Background(), testDirectory))

	lock := NewLockService(db)
	reports := NewReportService(db, lock, dir).WithClock(fixedClock)
	return &testEnv{
		db:        db,
		dir:       dir,
		lock:      lock,
		reports:   reports,
		dashboard: NewDashboardService(dir, reports, lock).WithClock(fixedClock),
		export:    NewExportService(db),
	}
}

func (e *testEnv) identity(t *testing.T, email string) *model.Identity {
	t.Helper()
	ident, err := e.dir.Lookup(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, ident, "identity %s not seeded", email)
	return ident
}

func (e *testEnv) submit(t *testing.T, email, date string, b, l, d string) *model.Report {
	t.Helper()
	r, err := e.reports.Submit(context.Background(), e.identity(t, email), model.SubmitRequest{
		Date: date, Breakfast: model.RawCount(b), Lunch: model.RawCount(l), Dinner: model.RawCount(d),
	})
	require.NoError(t, err)
	return r
}

func (e *testEnv) countReports(t *testing.T, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Report{}).Where(where, args...).Count(&n).Error)
	return n
}
