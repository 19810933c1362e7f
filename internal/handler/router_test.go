package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daily-meals/internal/config"
	"daily-meals/internal/middleware"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var directory = config.DirectoryConfig{
	Centers: []config.CenterSeed{
		{Email: "cuchi@multix", Center: "CUCHI", Area: "AYSEN"},
		{Email: "norte@multix", Center: "NORTE", Area: "ARICA"},
	},
	Admins: []string{"boss@multix"},
}

type server struct {
	t      *testing.T
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "meals.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Default()
	cfg.Directory = directory
	dir := service.NewDirectoryService(db, cfg.Directory)
	require.NoError(t, dir.Seed(context.Background(), cfg.Directory))

	lock := service.NewLockService(db)
	reports := service.NewReportService(db, lock, dir)
	r := NewRouter(Deps{
		Auth:      service.NewAuthService(dir, cfg.IsAdmin),
		Directory: dir,
		Reports:   reports,
		Lock:      lock,
		Dashboard: service.NewDashboardService(dir, reports, lock),
		Export:    service.NewExportService(db),
		Tokens:    middleware.NewTokens("test-secret", 7*24*time.Hour).WithAdminCheck(cfg.IsAdmin),
	})
	return &server{t: t, router: r}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) login(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/login", "", gin.H{"email": email})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp model.LoginResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestLogin(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/login", "", gin.H{"email": " Cuchi@Multix "})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.LoginResponse](t, w)
	assert.Equal(t, model.User{Email: "cuchi@multix", Center: "CUCHI", Area: "AYSEN"}, resp.User)

	w = s.do(http.MethodPost, "/api/login", "", gin.H{"email": "boss@multix"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.LoginResponse](t, w).User.Admin)

	w = s.do(http.MethodPost, "/api/login", "", gin.H{"email": "intruder@multix"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/login", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMe(t *testing.T) {
	s := newServer(t)
	token := s.login("norte@multix")

	w := s.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "NORTE", decode[model.User](t, w).Center)

	w = s.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitFlow(t *testing.T) {
	s := newServer(t)
	token := s.login("cuchi@multix")

	body := map[string]any{"date": "2024-05-03", "breakfast": 10, "lunch": "12", "dinner": nil}
	w := s.do(http.MethodPost, "/api/reports", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[model.SubmitResponse](t, w)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 22, resp.Report.Total)
	assert.Equal(t, "CUCHI", resp.Report.Center)

	w = s.do(http.MethodPost, "/api/reports", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp = decode[model.SubmitResponse](t, w)
	assert.False(t, resp.OK)
	assert.Equal(t, "duplicate", resp.Code)
	assert.Equal(t, model.RawCount("10"), resp.Input.Breakfast, "input is echoed back")

	w = s.do(http.MethodPost, "/api/reports", token, map[string]any{"date": "2024-05-04", "lunch": "-3"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode[model.SubmitResponse](t, w)
	assert.Equal(t, "validation", resp.Code)
	assert.Equal(t, model.RawCount("-3"), resp.Input.Lunch)

	w = s.do(http.MethodGet, "/api/reports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]model.Report](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-05-03", history[0].ReportDate)
}

func TestSubmitForm(t *testing.T) {
	s := newServer(t)
	token := s.login("norte@multix")

	form := "date=2024-05-02&breakfast=3&lunch=&dinner=1"
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 4, decode[model.SubmitResponse](t, w).Report.Total)

	w = s.do(http.MethodGet, "/api/reports/form?month=2024-05", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	form2 := decode[struct {
		User     model.User           `json:"user"`
		Calendar service.CalendarView `json:"calendar"`
	}](t, w)
	assert.Equal(t, "NORTE", form2.User.Center)
	assert.Equal(t, "Mayo 2024", form2.Calendar.Label)
	require.Len(t, form2.Calendar.Blocks, 1)
	assert.Equal(t, service.DayRecorded, form2.Calendar.Blocks[0].Breakfast[1].State)

	w = s.do(http.MethodGet, "/api/reports/form?month=2024-99", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminGuard(t *testing.T) {
	s := newServer(t)
	token := s.login("cuchi@multix")

	for _, path := range []string{"/api/admin/dashboard", "/api/admin/lock", "/api/admin/export"} {
		w := s.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestLockFlow(t *testing.T) {
	s := newServer(t)
	admin := s.login("boss@multix")
	user := s.login("cuchi@multix")

	w := s.do(http.MethodPut, "/api/admin/lock", admin, gin.H{"lock_until": "2024-05-05"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.LockResponse{LockUntil: "2024-05-05", UnlockFrom: "2024-05-06"}, decode[model.LockResponse](t, w))

	w = s.do(http.MethodPost, "/api/reports", user, gin.H{"date": "2024-05-05", "breakfast": 1})
	assert.Equal(t, http.StatusLocked, w.Code)
	resp := decode[model.SubmitResponse](t, w)
	assert.Equal(t, "locked", resp.Code)
	assert.Equal(t, "2024-05-05", resp.Cutoff)

	w = s.do(http.MethodPut, "/api/admin/lock", admin, gin.H{"lock_until": "05/05/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/admin/lock", admin, nil)
	assert.Equal(t, "2024-05-05", decode[model.LockResponse](t, w).LockUntil)

	w = s.do(http.MethodDelete, "/api/admin/lock", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.LockResponse{}, decode[model.LockResponse](t, w))

	w = s.do(http.MethodPost, "/api/reports", user, gin.H{"date": "2024-05-05", "breakfast": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestEditCell(t *testing.T) {
	s := newServer(t)
	admin := s.login("boss@multix")

	w := s.do(http.MethodPost, "/api/admin/cell", admin, gin.H{"center": "CUCHI", "date": "2024-05-04", "field": "lunch", "value": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[model.CellEditResponse](t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, 9, resp.Report.Total)

	w = s.do(http.MethodPost, "/api/admin/cell", admin, gin.H{"center": "CUCHI", "date": "2024-05-04", "field": "breakfast", "value": 0})
	require.Equal(t, http.StatusOK, w.Code, "zero is a valid value")

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"missing value", gin.H{"center": "CUCHI", "date": "2024-05-04", "field": "lunch"}, http.StatusBadRequest},
		{"negative", gin.H{"center": "CUCHI", "date": "2024-05-04", "field": "lunch", "value": -1}, http.StatusBadRequest},
		{"bad field", gin.H{"center": "CUCHI", "date": "2024-05-04", "field": "snack", "value": 1}, http.StatusBadRequest},
		{"bad date", gin.H{"center": "CUCHI", "date": "2024-02-30", "field": "lunch", "value": 1}, http.StatusBadRequest},
		{"unknown center", gin.H{"center": "NOWHERE", "date": "2024-05-04", "field": "lunch", "value": 1}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/admin/cell", admin, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.False(t, decode[model.CellEditResponse](t, w).OK)
		})
	}

	w = s.do(http.MethodGet, "/api/admin/centers/CUCHI?month=2024-05", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[service.CenterDetail](t, w)
	require.Len(t, detail.Reports, 1)
	assert.Equal(t, 9, detail.Reports[0].Lunch)
	assert.Equal(t, 0, detail.Reports[0].Breakfast)

	w = s.do(http.MethodGet, "/api/admin/centers/NOWHERE", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDashboard(t *testing.T) {
	s := newServer(t)
	admin := s.login("boss@multix")

	w := s.do(http.MethodGet, "/api/admin/dashboard?area=AYSEN&month=2024-05", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[service.Dashboard](t, w)
	assert.Equal(t, []string{"CUCHI"}, d.CenterOptions)
	assert.Equal(t, []string{"ARICA", "AYSEN"}, d.Areas)
	require.Len(t, d.Blocks, 1)
	assert.Len(t, d.Blocks[0].Dinner, 31)

	w = s.do(http.MethodGet, "/api/admin/dashboard?month=may", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	s := newServer(t)
	admin := s.login("boss@multix")
	user := s.login("cuchi@multix")
	w := s.do(http.MethodPost, "/api/reports", user, gin.H{"date": "2024-05-03", "breakfast": 1, "lunch": 2, "dinner": 3})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/admin/export?from=2024-05-01&to=2024-05-31", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "attachment; filename=dotacion_2024-05-01_2024-05-31.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBFid;usuario_carga;"))
	assert.Contains(t, body, ";cuchi@multix;AYSEN;CUCHI;2024-05-03;1;2;3;6;")

	w = s.do(http.MethodGet, "/api/admin/export?format=xlsx", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=dotacion_ini_fin.xlsx", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	w = s.do(http.MethodGet, "/api/admin/export?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
