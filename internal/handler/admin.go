package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"daily-meals/internal/logger"
	"daily-meals/internal/middleware"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	dashboard *service.DashboardService
	reports   *service.ReportService
	lock      *service.LockService
	export    *service.ExportService
	catalog   *service.CatalogSync
}

func NewAdminHandler(dashboard *service.DashboardService, reports *service.ReportService, lock *service.LockService,
	export *service.ExportService, catalog *service.CatalogSync) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, reports: reports, lock: lock, export: export, catalog: catalog}
}

// GET /api/admin/dashboard?area=&center=&month=
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var f service.DashboardFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}
	d, err := h.dashboard.Build(c.Request.Context(), f)
	if err != nil {
		logger.Error("admin.dashboard failed", "err", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/admin/centers/:center?month=
func (h *AdminHandler) Center(c *gin.Context) {
	d, err := h.dashboard.Center(c.Request.Context(), c.Param("center"), c.Query("month"))
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error(), "code": service.CodeOf(err)})
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/admin/cell  body: {"center","date","field","value"}
func (h *AdminHandler) EditCell(c *gin.Context) {
	var req model.CellEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.CellEditResponse{Error: string(service.CodeValidation)})
		return
	}

	ctx := c.Request.Context()
	r, err := h.reports.EditCell(ctx, req.Center, req.Date, req.Field, *req.Value)
	if err != nil {
		logger.Warn("admin.cell rejected", "center", req.Center, "date", req.Date, "field", req.Field, "err", err)
		c.JSON(service.HTTPStatus(err), model.CellEditResponse{Error: string(service.CodeOf(err))})
		return
	}

	logger.Info("admin.cell", "by", middleware.Email(c), "center", r.Center, "date", r.ReportDate,
		"field", req.Field, "value", *req.Value, "total", r.Total)
	if h.catalog.Ready() {
		h.catalog.SyncReport(ctx, r)
	}
	c.JSON(http.StatusOK, model.CellEditResponse{OK: true, Report: r})
}

// GET /api/admin/lock
func (h *AdminHandler) GetLock(c *gin.Context) {
	cutoff, err := h.lock.Get(c.Request.Context())
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, model.LockResponse{LockUntil: cutoff, UnlockFrom: service.UnlockFrom(cutoff)})
}

// PUT /api/admin/lock  body: {"lock_until":"YYYY-MM-DD"}; empty clears
func (h *AdminHandler) SetLock(c *gin.Context) {
	var req model.LockRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lock_until must be YYYY-MM-DD"})
		return
	}
	h.writeLock(c, req.LockUntil)
}

// DELETE /api/admin/lock
func (h *AdminHandler) ClearLock(c *gin.Context) {
	h.writeLock(c, "")
}

func (h *AdminHandler) writeLock(c *gin.Context, cutoff string) {
	if err := h.lock.Set(c.Request.Context(), cutoff); err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	logger.Info("admin.lock", "by", middleware.Email(c), "lock_until", cutoff)
	c.JSON(http.StatusOK, model.LockResponse{LockUntil: cutoff, UnlockFrom: service.UnlockFrom(cutoff)})
}

// GET /api/admin/export?area=&center=&from=&to=&format=csv|xlsx
func (h *AdminHandler) Export(c *gin.Context) {
	var f service.ExportFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}
	f = f.Normalize()
	rows, err := h.export.Rows(c.Request.Context(), f)
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.export.Write(&buf, f, rows); err != nil {
		logger.Error("admin.export write failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	logger.Info("admin.export", "by", middleware.Email(c), "rows", len(rows), "format", f.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", f.FileName()))
	c.Data(http.StatusOK, service.ContentType(f.Format), buf.Bytes())
}
