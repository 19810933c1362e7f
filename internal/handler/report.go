package handler

import (
	"errors"
	"net/http"
	"time"

	"daily-meals/internal/logger"
	"daily-meals/internal/middleware"
	"daily-meals/internal/model"
	"daily-meals/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	dir     *service.DirectoryService
	reports *service.ReportService
	catalog *service.CatalogSync
	now     func() time.Time
}

func NewReportHandler(dir *service.DirectoryService, reports *service.ReportService, catalog *service.CatalogSync) *ReportHandler {
	return &ReportHandler{dir: dir, reports: reports, catalog: catalog, now: time.Now}
}

// identity resolves the session email; it writes the error response itself.
func (h *ReportHandler) identity(c *gin.Context) (*model.Identity, bool) {
	ident, err := h.dir.Lookup(c.Request.Context(), middleware.Email(c))
	if err != nil {
		logger.Error("identity lookup failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return nil, false
	}
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrNotAllowed.Error()})
		return nil, false
	}
	return ident, true
}

// GET /api/reports/form?month=YYYY-MM
func (h *ReportHandler) Form(c *gin.Context) {
	ident, ok := h.identity(c)
	if !ok {
		return
	}
	year, month, err := service.ParseMonth(c.Query("month"), h.now())
	if err != nil {
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	view, err := h.reports.Calendar(c.Request.Context(), ident, year, month)
	if err != nil {
		logger.Error("report.form failed", "email", ident.Email, "err", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":     model.User{Email: ident.Email, Center: ident.Center, Area: ident.Area},
		"calendar": view,
	})
}

// POST /api/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	ident, ok := h.identity(c)
	if !ok {
		return
	}
	var req model.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.SubmitResponse{Error: "invalid request", Code: string(service.CodeValidation), Input: req})
		return
	}

	ctx := c.Request.Context()
	r, err := h.reports.Submit(ctx, ident, req)
	if err != nil {
		resp := model.SubmitResponse{Error: err.Error(), Code: string(service.CodeOf(err)), Input: req}
		var se *service.Error
		if errors.As(err, &se) {
			resp.Cutoff = se.Cutoff
		}
		logger.Warn("report.submit rejected", "email", ident.Email, "date", req.Date, "code", resp.Code, "err", err)
		c.JSON(service.HTTPStatus(err), resp)
		return
	}

	logger.Info("report.submit", "email", ident.Email, "center", ident.Center, "date", r.ReportDate, "total", r.Total)
	if h.catalog.Ready() {
		h.catalog.SyncReport(ctx, r)
	}
	c.JSON(http.StatusCreated, model.SubmitResponse{OK: true, Input: req, Report: r})
}

// GET /api/reports
func (h *ReportHandler) History(c *gin.Context) {
	ident, ok := h.identity(c)
	if !ok {
		return
	}
	rows, err := h.reports.History(c.Request.Context(), ident.Email)
	if err != nil {
		logger.Error("report.history failed", "email", ident.Email, "err", err)
		c.JSON(service.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []model.Report{}
	}
	c.JSON(http.StatusOK, rows)
}
