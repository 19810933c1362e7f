package handler

import (
	"net/http"

	"daily-meals/internal/middleware"
	"daily-meals/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Auth      *service.AuthService
	Directory *service.DirectoryService
	Reports   *service.ReportService
	Lock      *service.LockService
	Dashboard *service.DashboardService
	Export    *service.ExportService
	Catalog   *service.CatalogSync
	Tokens    *middleware.Tokens
}

func NewRouter(d Deps) *gin.Engine {
	RegisterValidators()

	authH := NewAuthHandler(d.Auth, d.Tokens)
	reportH := NewReportHandler(d.Directory, d.Reports, d.Catalog)
	adminH := NewAdminHandler(d.Dashboard, d.Reports, d.Lock, d.Export, d.Catalog)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLog())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{"X-New-Token", "Content-Disposition", middleware.HeaderRequestID},
	}))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/api/login", authH.Login)

	api := r.Group("/api", d.Tokens.JWTAuth())
	api.GET("/me", authH.Me)
	api.GET("/reports/form", reportH.Form)
	api.GET("/reports", reportH.History)
	api.POST("/reports", reportH.Submit)

	admin := api.Group("/admin", middleware.AdminOnly())
	admin.GET("/dashboard", adminH.Dashboard)
	admin.GET("/centers/:center", adminH.Center)
	admin.POST("/cell", adminH.EditCell)
	admin.GET("/lock", adminH.GetLock)
	admin.PUT("/lock", adminH.SetLock)
	admin.DELETE("/lock", adminH.ClearLock)
	admin.GET("/export", adminH.Export)

	return r
}
