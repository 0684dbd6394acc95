package router

import (
	"github.com/labstack/echo/v4"

	dashboardCtrl "irrigation/pkg/dashboard/controller"
	healthCtrl "irrigation/pkg/health/controller"
	irrigationCtrl "irrigation/pkg/irrigation/controller"
	noticeCtrl "irrigation/pkg/notice/controller"
)

func New(
	e *echo.Echo,
	dash dashboardCtrl.DashboardController,
	api irrigationCtrl.IrrigationController,
	notices noticeCtrl.NoticeController,
	health healthCtrl.HealthController,
) *echo.Echo {
	e.GET("/health", health.Health)

	// pages
	e.GET("/", dash.Index)
	e.POST("/refresh", dash.Refresh)

	g := e.Group("/irrigation")
	g.GET("/new", dash.NewForm)
	g.POST("", dash.Create)
	g.GET("/:id/edit", dash.EditForm)
	g.POST("/:id", dash.Update)
	g.GET("/:id/delete", dash.ConfirmDelete)
	g.POST("/:id/delete", dash.Delete)

	e.GET("/export.xlsx", api.Export)

	// json
	j := e.Group("/api")
	j.GET("/irrigations", api.List)
	j.GET("/stream", api.Stream)
	j.GET("/notices", notices.List)
	return e
}
