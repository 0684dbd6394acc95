package controller

import "github.com/labstack/echo/v4"

// DashboardController serves the server-rendered pages.
type DashboardController interface {
	Index(c echo.Context) error
	NewForm(c echo.Context) error
	Create(c echo.Context) error
	EditForm(c echo.Context) error
	Update(c echo.Context) error
	ConfirmDelete(c echo.Context) error
	Delete(c echo.Context) error
	Refresh(c echo.Context) error
}
