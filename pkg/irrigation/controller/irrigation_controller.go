package controller

import "github.com/labstack/echo/v4"

type IrrigationController interface {
	List(c echo.Context) error
	Stream(c echo.Context) error
	Export(c echo.Context) error
}
