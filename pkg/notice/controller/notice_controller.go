package controller

import "github.com/labstack/echo/v4"

type NoticeController interface {
	List(c echo.Context) error
}
