package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"irrigation/pkg/notice/service"
)

type NoticeCtrl struct{ s service.NoticeService }

func New(s service.NoticeService) *NoticeCtrl { return &NoticeCtrl{s} }

func (h *NoticeCtrl) List(c echo.Context) error {
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	out, err := h.s.Recent(limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
