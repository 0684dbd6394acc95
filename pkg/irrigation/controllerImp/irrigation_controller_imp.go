package controllerImp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"irrigation/pkg/dashboard"
	"irrigation/pkg/export"
	"irrigation/pkg/feed"
	snapshotService "irrigation/pkg/snapshot/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type IrrigationCtrl struct {
	snaps snapshotService.SnapshotService
	src   feed.Source
}

func New(snaps snapshotService.SnapshotService, src feed.Source) *IrrigationCtrl {
	return &IrrigationCtrl{snaps: snaps, src: src}
}

type listResp struct {
	Loading    bool            `json:"loading"`
	Seq        uint64          `json:"seq"`
	ReceivedAt *time.Time      `json:"received_at,omitempty"`
	Items      []dashboard.Row `json:"items"`
}

func toResp(s *feed.Snapshot) listResp {
	if s == nil {
		return listResp{Loading: true, Items: []dashboard.Row{}}
	}
	at := s.ReceivedAt
	return listResp{Seq: s.Seq, ReceivedAt: &at, Items: dashboard.Rows(s.Sorted())}
}

func (h *IrrigationCtrl) List(c echo.Context) error {
	snap, err := h.snaps.Current()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, toResp(snap))
}

// Stream pushes every snapshot as a server-sent event until the client
// goes away. The feed subscription lives exactly as long as the request.
func (h *IrrigationCtrl) Stream(c echo.Context) error {
	ch, unsubscribe := h.src.Subscribe()
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			b, err := json.Marshal(toResp(snap))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Seq, b); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func (h *IrrigationCtrl) Export(c echo.Context) error {
	snap, err := h.snaps.Current()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if snap == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no snapshot received yet"})
	}
	wb, err := export.Workbook(snap.Sorted())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	defer wb.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, xlsxContentType)
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="irrigacoes.xlsx"`)
	res.WriteHeader(http.StatusOK)
	return wb.Write(res)
}
