package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"irrigation/pkg/feed"
)

var appStart = time.Now()

// FeedProbe is the part of the live feed the health check reads.
type FeedProbe interface {
	State() feed.State
	URL() string
}

type HealthCtrl struct {
	db   *gorm.DB
	feed FeedProbe
}

func NewHealthCtrl(db *gorm.DB, f FeedProbe) *HealthCtrl { return &HealthCtrl{db: db, feed: f} }

type sub struct {
	OK    bool   `json:"ok"`
	State string `json:"state,omitempty"`
	Err   string `json:"err,omitempty"`
}

func (h *HealthCtrl) database(ctx context.Context) sub {
	if h.db == nil {
		return sub{Err: "gorm db is nil"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return sub{Err: "db.DB(): " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return sub{Err: "ping: " + err.Error()}
	}
	return sub{OK: true}
}

// liveFeed is healthy while connecting or subscribed. A failed feed stays
// failed until the user refreshes, so it is reported but does not fail the
// whole check.
func (h *HealthCtrl) liveFeed() sub {
	if h.feed == nil {
		return sub{Err: "feed not configured"}
	}
	st := h.feed.State()
	s := sub{State: string(st)}
	switch st {
	case feed.StateActive, feed.StateConnecting:
		s.OK = true
	case feed.StateFailed:
		s.Err = "subscription to " + h.feed.URL() + " failed; refresh to retry"
	}
	return s
}

func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	db := h.database(ctx)
	live := h.liveFeed()

	status := http.StatusOK
	if !db.OK {
		status = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":     map[string]any{"ok": db.OK},
		"uptime_sec": int(time.Since(appStart).Seconds()),
		"checks": map[string]any{
			"database": db,
			"feed":     live,
		},
		"time": time.Now().Format(time.RFC3339),
	}
	return c.JSON(status, resp)
}
