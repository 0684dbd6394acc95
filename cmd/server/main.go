package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"irrigation/config"
	"irrigation/database"
	"irrigation/pkg/clock"
	"irrigation/pkg/feed"
	"irrigation/router"

	// Notices
	noticeCtrlImp "irrigation/pkg/notice/controllerImp"
	noticeRepoImp "irrigation/pkg/notice/repositoryImp"
	noticeSvcImp "irrigation/pkg/notice/serviceImp"

	// Snapshot store
	snapshotRepoImp "irrigation/pkg/snapshot/repositoryImp"
	snapshotSvcImp "irrigation/pkg/snapshot/serviceImp"

	// Irrigation
	irrigationCtrlImp "irrigation/pkg/irrigation/controllerImp"
	irrigationRepoImp "irrigation/pkg/irrigation/repositoryImp"
	irrigationSvcImp "irrigation/pkg/irrigation/serviceImp"

	// Dashboard
	dashboardCtrlImp "irrigation/pkg/dashboard/controllerImp"

	// Housekeeping
	scheduleSvcImp "irrigation/pkg/schedule/serviceImp"

	// Health
	healthCtrlImp "irrigation/pkg/health/controllerImp"
)

func main() {
	// 1) Config
	cfg := config.Load()
	if cfg.FeedURL == "" {
		log.Fatalf("cannot derive feed url from %q; set IRRIGATION_WS_URL", cfg.APIURL)
	}
	loc := cfg.Location()
	clk := clock.Real(loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2) Local store (snapshot + notices)
	db, err := database.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	notices := noticeSvcImp.NewNoticeService(noticeRepoImp.New(db), clk)

	// 3) Live feed
	live := feed.New(cfg.FeedURL, feed.NewWebsocketDialer(), feed.WithClock(clk), feed.WithReporter(notices))
	snaps := snapshotSvcImp.NewSnapshotService(snapshotRepoImp.New(db), loc)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		snaps.Sync(ctx, live)
	}()
	go func() {
		defer wg.Done()
		if err := live.Run(ctx); err != nil {
			log.Printf("[feed] %v", err)
		}
	}()

	// 4) REST client + actions
	client := &http.Client{}
	irrigations := irrigationSvcImp.NewIrrigationService(
		irrigationRepoImp.New(cfg.APIURL, client), snaps, live, notices, clk,
	)

	// 5) Housekeeping
	sched := scheduleSvcImp.NewScheduleService(loc)
	if err := sched.Every(cfg.HousekeepingEvery, "prune notices", func() {
		n, err := notices.Prune(cfg.NoticeRetention)
		if err != nil {
			log.Printf("[cron] prune notices: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[cron] pruned %d notices", n)
		}
	}); err != nil {
		log.Fatalf("schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// 6) Echo
	renderer, err := dashboardCtrlImp.NewRenderer()
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	e := echo.New()
	e.HideBanner = true
	// open event streams end with the process context
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }
	e.Renderer = renderer
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.Logger())

	dCtrl := dashboardCtrlImp.New(snaps, irrigations, notices, live, clk)
	iCtrl := irrigationCtrlImp.New(snaps, live)
	nCtrl := noticeCtrlImp.New(notices)
	hCtrl := healthCtrlImp.NewHealthCtrl(db, live)

	r := router.New(e, dCtrl, iCtrl, nCtrl, hCtrl)

	// 7) Start
	go func() {
		log.Printf("listening on :%s (api %s, feed %s)", cfg.Port, cfg.APIURL, cfg.FeedURL)
		if err := r.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	wg.Wait()
}
