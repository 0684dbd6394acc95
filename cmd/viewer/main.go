// irrigation-viewer is a terminal dashboard for the irrigation schedule.
// It subscribes to the same live feed as the web server and can create,
// edit and remove schedules against the REST API.
//
// Defaults come from the environment (and .env) like the server; flags
// override them.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"irrigation/config"
	"irrigation/database"
	"irrigation/pkg/clock"
	"irrigation/pkg/feed"
	irrigationRepoImp "irrigation/pkg/irrigation/repositoryImp"
	irrigationSvcImp "irrigation/pkg/irrigation/serviceImp"
	noticeRepoImp "irrigation/pkg/notice/repositoryImp"
	noticeSvcImp "irrigation/pkg/notice/serviceImp"
	snapshotRepoImp "irrigation/pkg/snapshot/repositoryImp"
	snapshotSvcImp "irrigation/pkg/snapshot/serviceImp"
	"irrigation/pkg/viewer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var apiURL, wsURL, tz, exportPath, logOutput string

	flagSet := pflag.NewFlagSet("irrigation-viewer", pflag.ContinueOnError)
	flagSet.StringVar(&apiURL, "api-url", "", "REST base URL (default $IRRIGATION_API_URL)")
	flagSet.StringVar(&wsURL, "ws-url", "", "push feed URL (default derived from --api-url)")
	flagSet.StringVar(&tz, "tz", "", "time zone for statuses (default $TZ)")
	flagSet.StringVar(&exportPath, "export", viewer.DefaultExportPath, "spreadsheet written by the export key")
	flagSet.StringVar(&logOutput, "log-output", "", "append log lines to this file (discarded otherwise)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	// The alt screen owns the terminal; logs go to a file or nowhere.
	var logSink io.Writer = io.Discard
	if logOutput != "" {
		f, err := os.OpenFile(logOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log output: %w", err)
		}
		defer f.Close()
		logSink = f
	}
	log.SetOutput(logSink)

	cfg := config.Load()
	if apiURL != "" {
		cfg.APIURL = apiURL
		cfg.FeedURL = config.FeedURLFor(apiURL)
	}
	if wsURL != "" {
		cfg.FeedURL = wsURL
	}
	if tz != "" {
		cfg.Timezone = tz
	}
	if cfg.FeedURL == "" {
		return fmt.Errorf("cannot derive feed url from %q; pass --ws-url", cfg.APIURL)
	}
	loc := cfg.Location()
	clk := clock.Real(loc)

	// Nothing is kept between runs.
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		return err
	}
	notices := noticeSvcImp.NewNoticeService(noticeRepoImp.New(db), clk)
	snaps := snapshotSvcImp.NewSnapshotService(snapshotRepoImp.New(db), loc)
	live := feed.New(cfg.FeedURL, feed.NewWebsocketDialer(), feed.WithClock(clk), feed.WithReporter(notices))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go snaps.Sync(ctx, live)
	go func() {
		if err := live.Run(ctx); err != nil {
			log.Printf("[feed] %v", err)
		}
	}()

	svc := irrigationSvcImp.NewIrrigationService(
		irrigationRepoImp.New(cfg.APIURL, &http.Client{}),
		snaps, live, notices, clk,
	)

	updates, unsubscribe := live.Subscribe()
	defer unsubscribe()

	model := viewer.NewModel(viewer.Deps{
		Updates:    updates,
		Feed:       live,
		Service:    svc,
		Notices:    notices,
		Clock:      clk,
		ExportPath: exportPath,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `irrigation-viewer: live terminal dashboard for irrigation schedules.

Keys: j/k move, n new, e edit, d remove, r refresh, x export, q quit.

Usage:
  irrigation-viewer [flags]

Flags:
%s`, flagSet.FlagUsages())
}
