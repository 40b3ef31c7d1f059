package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"FilingDrift/internal/app"
	"FilingDrift/internal/config"
	"FilingDrift/internal/domain"
	"FilingDrift/internal/logging"
	"FilingDrift/internal/usecase"
)

const usage = `usage: filingdrift <command> [flags] [filer...]

commands:
  fetch       download new filings from EDGAR
  clean       normalize raw submissions
  split       segment clean text into item files
  segment     clean then split
  similarity  compare consecutive filings and write the CSV
  run         segment then similarity (-fetch to download first)
  watch       run on the configured interval
  serve       expose the HTTP API
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fetch := fs.Bool("fetch", false, "download new filings before processing (run, watch)")
	_ = fs.Parse(os.Args[2:])

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filers := fs.Args()
	if len(filers) == 0 {
		filers = cfg.FilerIDs()
	}

	if err := run(ctx, cmd, cfg, logger, filers, *fetch); err != nil {
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg config.Config, logger *slog.Logger, filers []string, fetch bool) error {
	writes := cmd == "similarity" || cmd == "run" || cmd == "watch"

	application, err := app.New(ctx, cfg, logger, app.Options{WriteResults: writes})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close sinks", "error", err)
		}
	}()

	runner := application.Runner()
	runID := uuid.NewString()

	var report *domain.BatchReport
	switch cmd {
	case "fetch":
		report, err = runner.Fetch(ctx, runID, filers)
	case "clean":
		report, err = runner.Segment(ctx, runID, filers, usecase.StageClean)
	case "split":
		report, err = runner.Segment(ctx, runID, filers, usecase.StageSplit)
	case "segment":
		report, err = runner.Segment(ctx, runID, filers, usecase.StageSegment)
	case "similarity":
		report, err = runner.Compare(ctx, runID, filers)
	case "run":
		var reports []*domain.BatchReport
		reports, err = runner.RunAll(ctx, runID, filers, fetch)
		for _, r := range reports {
			fmt.Print(r.Summary())
		}
		return err
	case "watch":
		return application.Watch(ctx, filers, fetch, uuid.NewString)
	case "serve":
		return application.Serve(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return errors.New("unknown command " + cmd)
	}

	if report != nil {
		fmt.Print(report.Summary())
	}
	return err
}
