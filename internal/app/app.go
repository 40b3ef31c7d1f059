package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"FilingDrift/internal/config"
	"FilingDrift/internal/infrastructure/edgar"
	"FilingDrift/internal/infrastructure/httpapi"
	"FilingDrift/internal/infrastructure/parser"
	"FilingDrift/internal/infrastructure/scheduler"
	"FilingDrift/internal/infrastructure/storage"
	"FilingDrift/internal/infrastructure/telegram"
	"FilingDrift/internal/logging"
	"FilingDrift/internal/ports"
	"FilingDrift/internal/scanner"
	"FilingDrift/internal/segment"
	"FilingDrift/internal/similarity"
	"FilingDrift/internal/usecase"
)

// Options tunes which adapters are opened.
type Options struct {
	// WriteResults truncates and opens the similarity CSV. Commands that never
	// compare leave it off so an earlier output file survives.
	WriteResults bool
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	runner    *usecase.Runner
	segmenter *segment.Segmenter
	engine    *similarity.Engine
	records   ports.RecordReader
	sinks     storage.MultiSink
}

// New builds a runnable application instance. Close releases the sinks.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	chooser, err := segment.NewRegistry().Resolve(cfg.Segmentation.Strategy)
	if err != nil {
		return nil, err
	}
	segmenter := segment.NewSegmenter(chooser)
	engine := similarity.NewEngine(similarity.NewVaderScorer())

	store := storage.NewFileStore(cfg.Data.Root, storage.FileLayout{
		Form:      cfg.Data.Form,
		RawFile:   cfg.Data.RawFile,
		CleanFile: cfg.Data.CleanFile,
	})

	a := &Application{cfg: cfg, logger: baseLogger, segmenter: segmenter, engine: engine}

	if err := a.openSinks(ctx, opts); err != nil {
		_ = a.sinks.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}

	registry := scanner.NewRegistry()
	edgarScanner := parser.NewEdgarScanner(httpClient, cfg.EDGAR.BaseURL, cfg.EDGAR.UserAgent, baseLogger.With("component", "scanner.edgar"))
	edgarScanner.SetPageSize(cfg.EDGAR.PageSize)
	registry.Register(edgarScanner)

	source := parser.NewStrategySource(registry, cfg.EDGAR, cfg.Filers, baseLogger.With("component", "source"))
	downloader := edgar.NewDownloader(httpClient, cfg.EDGAR.UserAgent, cfg.EDGAR.Delay())

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	var sink ports.ResultSink
	if len(a.sinks) > 0 {
		sink = a.sinks
	}

	a.runner = usecase.NewRunner(usecase.RunnerDeps{
		Acquisition: usecase.NewAcquisition(usecase.AcquisitionDeps{
			Source:     source,
			Downloader: downloader,
			Store:      store,
			Workers:    cfg.Workers.Download,
			Logger:     baseLogger,
		}),
		Segmentation: usecase.NewSegmentation(usecase.SegmentationDeps{
			Store:     store,
			Segmenter: segmenter,
			Workers:   cfg.Workers.Segment,
			Logger:    baseLogger,
		}),
		Comparison: usecase.NewComparison(usecase.ComparisonDeps{
			Store:    store,
			Engine:   engine,
			Sink:     sink,
			Sections: cfg.Similarity.Sections,
			Workers:  cfg.Workers.Compare,
			Logger:   baseLogger,
		}),
		Notifier: notifier,
		Ledger:   a.sinks,
		Logger:   baseLogger,
	})
	return a, nil
}

func (a *Application) openSinks(ctx context.Context, opts Options) error {
	if opts.WriteResults && a.cfg.Similarity.Output != "" {
		csvSink, err := storage.NewCSVFileSink(a.cfg.Similarity.Output)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, csvSink)
		if len(a.cfg.Similarity.Sections) > 1 {
			a.logger.Warn("csv output has no section column; rows of different sections share one file",
				"output", a.cfg.Similarity.Output, "sections", a.cfg.Similarity.Sections)
		}
	}

	switch a.cfg.Storage.Driver {
	case "":
	case "postgres":
		repo, err := storage.NewPostgresRepository(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, repo)
		a.records = repo
	case "sqlite":
		repo, err := storage.OpenSQLite(ctx, a.cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		a.sinks = append(a.sinks, repo)
		a.records = repo
	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
	return nil
}

// Runner exposes the stage orchestrator to the CLI.
func (a *Application) Runner() *usecase.Runner {
	return a.runner
}

// Watch runs the full pipeline on the configured interval until ctx ends.
func (a *Application) Watch(ctx context.Context, filers []string, fetch bool, newRunID func() string) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Schedule.Every(), a.cfg.Schedule.Location())
	sched := usecase.NewScheduler(driver, a.runner, filers, fetch, newRunID, a.logger)

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching", "interval", a.cfg.Schedule.Every(), "timezone", a.cfg.Schedule.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Serve exposes the HTTP API until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(a.segmenter, a.engine, a.records, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close flushes and closes every result sink.
func (a *Application) Close() error {
	return a.sinks.Close()
}
