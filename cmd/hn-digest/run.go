package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/pribylovaa/hn-digest/internal/config"
	"github.com/pribylovaa/hn-digest/internal/fetcher"
	"github.com/pribylovaa/hn-digest/internal/metrics"
	"github.com/pribylovaa/hn-digest/internal/pkg/log"
	"github.com/pribylovaa/hn-digest/internal/pkg/redact"
	"github.com/pribylovaa/hn-digest/internal/report"
	"github.com/pribylovaa/hn-digest/internal/service"
	"github.com/pribylovaa/hn-digest/internal/storage"
	"github.com/pribylovaa/hn-digest/internal/storage/minio"
	"github.com/pribylovaa/hn-digest/internal/storage/postgres"
	"github.com/pribylovaa/hn-digest/internal/storage/sqlite"
)

// run выполняет один прогон: конфиг → хранилище → конвейер → файлы отчёта → архив/метрики.
func run(ctx context.Context, stdout, stderr io.Writer, opts options, formats []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts, formats)

	lg := setupLogger(cfg.Env, stderr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, runID := log.WithRunID(log.Into(ctx, lg), "")
	lg = log.From(ctx)
	lg.Info("starting hn-digest",
		slog.String("env", cfg.Env),
		slog.Int("days", opts.days),
		slog.Int("workers", cfg.Pipeline.Workers),
		slog.Any("formats", cfg.Report.Formats),
	)

	store, err := openStorage(ctx, cfg)
	if err != nil {
		lg.Error("storage_open_failed", slog.String("driver", cfg.DB.Driver), slog.String("err", err.Error()))
		return err
	}
	if store != nil {
		defer store.Close()
	}

	m := metrics.New()
	f := fetcher.New(fetcher.Options{
		UserAgent:      cfg.Fetcher.UserAgent,
		MaxAttempts:    cfg.Fetcher.MaxAttempts,
		Factor:         cfg.Fetcher.BackoffFactor,
		MaxDelay:       cfg.Fetcher.MaxDelay,
		AttemptTimeout: cfg.Fetcher.AttemptTimeout,
	}, fetcher.WithMetrics(m))

	svc := service.New(store, f, *cfg,
		service.WithMetrics(m),
		service.WithRefresh(opts.refresh),
	)

	rep, err := svc.Report(ctx, opts.days)
	if err != nil {
		lg.Error("report_failed", slog.String("err", err.Error()))
		return err
	}

	paths, err := report.WriteFiles(cfg.Report.Dir, cfg.Report.Formats, rep)
	if err != nil {
		lg.Error("report_write_failed", slog.String("dir", cfg.Report.Dir), slog.String("err", err.Error()))
		return err
	}
	lg.Info("report_written", slog.Any("files", paths), slog.Int("stories", len(rep.Stories)))

	if opts.format == config.FormatTable {
		if err := report.Table(stdout, rep); err != nil {
			return err
		}
	}

	var archiveErr error
	if cfg.Archive.Enabled() {
		archiveErr = archive(ctx, cfg.Archive, runID, rep.Generated, paths)
	}

	m.Finished(time.Now())
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		lg.Warn("metrics_write_failed", slog.String("path", cfg.Metrics.Textfile), slog.String("err", err.Error()))
	}

	lg.Info("hn-digest finished")

	return archiveErr
}

// applyFlags переносит явно заданные флаги поверх конфига.
func applyFlags(cfg *config.Config, opts options, formats []string) {
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}
	if opts.out != "" {
		cfg.Report.Dir = opts.out
	}
	if len(formats) > 0 {
		cfg.Report.Formats = formats
	}
}

// openStorage выбирает реализацию хранилища по db.driver.
// Для driver=none возвращает nil: конвейер работает без кэша и сохранения.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	lg := log.From(ctx)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		st, err := postgres.New(dbCtx, cfg.DB.URL)
		if err != nil {
			return nil, err
		}
		lg.Info("postgres_connected", slog.String("dsn", redact.DSN(cfg.DB.URL)))
		return st, nil

	case config.DriverSQLite:
		st, err := sqlite.New(dbCtx, cfg.DB.Path)
		if err != nil {
			return nil, err
		}
		lg.Info("sqlite_opened", slog.String("path", cfg.DB.Path))
		return st, nil

	case config.DriverNone:
		lg.Info("storage_disabled")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

// archive выгружает файлы отчёта в MinIO/S3.
func archive(ctx context.Context, cfg config.ArchiveConfig, runID string, generated time.Time, paths []string) error {
	lg := log.From(ctx)

	arch, err := minio.New(ctx, cfg)
	if err != nil {
		lg.Error("archive_connect_failed",
			slog.String("endpoint", cfg.Endpoint),
			slog.String("access_key", redact.Secret(cfg.AccessKey)),
			slog.String("err", err.Error()),
		)
		return err
	}

	if _, err := arch.Upload(ctx, runID, generated, paths); err != nil {
		lg.Error("archive_upload_failed", slog.String("err", err.Error()))
		return err
	}

	return nil
}
