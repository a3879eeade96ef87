// Command comfort builds the monthly comfort table for every configured
// location and writes CSV, provenance and optionally Markdown reports.
//
// Usage:
//
//	go run ./cmd/comfort [--config-dir config] [--location malaga] [--refresh] [--markdown] [--serve]
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/climate-comfort/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-comfort/internal/adapter/kafka"
	"github.com/couchcryptid/climate-comfort/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-comfort/internal/cache"
	"github.com/couchcryptid/climate-comfort/internal/config"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/couchcryptid/climate-comfort/internal/pipeline"
	"github.com/couchcryptid/climate-comfort/internal/report"
	"github.com/couchcryptid/climate-comfort/internal/source"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type options struct {
	configDir string
	outputDir string
	locations []string
	refresh   bool
	markdown  bool
	serve     bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var opts options
	pflag.StringVar(&opts.configDir, "config-dir", cfg.ConfigDir, "directory holding locations.yaml, params.yaml and sources.yaml")
	pflag.StringVar(&opts.outputDir, "output-dir", cfg.OutputDir, "directory for generated reports")
	pflag.StringSliceVar(&opts.locations, "location", nil, "build only these location ids (repeatable)")
	pflag.BoolVar(&opts.refresh, "refresh", false, "bypass fresh cache entries and refetch from providers")
	pflag.BoolVar(&opts.markdown, "markdown", false, "also write a Markdown table per location")
	pflag.BoolVar(&opts.serve, "serve", false, "keep serving health, metrics and results after the run")
	pflag.Parse()

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, opts, logger, metrics); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options, logger *slog.Logger, metrics *observability.Metrics) error {
	study, err := config.LoadStudy(opts.configDir)
	if err != nil {
		return err
	}
	locations, err := selectLocations(study.Locations, opts.locations)
	if err != nil {
		return err
	}

	diskCache, err := cache.New(cfg.CacheDir, study.CacheTTL, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	client := openmeteo.NewClient(openmeteo.Options{
		ArchiveURL:       cfg.ArchiveBaseURL,
		MarineURL:        cfg.MarineBaseURL,
		Timeout:          cfg.ProviderTimeout,
		MaxRetries:       cfg.ProviderMaxRetries,
		RetryInterval:    time.Second,
		MaxRetryInterval: 30 * time.Second,
	}, logger, metrics)
	backend := source.NewBackend(client, diskCache, logger, metrics)
	orchestrator := source.NewOrchestrator(source.DefaultRegistry(backend), logger, metrics)

	builder := pipeline.NewBuilder(orchestrator, pipeline.Settings{
		Period:                 study.Period,
		MinCoverage:            study.MinCoverage,
		AllowEstimatedRainDays: study.AllowEstimatedRainDays,
		AllowLastResort:        study.AllowLastResort,
		MMPerRainDay:           study.MMPerRainDay,
		Providers:              study.Providers,
		Score:                  study.Score,
		Refresh:                opts.refresh,
		RainTotalsProviders:    study.RainTotalsProviders,
	}, logger, metrics)

	files, err := report.NewFileWriter(opts.outputDir, opts.markdown, logger)
	if err != nil {
		return err
	}
	results := httpadapter.NewResultStore()
	loaders := []pipeline.ResultLoader{files, results}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger, metrics)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(builder, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !opts.serve {
		return p.Run(ctx, locations)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, results, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if err := p.Run(ctx, locations); err != nil {
		logger.Error("pipeline error", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// selectLocations keeps the configured order. An empty filter selects all.
func selectLocations(all []domain.Location, ids []string) ([]domain.Location, error) {
	if len(ids) == 0 {
		return all, nil
	}
	var selected []domain.Location
	for _, loc := range all {
		if slices.Contains(ids, loc.ID) {
			selected = append(selected, loc)
		}
	}
	for _, id := range ids {
		if !slices.ContainsFunc(selected, func(l domain.Location) bool { return l.ID == id }) {
			return nil, fmt.Errorf("unknown location %q", id)
		}
	}
	return selected, nil
}
