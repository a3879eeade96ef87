// Command genmock seeds the provider cache with synthetic Open-Meteo payloads
// for every configured location, so that cmd/comfort can run offline. The
// payloads go through the same providers and cache keys as a live run.
//
// Usage:
//
//	go run ./cmd/genmock --config-dir config --cache-dir cache
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-comfort/internal/cache"
	"github.com/couchcryptid/climate-comfort/internal/config"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/couchcryptid/climate-comfort/internal/source"
	"github.com/spf13/pflag"
)

func main() {
	configDir := pflag.String("config-dir", "config", "directory holding the study YAML files")
	cacheDir := pflag.String("cache-dir", "cache", "cache directory to seed")
	pflag.Parse()

	if err := run(context.Background(), *configDir, *cacheDir); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, configDir, cacheDir string) error {
	study, err := config.LoadStudy(configDir)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := cache.New(cacheDir, study.CacheTTL, logger)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	metrics := observability.NewUnregisteredMetrics()
	backend := source.NewBackend(openmeteo.Synthetic{}, c, logger, metrics)
	orchestrator := source.NewOrchestrator(source.DefaultRegistry(backend), logger, metrics)

	start := time.Now()
	for _, loc := range study.Locations {
		for _, kind := range domain.Kinds {
			table, meta, err := orchestrator.Fetch(ctx, kind, study.Providers[kind], loc, study.Period, true)
			if err != nil {
				return fmt.Errorf("seed %s/%s: %w", loc.ID, kind, err)
			}
			log.Printf("%s %-9s %-18s %d days", loc.ID, kind, meta.Source, table.Len())
		}
	}
	log.Printf("seeded %d locations into %s in %s", len(study.Locations), cacheDir, time.Since(start).Round(time.Millisecond))
	return nil
}
