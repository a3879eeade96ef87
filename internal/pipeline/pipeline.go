package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
)

// TableBuilder builds one location's monthly table.
type TableBuilder interface {
	Build(ctx context.Context, loc domain.Location) (domain.LocationResult, error)
}

// ResultLoader writes a finished table to a destination.
type ResultLoader interface {
	Load(ctx context.Context, res domain.LocationResult) error
}

// Pipeline builds every configured location and hands the results to the
// loaders.
type Pipeline struct {
	builder TableBuilder
	loaders []ResultLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given builder, loaders and observability.
func New(b TableBuilder, loaders []ResultLoader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		builder: b,
		loaders: loaders,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one location has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not built any location yet")
	}
	return nil
}

// Run builds every location before loading any of them, so that a missing
// metric with last-resort estimates disabled stops the run before output is
// written. Other per-location failures are logged and skipped; the returned
// error joins all of them.
func (p *Pipeline) Run(ctx context.Context, locations []domain.Location) error {
	p.logger.Info("pipeline started", "locations", len(locations))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var errs []error
	results := make([]domain.LocationResult, 0, len(locations))
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err)
			return err
		}

		start := time.Now()
		res, err := p.builder.Build(ctx, loc)
		p.metrics.BuildDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.BuildErrors.Inc()
			if errors.Is(err, ErrMissingMonthlyData) {
				return fmt.Errorf("location %s: %w", loc.ID, err)
			}
			p.logger.Error("build failed, skipping location", "location_id", loc.ID, "error", err)
			errs = append(errs, fmt.Errorf("location %s: %w", loc.ID, err))
			continue
		}
		results = append(results, res)
	}

	for _, res := range results {
		if err := p.load(ctx, res); err != nil {
			errs = append(errs, err)
			continue
		}
		p.metrics.LocationsBuilt.Inc()
		p.ready.Store(true)
		p.logger.Info("location built",
			"location_id", res.Location.ID,
			"flagged_months", len(res.Provenance.Marks),
		)
	}

	p.logger.Info("pipeline finished", "built", len(results), "failed", len(errs))
	return errors.Join(errs...)
}

func (p *Pipeline) load(ctx context.Context, res domain.LocationResult) error {
	var errs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, res); err != nil {
			p.logger.Error("load failed", "location_id", res.Location.ID, "error", err)
			errs = append(errs, fmt.Errorf("location %s: load: %w", res.Location.ID, err))
		}
	}
	return errors.Join(errs...)
}
