package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
)

// ErrUnknownProvider is wrapped by ConfigError when a configured provider
// name is not registered for its source kind.
var ErrUnknownProvider = errors.New("unknown provider")

// ConfigError reports a provider configuration that cannot be run.
type ConfigError struct {
	Kind     domain.SourceKind
	Provider string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s providers: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s providers: %q: %v", e.Kind, e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Registry maps provider names to implementations, per source kind.
type Registry map[domain.SourceKind]map[string]Provider

// Register adds p under kind, replacing any provider with the same name.
func (r Registry) Register(kind domain.SourceKind, p Provider) {
	if r[kind] == nil {
		r[kind] = make(map[string]Provider)
	}
	r[kind][p.Name()] = p
}

// Names returns the sorted provider names registered for kind.
func (r Registry) Names(kind domain.SourceKind) []string {
	names := make([]string, 0, len(r[kind]))
	for name := range r[kind] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry registers the built-in providers against b.
func DefaultRegistry(b *Backend) Registry {
	r := Registry{}
	r.Register(domain.KindAirRain, NewArchiveProvider(b))
	r.Register(domain.KindSea, NewMarineProvider(b))
	r.Register(domain.KindWindWave, NewWindWaveProvider(b))
	r.Register(domain.KindWindWave, ERA5Provider{})
	return r
}

// Orchestrator tries providers in order until one succeeds.
type Orchestrator struct {
	registry Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewOrchestrator(registry Registry, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{registry: registry, logger: logger, metrics: metrics}
}

// Fetch resolves every provider name before fetching anything. Providers are
// then tried in order; a success after earlier failures is annotated with the
// failed chain. When every provider fails the last error is returned as is.
func (o *Orchestrator) Fetch(ctx context.Context, kind domain.SourceKind, providers []string, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error) {
	if len(providers) == 0 {
		return domain.DailyTable{}, domain.SourceMeta{}, &ConfigError{Kind: kind, Err: errors.New("no providers configured")}
	}
	resolved := make([]Provider, 0, len(providers))
	for _, name := range providers {
		p, ok := o.registry[kind][name]
		if !ok {
			return domain.DailyTable{}, domain.SourceMeta{}, &ConfigError{Kind: kind, Provider: name, Err: ErrUnknownProvider}
		}
		resolved = append(resolved, p)
	}

	var (
		tried   []domain.FallbackAttempt
		lastErr error
	)
	for _, p := range resolved {
		if err := ctx.Err(); err != nil {
			return domain.DailyTable{}, domain.SourceMeta{}, err
		}

		table, meta, err := p.Fetch(ctx, loc, period, refresh)
		if err != nil {
			o.metrics.ProviderFailures.WithLabelValues(string(kind), p.Name()).Inc()
			o.logger.Warn("provider failed",
				"kind", kind, "provider", p.Name(), "location_id", loc.ID, "error", err)
			tried = append(tried, domain.FallbackAttempt{Provider: p.Name(), Error: err.Error()})
			lastErr = err
			continue
		}

		if len(tried) > 0 {
			meta.FallbackUsed = true
			meta.FallbackProvider = p.Name()
			meta.FallbacksTried = tried
			o.metrics.ProviderFallbacks.WithLabelValues(string(kind), p.Name()).Inc()
			o.logger.Info("fallback provider used",
				"kind", kind, "provider", p.Name(), "location_id", loc.ID, "failed", len(tried))
		}
		return table, meta, nil
	}
	return domain.DailyTable{}, domain.SourceMeta{}, lastErr
}
