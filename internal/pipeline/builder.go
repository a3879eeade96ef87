package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-comfort/internal/compute"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/couchcryptid/climate-comfort/internal/score"
)

// ErrMissingMonthlyData is returned when a metric is undefined for some month
// and last-resort estimates are disabled.
var ErrMissingMonthlyData = errors.New("Missing monthly data; last-resort estimates are disabled") //nolint:staticcheck // user-facing message

// Fetcher obtains one source kind's daily table through an ordered provider
// list.
type Fetcher interface {
	Fetch(ctx context.Context, kind domain.SourceKind, providers []string, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error)
}

// Settings is the per-run configuration of a Builder.
type Settings struct {
	Period                 domain.Period
	MinCoverage            float64
	AllowEstimatedRainDays bool
	AllowLastResort        bool
	MMPerRainDay           float64
	Providers              map[domain.SourceKind][]string
	Score                  score.Params
	Refresh                bool

	// RainTotalsProviders optionally names an air_rain provider chain whose
	// precipitation backfills months the daily feed leaves undefined. Empty
	// means the daily feed is its own totals source.
	RainTotalsProviders []string
}

// Builder turns a location into its monthly table and provenance.
type Builder struct {
	fetcher  Fetcher
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewBuilder creates a Builder. Settings are copied and never modified.
func NewBuilder(f Fetcher, s Settings, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{fetcher: f, settings: s, logger: logger, metrics: metrics}
}

type fetched struct {
	table domain.DailyTable
	meta  domain.SourceMeta
}

// Build fetches every source kind for loc, aggregates the daily data per
// calendar month, scores each month and records provenance.
func (b *Builder) Build(ctx context.Context, loc domain.Location) (domain.LocationResult, error) {
	s := b.settings
	sources := make(map[domain.SourceKind]fetched, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		table, meta, err := b.fetcher.Fetch(ctx, kind, s.Providers[kind], loc, s.Period, s.Refresh)
		if err != nil {
			return domain.LocationResult{}, fmt.Errorf("fetch %s: %w", kind, err)
		}
		sources[kind] = fetched{table: table, meta: meta}
	}

	years := s.Period.Years()
	airRain := sources[domain.KindAirRain].table
	windWave := sources[domain.KindWindWave].table

	rain := compute.EstimateRainDays(airRain.Series(domain.VarPrecip), s.MinCoverage, years, compute.RainDayOptions{
		AllowEstimated: s.AllowEstimatedRainDays,
		MMPerRainDay:   s.MMPerRainDay,
		Totals:         b.rainTotals(ctx, loc),
	})
	stats := map[domain.Metric]domain.MonthlyStats{
		domain.MetricAir:  compute.MonthlyMeanFromDaily(airRain.Series(domain.VarTempMax), s.MinCoverage, &years),
		domain.MetricSea:  compute.MonthlyMeanFromDaily(sources[domain.KindSea].table.Series(domain.VarSST), s.MinCoverage, &years),
		domain.MetricRain: rain.Stats,
		domain.MetricWind: compute.MonthlyMeanFromDaily(windWave.Series(domain.VarWind), s.MinCoverage, &years),
		domain.MetricWave: compute.MonthlyMeanFromDaily(windWave.Series(domain.VarWave), s.MinCoverage, &years),
	}

	flagged := make(map[domain.Metric][12]domain.FlaggedValue, len(stats))
	for m, st := range stats {
		var estimated *[12]bool
		if m == domain.MetricRain {
			estimated = &rain.Estimated
		}
		flagged[m] = compute.ApplyCoverageFlags(st, estimated)
	}

	if !s.AllowLastResort {
		if missing := undefinedMonths(flagged); len(missing) > 0 {
			b.logger.Error("monthly data missing",
				"location_id", loc.ID, "missing", strings.Join(missing, ","))
			return domain.LocationResult{}, ErrMissingMonthlyData
		}
	}

	summary := strings.Join([]string{
		sources[domain.KindAirRain].meta.Source,
		sources[domain.KindSea].meta.Source,
		sources[domain.KindWindWave].meta.Source,
	}, ", ")

	var rows [12]domain.MonthlyRow
	for i := range rows {
		row := domain.MonthlyRow{
			LocationID:     loc.ID,
			Country:        loc.Country,
			Resort:         loc.Resort,
			Area:           loc.Area,
			Month:          i + 1,
			AirTemp:        flagged[domain.MetricAir][i],
			SeaTemp:        flagged[domain.MetricSea][i],
			RainDays:       flagged[domain.MetricRain][i],
			Wind:           flagged[domain.MetricWind][i],
			Wave:           flagged[domain.MetricWave][i],
			SourcesSummary: summary,
		}
		row.Components = score.Compute(score.Inputs{
			AirC:     row.AirTemp.Value,
			SeaC:     row.SeaTemp.Value,
			RainDays: row.RainDays.Value,
			WindMS:   row.Wind.Value,
			WaveHsM:  row.Wave.Value,
		}, s.Score)
		rows[i] = row
	}

	marks := b.marks(stats, flagged)
	return domain.LocationResult{
		Location:   loc,
		Rows:       rows,
		Provenance: b.provenance(loc, sources, stats, marks),
	}, nil
}

// rainTotals fetches the secondary precipitation feed. A failure only loses
// the backfill, so it is logged and the daily feed is used instead.
func (b *Builder) rainTotals(ctx context.Context, loc domain.Location) domain.Series {
	s := b.settings
	if !s.AllowEstimatedRainDays || len(s.RainTotalsProviders) == 0 {
		return nil
	}
	table, _, err := b.fetcher.Fetch(ctx, domain.KindAirRain, s.RainTotalsProviders, loc, s.Period, s.Refresh)
	if err != nil {
		b.logger.Warn("rain totals feed unavailable",
			"location_id", loc.ID, "providers", strings.Join(s.RainTotalsProviders, ","), "error", err)
		return nil
	}
	return table.Series(domain.VarPrecip)
}

// marks explains every flagged value. Estimation takes precedence over low
// coverage, which takes precedence over a missing value.
func (b *Builder) marks(stats map[domain.Metric]domain.MonthlyStats, flagged map[domain.Metric][12]domain.FlaggedValue) map[int][]domain.Mark {
	lowCoverage := domain.ReasonCoverageBelow + strconv.FormatFloat(b.settings.MinCoverage, 'f', -1, 64)
	out := make(map[int][]domain.Mark)
	for i := range 12 {
		for _, m := range domain.Metrics {
			fv := flagged[m][i]
			var reason, label string
			switch {
			case fv.Estimated:
				reason, label = domain.ReasonEstimatedFromTotal, "estimated"
			case !stats[m][i].CoverageOK:
				reason, label = lowCoverage, "coverage"
			case !fv.Value.Valid:
				reason, label = domain.ReasonMissingValue, "missing"
			default:
				continue
			}
			out[i+1] = append(out[i+1], domain.Mark{Metric: m, Reason: reason})
			b.metrics.FlaggedValues.WithLabelValues(string(m), label).Inc()
		}
	}
	return out
}

func (b *Builder) provenance(loc domain.Location, sources map[domain.SourceKind]fetched, stats map[domain.Metric]domain.MonthlyStats, marks map[int][]domain.Mark) domain.Provenance {
	coverage := make(map[domain.Metric]map[int]float64, len(stats))
	for m, st := range stats {
		coverage[m] = st.CoverageMap()
	}

	airRain := sources[domain.KindAirRain].meta
	airRain.Coverage = coverage[domain.MetricAir]
	sea := sources[domain.KindSea].meta
	sea.Coverage = coverage[domain.MetricSea]
	windWave := sources[domain.KindWindWave].meta
	windWave.Coverage = coverage[domain.MetricWind]

	return domain.Provenance{
		LocationID: loc.ID,
		Period:     b.settings.Period.Range(),
		Sources: domain.SourcesMeta{
			AirRain:  airRain,
			Sea:      sea,
			WindWave: windWave,
		},
		Coordinates: domain.ProvenanceCoordinates{
			Air:  loc.Coordinates(),
			Wave: loc.WavePoint,
		},
		Coverage:    coverage,
		Marks:       marks,
		GeneratedAt: domain.Now(),
	}
}

// undefinedMonths lists metric/month pairs with no value, as "metric:month".
func undefinedMonths(flagged map[domain.Metric][12]domain.FlaggedValue) []string {
	var out []string
	for _, m := range domain.Metrics {
		for i, fv := range flagged[m] {
			if !fv.Value.Valid {
				out = append(out, fmt.Sprintf("%s:%d", m, i+1))
			}
		}
	}
	return out
}
