package source

import (
	"context"
	"errors"

	"github.com/couchcryptid/climate-comfort/internal/adapter/openmeteo"
	"github.com/couchcryptid/climate-comfort/internal/cache"
	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// Registry names of the built-in providers.
const (
	NameArchive  = "open_meteo_archive"
	NameMarine   = "open_meteo_marine"
	NameWindWave = "open_meteo"
	NameERA5     = "era5"
)

const providerVersion = "v1"

// Cache namespaces.
const (
	nsAirRain = "air_rain"
	nsSea     = "sea_sst"
	nsWind    = "wind"
	nsWave    = "wave"
)

// ArchiveProvider serves daily max air temperature and precipitation from the
// Open-Meteo archive at the location's main coordinate.
type ArchiveProvider struct {
	backend *Backend
}

func NewArchiveProvider(b *Backend) *ArchiveProvider { return &ArchiveProvider{backend: b} }

func (p *ArchiveProvider) Name() string { return NameArchive }

func (p *ArchiveProvider) Fetch(ctx context.Context, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error) {
	vars := []string{domain.VarTempMax, domain.VarPrecip}
	return p.backend.fetchTable(ctx, nsAirRain,
		keyFor(NameArchive, loc.ID, loc.Coordinates(), period, vars),
		openmeteo.Request{API: openmeteo.Archive, Coords: loc.Coordinates(), Period: period, Variables: vars},
		refresh)
}

// MarineProvider serves daily sea surface temperature from the Open-Meteo
// marine API at the location's main coordinate.
type MarineProvider struct {
	backend *Backend
}

func NewMarineProvider(b *Backend) *MarineProvider { return &MarineProvider{backend: b} }

func (p *MarineProvider) Name() string { return NameMarine }

func (p *MarineProvider) Fetch(ctx context.Context, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error) {
	vars := []string{domain.VarSST}
	return p.backend.fetchTable(ctx, nsSea,
		keyFor(NameMarine, loc.ID, loc.Coordinates(), period, vars),
		openmeteo.Request{API: openmeteo.Marine, Coords: loc.Coordinates(), Period: period, Variables: vars},
		refresh)
}

// WindWaveProvider combines archive wind at the main coordinate with marine
// wave height at the wave point. The two tables are outer-joined on date.
type WindWaveProvider struct {
	backend *Backend
}

func NewWindWaveProvider(b *Backend) *WindWaveProvider { return &WindWaveProvider{backend: b} }

func (p *WindWaveProvider) Name() string { return NameWindWave }

func (p *WindWaveProvider) Fetch(ctx context.Context, loc domain.Location, period domain.Period, refresh bool) (domain.DailyTable, domain.SourceMeta, error) {
	windVars := []string{domain.VarWind}
	wind, windMeta, err := p.backend.fetchTable(ctx, nsWind,
		keyFor(NameArchive, loc.ID, loc.Coordinates(), period, windVars),
		openmeteo.Request{API: openmeteo.Archive, Coords: loc.Coordinates(), Period: period, Variables: windVars},
		refresh)
	if err != nil {
		return domain.DailyTable{}, domain.SourceMeta{}, err
	}

	wp := loc.WavePoint.Coordinates()
	waveVars := []string{domain.VarWave}
	wave, waveMeta, err := p.backend.fetchTable(ctx, nsWave,
		keyFor(NameMarine, loc.ID, wp, period, waveVars),
		openmeteo.Request{API: openmeteo.Marine, Coords: wp, Period: period, Variables: waveVars},
		refresh)
	if err != nil {
		return domain.DailyTable{}, domain.SourceMeta{}, err
	}

	meta := domain.NewSourceMeta(NameWindWave, providerVersion, period, loc.Coordinates())
	meta.Cached = windMeta.Cached && waveMeta.Cached
	meta.CacheFallback = windMeta.CacheFallback || waveMeta.CacheFallback
	meta.FallbackUsed = windMeta.FallbackUsed || waveMeta.FallbackUsed
	var errs []error
	for _, m := range []domain.SourceMeta{windMeta, waveMeta} {
		if m.Error != "" {
			errs = append(errs, errors.New(m.Error))
		}
	}
	if joined := errors.Join(errs...); joined != nil {
		meta.Error = joined.Error()
	}
	meta.Components = map[string]*domain.SourceMeta{
		"wind": &windMeta,
		"wave": &waveMeta,
	}
	return domain.OuterJoin(wind, wave), meta, nil
}

// ERA5Provider is a placeholder for the Copernicus reanalysis feed. It always
// fails so the orchestrator moves on to the next provider.
type ERA5Provider struct{}

func (ERA5Provider) Name() string { return NameERA5 }

func (ERA5Provider) Fetch(context.Context, domain.Location, domain.Period, bool) (domain.DailyTable, domain.SourceMeta, error) {
	return domain.DailyTable{}, domain.SourceMeta{}, errERA5
}

var errERA5 = &unavailableError{msg: "ERA5 provider requires credentials/configuration"}

type unavailableError struct{ msg string }

func (e *unavailableError) Error() string { return e.msg }

func (e *unavailableError) Unwrap() error { return ErrProviderUnavailable }

func keyFor(source, locationID string, coords domain.Coordinates, period domain.Period, vars []string) cache.Key {
	return cache.Key{
		Source:     source,
		Version:    providerVersion,
		LocationID: locationID,
		Coords:     coords,
		Period:     period,
		Variables:  vars,
	}
}
