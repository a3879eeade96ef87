package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/score"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Study configuration file names inside the config directory.
const (
	LocationsFile = "locations.yaml"
	ParamsFile    = "params.yaml"
	SourcesFile   = "sources.yaml"
)

// EnvPrefix marks environment variables that override study settings.
// A double underscore separates nesting levels:
// COMFORT_COVERAGE__MIN_COVERAGE=0.8 sets coverage.min_coverage.
const EnvPrefix = "COMFORT_"

// StudyFile is the merged content of the study YAML files.
type StudyFile struct {
	Locations  []LocationConfig `koanf:"locations" validate:"required,min=1,unique=ID,dive"`
	Score      ScoreConfig      `koanf:"score"`
	Thresholds ThresholdsConfig `koanf:"thresholds"`
	Period     PeriodConfig     `koanf:"period"`
	Coverage   CoverageConfig   `koanf:"coverage"`
	Cache      CacheConfig      `koanf:"cache"`
	Fallbacks  FallbacksConfig  `koanf:"fallbacks"`
	Providers  ProvidersConfig  `koanf:"providers"`
}

type LocationConfig struct {
	ID        string           `koanf:"location_id" validate:"required,excludes=:"`
	Country   string           `koanf:"country" validate:"required"`
	Resort    string           `koanf:"resort" validate:"required"`
	Area      string           `koanf:"area"`
	Lat       float64          `koanf:"lat" validate:"latitude"`
	Lon       float64          `koanf:"lon" validate:"longitude"`
	WavePoint *WavePointConfig `koanf:"wave_point"`
	Timezone  string           `koanf:"timezone" validate:"omitempty,timezone"`
	Tags      []string         `koanf:"tags"`
	Notes     string           `koanf:"notes"`
}

// WavePointConfig fields are optional. Missing coordinates fall back to the
// location's own coordinates and a missing mode to "offshore".
type WavePointConfig struct {
	Mode string   `koanf:"mode" validate:"omitempty,oneof=offshore nearshore onshore"`
	Lat  *float64 `koanf:"lat" validate:"omitempty,latitude"`
	Lon  *float64 `koanf:"lon" validate:"omitempty,longitude"`
}

type ScoreConfig struct {
	ClampMin float64 `koanf:"clamp_min"`
	ClampMax float64 `koanf:"clamp_max" validate:"gtfield=ClampMin"`
	Rounding float64 `koanf:"rounding" validate:"gte=0"`
}

type ThresholdsConfig struct {
	S0          float64 `koanf:"s0"`
	S4          float64 `koanf:"s4" validate:"gtfield=S0"`
	ColdAirT    float64 `koanf:"cold_air_t"`
	HeatAirT    float64 `koanf:"heat_air_t" validate:"gtfield=ColdAirT"`
	AirSlope    float64 `koanf:"air_slope" validate:"gte=0"`
	BreezeW0    float64 `koanf:"breeze_w0" validate:"gte=0"`
	BreezeW1    float64 `koanf:"breeze_w1" validate:"gtfield=BreezeW0"`
	BreezeRamp  float64 `koanf:"breeze_ramp" validate:"gte=0"`
	WarmSpan    float64 `koanf:"warm_span" validate:"gte=0"`
	WindColdT   float64 `koanf:"wind_cold_t" validate:"gte=0"`
	RainT1      float64 `koanf:"rain_t1" validate:"gte=0"`
	RainT2      float64 `koanf:"rain_t2" validate:"gtfield=RainT1"`
	CalmWindT   float64 `koanf:"calm_wind_t" validate:"gte=0"`
	BreathAirT  float64 `koanf:"breath_air_t"`
	BreathRainT float64 `koanf:"breath_rain_t" validate:"gte=0"`
	BreathWindT float64 `koanf:"breath_wind_t" validate:"gte=0"`
	StrongWindT float64 `koanf:"strong_wind_t" validate:"gt=0"`
	WaveT1      float64 `koanf:"wave_t1" validate:"gte=0"`
	WaveT2      float64 `koanf:"wave_t2" validate:"gtfield=WaveT1"`
	WaveT3      float64 `koanf:"wave_t3" validate:"gtfield=WaveT2"`
}

type PeriodConfig struct {
	StartYear int `koanf:"start_year" validate:"gte=1940"`
	EndYear   int `koanf:"end_year" validate:"gtefield=StartYear"`
}

type CoverageConfig struct {
	MinCoverage float64 `koanf:"min_coverage" validate:"gte=0,lte=1"`
}

type CacheConfig struct {
	TTLDays int `koanf:"ttl_days" validate:"gte=0"`
}

type FallbacksConfig struct {
	AllowEstimatedRainDays bool    `koanf:"allow_estimated_rain_days"`
	AllowLastResort        bool    `koanf:"allow_last_resort"`
	MMPerRainDay           float64 `koanf:"mm_per_rain_day" validate:"gt=0"`
}

type ProvidersConfig struct {
	AirRain  []string `koanf:"air_rain" validate:"required,min=1,dive,required"`
	Sea      []string `koanf:"sea" validate:"required,min=1,dive,required"`
	WindWave []string `koanf:"wind_wave" validate:"required,min=1,dive,required"`

	// RainTotals is an optional air_rain chain used only to backfill
	// undefined rain-day months when estimates are allowed.
	RainTotals []string `koanf:"rain_totals" validate:"omitempty,dive,required"`
}

// providerPaths may be given as comma-separated strings in the environment.
var providerPaths = []string{"providers.air_rain", "providers.sea", "providers.wind_wave", "providers.rain_totals"}

func defaultStudy() StudyFile {
	return StudyFile{
		Score: ScoreConfig{ClampMin: 0, ClampMax: 100, Rounding: 0.1},
		Thresholds: ThresholdsConfig{
			S0:          20,
			S4:          30,
			ColdAirT:    22,
			HeatAirT:    33,
			AirSlope:    0.5,
			BreezeW0:    2,
			BreezeW1:    6,
			BreezeRamp:  2,
			WarmSpan:    3,
			WindColdT:   8,
			RainT1:      5,
			RainT2:      15,
			CalmWindT:   2,
			BreathAirT:  30,
			BreathRainT: 12,
			BreathWindT: 3,
			StrongWindT: 10,
			WaveT1:      0.5,
			WaveT2:      1.2,
			WaveT3:      2.0,
		},
		Period:   PeriodConfig{StartYear: 2015, EndYear: 2024},
		Coverage: CoverageConfig{MinCoverage: 0.7},
		Cache:    CacheConfig{TTLDays: 30},
		Fallbacks: FallbacksConfig{
			AllowEstimatedRainDays: true,
			AllowLastResort:        true,
			MMPerRainDay:           8,
		},
		Providers: ProvidersConfig{
			AirRain:  []string{"open_meteo_archive"},
			Sea:      []string{"open_meteo_marine"},
			WindWave: []string{"open_meteo"},
		},
	}
}

// ParseStudy layers built-in defaults, the YAML files in dir and COMFORT_
// environment overrides. The locations file is required; the other two are
// optional.
func ParseStudy(dir string) (*StudyFile, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultStudy(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	for _, name := range []string{LocationsFile, ParamsFile, SourcesFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) && name != LocationsFile {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment overrides: %w", err)
	}
	if err := splitProviderLists(k); err != nil {
		return nil, err
	}

	var f StudyFile
	if err := k.Unmarshal("", &f); err != nil {
		return nil, fmt.Errorf("decode study config: %w", err)
	}
	return &f, nil
}

// envKey maps COMFORT_PERIOD__START_YEAR to period.start_year.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func splitProviderLists(k *koanf.Koanf) error {
	for _, path := range providerPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var names []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				names = append(names, p)
			}
		}
		if err := k.Set(path, names); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks field ranges and cross-field ordering. Every violation is
// reported, one per line.
func (f *StudyFile) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate study config: %w", err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: %s", strings.TrimPrefix(fe.Namespace(), "StudyFile."), describe(fe)))
	}
	return errors.Join(msgs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "unique":
		return "must not repeat " + fe.Param()
	case "excludes":
		return fmt.Sprintf("must not contain %q (got %v)", fe.Param(), fe.Value())
	case "gtfield":
		return "must be greater than " + fe.Param()
	case "gtefield":
		return "must not be less than " + fe.Param()
	case "gt", "gte", "lte", "min":
		return fmt.Sprintf("must satisfy %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("failed %s validation (got %v)", fe.Tag(), fe.Value())
}

// Study is the validated, immutable input of a run.
type Study struct {
	Locations              []domain.Location
	Score                  score.Params
	Period                 domain.Period
	MinCoverage            float64
	CacheTTL               time.Duration
	AllowEstimatedRainDays bool
	AllowLastResort        bool
	MMPerRainDay           float64
	Providers              map[domain.SourceKind][]string
	RainTotalsProviders    []string
}

// Study converts the file form into run inputs, applying location defaults.
func (f *StudyFile) Study() Study {
	locs := make([]domain.Location, 0, len(f.Locations))
	for _, lc := range f.Locations {
		locs = append(locs, lc.location())
	}
	t := f.Thresholds
	return Study{
		Locations: locs,
		Score: score.Params{
			Thresholds: score.Thresholds{
				S0:          t.S0,
				S4:          t.S4,
				ColdAirT:    t.ColdAirT,
				HeatAirT:    t.HeatAirT,
				AirSlope:    t.AirSlope,
				BreezeW0:    t.BreezeW0,
				BreezeW1:    t.BreezeW1,
				BreezeRamp:  t.BreezeRamp,
				WarmSpan:    t.WarmSpan,
				WindColdT:   t.WindColdT,
				RainT1:      t.RainT1,
				RainT2:      t.RainT2,
				CalmWindT:   t.CalmWindT,
				BreathAirT:  t.BreathAirT,
				BreathRainT: t.BreathRainT,
				BreathWindT: t.BreathWindT,
				StrongWindT: t.StrongWindT,
				WaveT1:      t.WaveT1,
				WaveT2:      t.WaveT2,
				WaveT3:      t.WaveT3,
			},
			ClampMin: f.Score.ClampMin,
			ClampMax: f.Score.ClampMax,
			Rounding: f.Score.Rounding,
		},
		Period:                 domain.PeriodForYears(f.Period.StartYear, f.Period.EndYear),
		MinCoverage:            f.Coverage.MinCoverage,
		CacheTTL:               time.Duration(f.Cache.TTLDays) * 24 * time.Hour,
		AllowEstimatedRainDays: f.Fallbacks.AllowEstimatedRainDays,
		AllowLastResort:        f.Fallbacks.AllowLastResort,
		MMPerRainDay:           f.Fallbacks.MMPerRainDay,
		Providers: map[domain.SourceKind][]string{
			domain.KindAirRain:  f.Providers.AirRain,
			domain.KindSea:      f.Providers.Sea,
			domain.KindWindWave: f.Providers.WindWave,
		},
		RainTotalsProviders: f.Providers.RainTotals,
	}
}

func (lc LocationConfig) location() domain.Location {
	wp := domain.WavePoint{Mode: "offshore", Lat: lc.Lat, Lon: lc.Lon}
	if lc.WavePoint != nil {
		if lc.WavePoint.Mode != "" {
			wp.Mode = lc.WavePoint.Mode
		}
		if lc.WavePoint.Lat != nil {
			wp.Lat = *lc.WavePoint.Lat
		}
		if lc.WavePoint.Lon != nil {
			wp.Lon = *lc.WavePoint.Lon
		}
	}
	tz := lc.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return domain.Location{
		ID:        lc.ID,
		Country:   lc.Country,
		Resort:    lc.Resort,
		Area:      lc.Area,
		Lat:       lc.Lat,
		Lon:       lc.Lon,
		WavePoint: wp,
		Timezone:  tz,
		Tags:      lc.Tags,
		Notes:     lc.Notes,
	}
}

// LoadStudy parses and validates the study configuration in dir.
func LoadStudy(dir string) (Study, error) {
	f, err := ParseStudy(dir)
	if err != nil {
		return Study{}, err
	}
	if err := f.Validate(); err != nil {
		return Study{}, fmt.Errorf("invalid study config: %w", err)
	}
	return f.Study(), nil
}
