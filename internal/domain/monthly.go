package domain

import "time"

// Metric names one of the five physical quantities in a monthly row.
type Metric string

const (
	MetricAir  Metric = "air"
	MetricSea  Metric = "sea"
	MetricRain Metric = "rain"
	MetricWind Metric = "wind"
	MetricWave Metric = "wave"
)

// Metrics lists every metric in column order.
var Metrics = []Metric{MetricAir, MetricSea, MetricRain, MetricWind, MetricWave}

// MonthStat is the aggregate of one calendar month across all years.
type MonthStat struct {
	Month      int       `json:"month"`
	Mean       NullFloat `json:"mean"`
	Coverage   float64   `json:"coverage"`
	CoverageOK bool      `json:"coverage_ok"`
}

// MonthlyStats is indexed by month-1.
type MonthlyStats [12]MonthStat

// EmptyMonthlyStats returns twelve months with no data.
func EmptyMonthlyStats() MonthlyStats {
	var s MonthlyStats
	for i := range s {
		s[i].Month = i + 1
	}
	return s
}

// CoverageMap returns month → coverage ratio.
func (s MonthlyStats) CoverageMap() map[int]float64 {
	out := make(map[int]float64, 12)
	for _, m := range s {
		out[m.Month] = m.Coverage
	}
	return out
}

// FlaggedValue is a monthly value with its disclosure flag.
type FlaggedValue struct {
	Value     NullFloat `json:"value"`
	Flag      bool      `json:"flag"`
	Estimated bool      `json:"estimated,omitempty"`
}

// ScoreComponents is the full breakdown of a comfort score.
type ScoreComponents struct {
	SeaBase       float64 `json:"SeaBase"`
	AirAdj        float64 `json:"AirAdj"`
	Breeze        float64 `json:"Breeze"`
	WarmForBreeze float64 `json:"WarmForBreeze"`
	BreezeBonus   float64 `json:"BreezeBonus"`
	Cold          float64 `json:"Cold"`
	WindExCold    float64 `json:"WindExCold"`
	WetPen        float64 `json:"WetPen"`
	RainPen       float64 `json:"RainPen"`
	HeatPen       float64 `json:"HeatPen"`
	BreathPen     float64 `json:"BreathPen"`
	StrongWindPen float64 `json:"StrongWindPen"`
	WavePen       float64 `json:"WavePen"`
	ScoreRaw      float64 `json:"Score_raw"`
	Score         float64 `json:"Score"`
	ComfortScore  float64 `json:"ComfortScore"`
	// Incomplete is set when at least one input was missing and its terms
	// were skipped.
	Incomplete bool `json:"incomplete,omitempty"`
}

// NamedValue is one entry of an ordered component listing.
type NamedValue struct {
	Name  string
	Value float64
}

// Components returns every bonus followed by every penalty, in display
// order.
func (c ScoreComponents) Components() []NamedValue {
	return append(c.Bonuses(), c.Penalties()...)
}

// Bonuses returns the additive components in display order.
func (c ScoreComponents) Bonuses() []NamedValue {
	return []NamedValue{
		{"SeaBase", c.SeaBase},
		{"AirAdj", c.AirAdj},
		{"Breeze", c.Breeze},
		{"WarmForBreeze", c.WarmForBreeze},
		{"BreezeBonus", c.BreezeBonus},
	}
}

// Penalties returns the subtracted components in display order.
func (c ScoreComponents) Penalties() []NamedValue {
	return []NamedValue{
		{"Cold", c.Cold},
		{"WindExCold", c.WindExCold},
		{"WetPen", c.WetPen},
		{"RainPen", c.RainPen},
		{"HeatPen", c.HeatPen},
		{"BreathPen", c.BreathPen},
		{"StrongWindPen", c.StrongWindPen},
		{"WavePen", c.WavePen},
	}
}

// MonthlyRow is one month of the output table.
type MonthlyRow struct {
	LocationID     string          `json:"location_id"`
	Country        string          `json:"country"`
	Resort         string          `json:"resort"`
	Area           string          `json:"area"`
	Month          int             `json:"month"`
	AirTemp        FlaggedValue    `json:"air_temp_c"`
	SeaTemp        FlaggedValue    `json:"sea_temp_c"`
	RainDays       FlaggedValue    `json:"rain_days"`
	Wind           FlaggedValue    `json:"wind_ms"`
	Wave           FlaggedValue    `json:"wave_hs_m"`
	Components     ScoreComponents `json:"components"`
	SourcesSummary string          `json:"sources_summary"`
}

// Metric returns the flagged value for m.
func (r MonthlyRow) Metric(m Metric) FlaggedValue {
	switch m {
	case MetricAir:
		return r.AirTemp
	case MetricSea:
		return r.SeaTemp
	case MetricRain:
		return r.RainDays
	case MetricWind:
		return r.Wind
	case MetricWave:
		return r.Wave
	}
	return FlaggedValue{}
}

// Mark discloses why a monthly value is low-confidence.
type Mark struct {
	Metric Metric `json:"metric"`
	Reason string `json:"reason"`
}

// Mark reasons. Low coverage reasons carry the threshold as a suffix.
const (
	ReasonEstimatedFromTotal = "estimated_from_total"
	ReasonMissingValue       = "missing_value"
	ReasonCoverageBelow      = "coverage_below_"
)

// SourcesMeta groups the per-kind source metadata.
type SourcesMeta struct {
	AirRain  SourceMeta `json:"air_rain"`
	Sea      SourceMeta `json:"sea"`
	WindWave SourceMeta `json:"wind_wave"`
}

// ProvenanceCoordinates records where each kind of data was sampled.
type ProvenanceCoordinates struct {
	Air  Coordinates `json:"air"`
	Wave WavePoint   `json:"wave"`
}

// Provenance documents how a location's table was produced.
type Provenance struct {
	LocationID  string                     `json:"location_id"`
	Period      DateRange                  `json:"period"`
	Sources     SourcesMeta                `json:"sources"`
	Coordinates ProvenanceCoordinates      `json:"coordinates"`
	Coverage    map[Metric]map[int]float64 `json:"coverage"`
	Marks       map[int][]Mark             `json:"marks"`
	GeneratedAt time.Time                  `json:"generated_at"`
}
