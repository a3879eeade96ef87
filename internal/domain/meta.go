package domain

// SourceKind identifies one of the three data feeds a table is built from.
type SourceKind string

const (
	KindAirRain  SourceKind = "air_rain"
	KindSea      SourceKind = "sea"
	KindWindWave SourceKind = "wind_wave"
)

// Kinds lists every source kind in pipeline order.
var Kinds = []SourceKind{KindAirRain, KindSea, KindWindWave}

// PeriodMeta records the requested date range next to the range actually
// served.
type PeriodMeta struct {
	Requested DateRange `json:"requested"`
	Actual    DateRange `json:"actual"`
}

// FallbackAttempt is one provider that failed before a later one succeeded.
type FallbackAttempt struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// SourceMeta describes where one source kind's daily data came from.
type SourceMeta struct {
	Source           string                 `json:"source"`
	Version          string                 `json:"version"`
	Period           PeriodMeta             `json:"period"`
	Coordinates      Coordinates            `json:"coordinates"`
	Cached           bool                   `json:"cached"`
	CacheFallback    bool                   `json:"cache_fallback"`
	FallbackUsed     bool                   `json:"fallback_used"`
	FallbackProvider string                 `json:"fallback_provider,omitempty"`
	FallbacksTried   []FallbackAttempt      `json:"fallbacks_tried,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Coverage         map[int]float64        `json:"coverage,omitempty"`
	Components       map[string]*SourceMeta `json:"components,omitempty"`
}

// NewSourceMeta fills the fields every provider reports identically.
func NewSourceMeta(source, version string, period Period, coords Coordinates) SourceMeta {
	r := period.Range()
	return SourceMeta{
		Source:      source,
		Version:     version,
		Period:      PeriodMeta{Requested: r, Actual: r},
		Coordinates: coords,
	}
}
