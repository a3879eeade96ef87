package domain

import "time"

// DateLayout is the ISO date format used in provider requests and provenance.
const DateLayout = "2006-01-02"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WavePoint is the coordinate used for wave data, tagged with how it relates
// to the shore.
type WavePoint struct {
	Mode string  `json:"mode"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Coordinates returns the wave point's lat/lon pair.
func (w WavePoint) Coordinates() Coordinates {
	return Coordinates{Lat: w.Lat, Lon: w.Lon}
}

// Location is a resort whose climate is being summarized. Loaded once per run
// and never modified.
type Location struct {
	ID        string    `json:"location_id"`
	Country   string    `json:"country"`
	Resort    string    `json:"resort"`
	Area      string    `json:"area"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	WavePoint WavePoint `json:"wave_point"`
	Timezone  string    `json:"timezone,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Coordinates returns the primary coordinate.
func (l Location) Coordinates() Coordinates {
	return Coordinates{Lat: l.Lat, Lon: l.Lon}
}

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodForYears covers January 1 of startYear through December 31 of endYear.
func PeriodForYears(startYear, endYear int) Period {
	return Period{
		Start: time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Years returns the calendar years touched by the period.
func (p Period) Years() YearRange {
	return YearRange{Start: p.Start.Year(), End: p.End.Year()}
}

// Range returns the period as ISO start/end strings.
func (p Period) Range() DateRange {
	return DateRange{Start: p.Start.Format(DateLayout), End: p.End.Format(DateLayout)}
}

// DateRange is the serialized form of a Period.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	Start int
	End   int
}

// Len returns the number of years in the range, or 0 if it is inverted.
func (y YearRange) Len() int {
	if y.End < y.Start {
		return 0
	}
	return y.End - y.Start + 1
}

// DaysIn returns the number of days in the given month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
