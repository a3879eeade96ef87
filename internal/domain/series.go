package domain

import (
	"sort"
	"time"
)

// Daily variable names as requested from Open-Meteo.
const (
	VarTempMax = "temperature_2m_max"
	VarPrecip  = "precipitation_sum"
	VarSST     = "sea_surface_temperature"
	VarWind    = "wind_speed_10m_mean"
	VarWave    = "wave_height_mean"
)

// Observation is one day's value of a single quantity.
type Observation struct {
	Date  time.Time
	Value NullFloat
}

// Series is a date-ordered daily series of one physical quantity.
type Series []Observation

// DailyTable holds one or more daily variables sharing a date axis. Every
// column has exactly len(Dates) entries.
type DailyTable struct {
	Dates   []time.Time
	Columns map[string][]NullFloat
}

// NewDailyTable builds a table, padding or truncating columns to the date axis.
func NewDailyTable(dates []time.Time, columns map[string][]NullFloat) DailyTable {
	cols := make(map[string][]NullFloat, len(columns))
	for name, values := range columns {
		col := make([]NullFloat, len(dates))
		copy(col, values)
		cols[name] = col
	}
	return DailyTable{Dates: dates, Columns: cols}
}

// Len returns the number of days in the table.
func (t DailyTable) Len() int { return len(t.Dates) }

// Series extracts one column. An unknown column yields all-missing values on
// the table's date axis.
func (t DailyTable) Series(name string) Series {
	col := t.Columns[name]
	out := make(Series, len(t.Dates))
	for i, d := range t.Dates {
		out[i] = Observation{Date: d}
		if i < len(col) {
			out[i].Value = col[i]
		}
	}
	return out
}

// OuterJoin merges two tables on date. Dates present in only one table get
// missing values for the other table's columns. The result is date-ordered.
// When a date repeats within a table its last value wins.
func OuterJoin(a, b DailyTable) DailyTable {
	index := make(map[time.Time]int)
	var dates []time.Time
	for _, t := range []DailyTable{a, b} {
		for _, d := range t.Dates {
			if _, ok := index[d]; !ok {
				index[d] = len(dates)
				dates = append(dates, d)
			}
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for i, d := range dates {
		index[d] = i
	}

	columns := make(map[string][]NullFloat)
	for _, t := range []DailyTable{a, b} {
		for name, values := range t.Columns {
			col, ok := columns[name]
			if !ok {
				col = make([]NullFloat, len(dates))
				columns[name] = col
			}
			for i, d := range t.Dates {
				if i < len(values) {
					col[index[d]] = values[i]
				}
			}
		}
	}
	return DailyTable{Dates: dates, Columns: columns}
}
