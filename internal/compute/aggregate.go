// Package compute turns daily series into monthly statistics: means,
// coverage ratios, disclosure flags and rain-day counts.
package compute

import (
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

type yearMonth struct {
	year  int
	month time.Month
}

type bucket struct {
	sum   float64
	valid int
	seen  map[int]bool // days of month with a valid value
}

// MonthlyMeanFromDaily aggregates a daily series into twelve calendar-month
// statistics.
//
// Each (year, month) gets the mean of its valid values and a coverage ratio
// of valid days over calendar days. When years is non-nil every (year, month)
// in the range counts, so a month with no data at all lowers coverage instead
// of disappearing; values outside the range are ignored. When years is nil the
// range is inferred from the data.
//
// The calendar-month mean is the mean of the per-year means that exist, and
// the calendar-month coverage is the mean of all per-year coverages.
func MonthlyMeanFromDaily(series domain.Series, minCoverage float64, years *domain.YearRange) domain.MonthlyStats {
	buckets := make(map[yearMonth]*bucket)
	minYear, maxYear := 0, -1
	for _, obs := range series {
		y := obs.Date.Year()
		if maxYear < minYear {
			minYear, maxYear = y, y
		} else {
			minYear, maxYear = min(minYear, y), max(maxYear, y)
		}
		if !obs.Value.Valid {
			continue
		}
		if years != nil && (y < years.Start || y > years.End) {
			continue
		}
		key := yearMonth{y, obs.Date.Month()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{seen: make(map[int]bool)}
			buckets[key] = b
		}
		if b.seen[obs.Date.Day()] {
			continue
		}
		b.seen[obs.Date.Day()] = true
		b.sum += obs.Value.Float64
		b.valid++
	}

	rng := domain.YearRange{Start: minYear, End: maxYear}
	if years != nil {
		rng = *years
	}

	stats := domain.EmptyMonthlyStats()
	for i := range stats {
		month := time.Month(i + 1)
		var meanSum, covSum float64
		var meanN, covN int
		for y := rng.Start; y <= rng.End; y++ {
			covN++
			b, ok := buckets[yearMonth{y, month}]
			if !ok || b.valid == 0 {
				continue
			}
			covSum += min(1, float64(b.valid)/float64(domain.DaysIn(y, month)))
			meanSum += b.sum / float64(b.valid)
			meanN++
		}
		if covN > 0 {
			stats[i].Coverage = covSum / float64(covN)
		}
		if meanN > 0 {
			stats[i].Mean = domain.Some(meanSum / float64(meanN))
		}
		stats[i].CoverageOK = covN > 0 && stats[i].Coverage >= minCoverage
	}
	return stats
}
