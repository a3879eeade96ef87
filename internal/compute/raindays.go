package compute

import (
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// RainDayThresholdMM is the daily precipitation that counts as a rain day.
const RainDayThresholdMM = 1.0

// RainDayOptions controls the secondary estimation path.
type RainDayOptions struct {
	// AllowEstimated enables backfilling months the indicator path left
	// undefined from precipitation totals.
	AllowEstimated bool
	// MMPerRainDay converts a monthly precipitation total into a day count.
	MMPerRainDay float64
	// Totals is the precipitation series the estimate is computed from. It
	// defaults to the daily series itself; a coarser secondary feed (for
	// example one value per month holding the month's total) can fill months
	// the daily feed has no data for.
	Totals domain.Series
}

// RainDays is the monthly rain-day result. Stats holds counts, not rates.
type RainDays struct {
	Stats     domain.MonthlyStats
	Estimated [12]bool
}

// RainIndicator maps each day to 1 when precipitation reached thresholdMM and
// 0 otherwise. Missing days stay missing.
func RainIndicator(precip domain.Series, thresholdMM float64) domain.Series {
	out := make(domain.Series, len(precip))
	for i, obs := range precip {
		out[i] = domain.Observation{Date: obs.Date}
		if obs.Value.Valid {
			v := 0.0
			if obs.Value.Float64 >= thresholdMM {
				v = 1
			}
			out[i].Value = domain.Some(v)
		}
	}
	return out
}

// AverageDaysPerMonth returns the mean number of calendar days of each month
// over the year range. An empty range falls back to a non-leap year.
func AverageDaysPerMonth(years domain.YearRange) [12]float64 {
	var out [12]float64
	n := years.Len()
	for i := range out {
		month := time.Month(i + 1)
		if n == 0 {
			out[i] = float64(domain.DaysIn(2001, month))
			continue
		}
		total := 0
		for y := years.Start; y <= years.End; y++ {
			total += domain.DaysIn(y, month)
		}
		out[i] = float64(total) / float64(n)
	}
	return out
}

// EstimateRainDays derives monthly rain-day counts from daily precipitation.
//
// The primary path aggregates the rain-day indicator like any other metric
// and scales the monthly rate by the average month length. If opts allows it,
// months the primary path could not produce are filled from the mean monthly
// precipitation total divided by opts.MMPerRainDay. Filled months are marked
// estimated with CoverageOK false. Months with a primary value are never
// overwritten.
func EstimateRainDays(precip domain.Series, minCoverage float64, years domain.YearRange, opts RainDayOptions) RainDays {
	rate := MonthlyMeanFromDaily(RainIndicator(precip, RainDayThresholdMM), minCoverage, &years)
	days := AverageDaysPerMonth(years)

	var res RainDays
	res.Stats = rate
	for i := range res.Stats {
		res.Stats[i].Mean = rate[i].Mean.Map(func(r float64) float64 { return r * days[i] })
	}

	if !opts.AllowEstimated || opts.MMPerRainDay <= 0 {
		return res
	}

	var totals [12]domain.NullFloat
	filled := false
	for i := range res.Stats {
		if res.Stats[i].Mean.Valid {
			continue
		}
		if !filled {
			src := opts.Totals
			if src == nil {
				src = precip
			}
			totals = monthlyTotals(src, years)
			filled = true
		}
		if !totals[i].Valid {
			continue
		}
		res.Stats[i].Mean = domain.Some(totals[i].Float64 / opts.MMPerRainDay)
		res.Stats[i].CoverageOK = false
		res.Estimated[i] = true
	}
	return res
}

// monthlyTotals sums valid precipitation per (year, month) within the range,
// then averages those totals per calendar month over the years that had any
// valid day.
func monthlyTotals(precip domain.Series, years domain.YearRange) [12]domain.NullFloat {
	sums := make(map[yearMonth]float64)
	for _, obs := range precip {
		y := obs.Date.Year()
		if !obs.Value.Valid || y < years.Start || y > years.End {
			continue
		}
		sums[yearMonth{y, obs.Date.Month()}] += obs.Value.Float64
	}

	// Years are summed in order so the result does not depend on map
	// iteration order.
	var acc [12]struct {
		sum float64
		n   int
	}
	for i := range acc {
		for y := years.Start; y <= years.End; y++ {
			total, ok := sums[yearMonth{y, time.Month(i + 1)}]
			if !ok {
				continue
			}
			acc[i].sum += total
			acc[i].n++
		}
	}

	var out [12]domain.NullFloat
	for i, a := range acc {
		if a.n > 0 {
			out[i] = domain.Some(a.sum / float64(a.n))
		}
	}
	return out
}
