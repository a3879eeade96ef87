// Package score computes the monthly comfort score.
//
// Every component is a linear or piecewise-linear function of one or more of
// the five monthly inputs and a named threshold. The score is the sum of the
// bonuses minus the penalties, clamped to [ClampMin, ClampMax] and rounded to
// Rounding.
//
// A missing input never makes the score missing. Each term that depends on a
// missing input contributes 0, which is the point where the term stops
// penalizing, and the result is marked Incomplete so the row can be disclosed.
package score

import (
	"math"
	"sort"
	"strconv"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// Fixed weights of the penalty terms.
const (
	coldWeight       = 2.0
	windColdWeight   = 1.5
	wetWeight        = 0.5
	heatWeight       = 1.5
	strongWindWeight = 1.5
	breathPenalty    = 10.0
	maxRainPen       = 20.0
	maxWavePen       = 15.0
	midWavePen       = 7.5
	maxBreeze        = 5.0
	maxWarmForBreeze = 5.0
)

// Thresholds are the named breakpoints of the score. AirSlope, WarmSpan and
// WindColdT are optional: a zero value disables the term they drive.
type Thresholds struct {
	S0 float64 // sea temperature scoring 0
	S4 float64 // sea temperature scoring 100

	ColdAirT float64
	HeatAirT float64
	AirSlope float64 // points per °C outside [ColdAirT, HeatAirT]

	BreezeW0   float64
	BreezeW1   float64
	BreezeRamp float64
	WarmSpan   float64 // °C above HeatAirT over which a breeze is worth up to 5 points
	WindColdT  float64 // wind above which cold air is penalized further

	RainT1 float64
	RainT2 float64

	CalmWindT float64

	BreathAirT  float64
	BreathRainT float64
	BreathWindT float64

	StrongWindT float64

	WaveT1 float64
	WaveT2 float64
	WaveT3 float64
}

// Params is the full scorer configuration.
type Params struct {
	Thresholds Thresholds
	ClampMin   float64
	ClampMax   float64
	// Rounding is the step ComfortScore is rounded to. Zero disables rounding.
	Rounding float64
}

// Inputs are one month's metrics.
type Inputs struct {
	AirC     domain.NullFloat
	SeaC     domain.NullFloat
	RainDays domain.NullFloat
	WindMS   domain.NullFloat
	WaveHsM  domain.NullFloat
}

// Values builds Inputs from plain numbers.
func Values(air, sea, rainDays, wind, wave float64) Inputs {
	return Inputs{
		AirC:     domain.Some(air),
		SeaC:     domain.Some(sea),
		RainDays: domain.Some(rainDays),
		WindMS:   domain.Some(wind),
		WaveHsM:  domain.Some(wave),
	}
}

// Compute scores one month and returns every component.
func Compute(in Inputs, p Params) domain.ScoreComponents {
	t := p.Thresholds
	air, hasAir := in.AirC.Float64, in.AirC.Valid
	sea, hasSea := in.SeaC.Float64, in.SeaC.Valid
	rain, hasRain := in.RainDays.Float64, in.RainDays.Valid
	wind, hasWind := in.WindMS.Float64, in.WindMS.Valid
	wave, hasWave := in.WaveHsM.Float64, in.WaveHsM.Valid

	var c domain.ScoreComponents
	c.Incomplete = !(hasAir && hasSea && hasRain && hasWind && hasWave)

	if hasSea {
		c.SeaBase = clamp(interp(sea, t.S0, t.S4, 0, 100), 0, 100)
	}

	if hasAir {
		switch {
		case air < t.ColdAirT:
			c.AirAdj = -(t.ColdAirT - air) * t.AirSlope
			c.Cold = (t.ColdAirT - air) * coldWeight
		case air > t.HeatAirT:
			c.AirAdj = -(air - t.HeatAirT) * t.AirSlope
			if t.WarmSpan > 0 {
				c.WarmForBreeze = interp(air, t.HeatAirT, t.HeatAirT+t.WarmSpan, 0, maxWarmForBreeze)
			}
		}
	}

	if hasWind {
		c.Breeze = interp(wind, 0, t.BreezeW0, 0, maxBreeze)
		if t.BreezeW0 < wind && wind < t.BreezeW1 {
			c.BreezeBonus = (wind - t.BreezeW0) * t.BreezeRamp
		}
		if wind > t.StrongWindT {
			c.StrongWindPen = (wind - t.StrongWindT) * strongWindWeight
		}
	}

	if hasAir && hasWind {
		if air < t.ColdAirT && t.WindColdT > 0 && wind > t.WindColdT {
			c.WindExCold = (wind - t.WindColdT) * windColdWeight
		}
		if air > t.HeatAirT && wind < t.CalmWindT {
			c.HeatPen = (air - t.HeatAirT) * heatWeight
		}
	}

	if hasRain {
		c.RainPen = clamp(interp(rain, t.RainT1, t.RainT2, 0, maxRainPen), 0, maxRainPen)
		if rain > t.RainT2 {
			c.WetPen = (rain - t.RainT2) * wetWeight
		}
	}

	if hasAir && hasRain && hasWind &&
		air > t.BreathAirT && rain > t.BreathRainT && wind < t.BreathWindT {
		c.BreathPen = breathPenalty
	}

	if hasWave {
		c.WavePen = wavePenalty(wave, t)
	}

	c.ScoreRaw = c.SeaBase + c.AirAdj + c.Breeze + c.WarmForBreeze + c.BreezeBonus -
		c.Cold - c.WindExCold - c.WetPen - c.RainPen - c.HeatPen -
		c.BreathPen - c.StrongWindPen - c.WavePen
	c.Score = clamp(c.ScoreRaw, p.ClampMin, p.ClampMax)
	c.ComfortScore = Round(c.Score, p.Rounding)
	return c
}

func wavePenalty(wave float64, t Thresholds) float64 {
	if wave <= t.WaveT1 {
		return 0
	}
	var pen float64
	if wave <= t.WaveT2 {
		pen = interp(wave, t.WaveT1, t.WaveT2, 0, midWavePen)
	} else {
		pen = interp(wave, t.WaveT2, t.WaveT3, midWavePen, maxWavePen)
	}
	return clamp(pen, 0, maxWavePen)
}

// Round rounds v to the nearest multiple of step. A non-positive step
// returns v unchanged.
func Round(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	r := math.Round(v/step) * step
	// Drop representation noise such as 73.80000000000001.
	if clean, err := strconv.ParseFloat(strconv.FormatFloat(r, 'g', 12, 64), 64); err == nil {
		return clean
	}
	return r
}

// TopPenalties returns up to n non-zero penalties, largest first.
func TopPenalties(c domain.ScoreComponents, n int) []domain.NamedValue {
	var out []domain.NamedValue
	for _, p := range c.Penalties() {
		if p.Value > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// interp maps x linearly from [x0, x1] onto [y0, y1], holding the end values
// outside the interval.
func interp(x, x0, x1, y0, y1 float64) float64 {
	if x <= x0 {
		return y0
	}
	if x >= x1 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
