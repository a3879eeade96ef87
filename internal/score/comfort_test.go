package score

import (
	"testing"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceParams() Params {
	return Params{
		Thresholds: Thresholds{
			S0:          20,
			S4:          30,
			ColdAirT:    22,
			HeatAirT:    33,
			BreezeW0:    2,
			BreezeW1:    6,
			BreezeRamp:  2,
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
		ClampMin: 0,
		ClampMax: 100,
		Rounding: 0.1,
	}
}

func TestCompute_HeavyPenaltiesSaturateFloor(t *testing.T) {
	c := Compute(Values(10, 5, 30, 20, 4), referenceParams())

	assert.Equal(t, 0.0, c.Score)
	assert.Equal(t, 0.0, c.ComfortScore)
	assert.Less(t, c.ScoreRaw, 0.0)
	assert.False(t, c.Incomplete)
}

func TestCompute_PleasantMonth(t *testing.T) {
	c := Compute(Values(28, 27, 6, 4, 0.8), referenceParams())

	assert.GreaterOrEqual(t, c.Score, 40.0)
	assert.LessOrEqual(t, c.Score, 100.0)

	assert.InDelta(t, 70.0, c.SeaBase, 1e-9)
	assert.InDelta(t, 5.0, c.Breeze, 1e-9)
	assert.InDelta(t, 4.0, c.BreezeBonus, 1e-9)
	assert.InDelta(t, 2.0, c.RainPen, 1e-9)
	assert.InDelta(t, 7.5*0.3/0.7, c.WavePen, 1e-9)
	assert.Zero(t, c.AirAdj)
	assert.Zero(t, c.Cold)
	assert.Zero(t, c.HeatPen)
	assert.Zero(t, c.BreathPen)
	assert.InDelta(t, 73.8, c.ComfortScore, 1e-9)

	names := map[string]bool{}
	for _, nv := range c.Bonuses() {
		names[nv.Name] = true
	}
	assert.True(t, names["SeaBase"])
}

func TestCompute_SeaBaseMonotonic(t *testing.T) {
	p := referenceParams()
	prev := -1.0
	for sea := 20.5; sea < 30; sea += 0.5 {
		c := Compute(Values(26, sea, 0, 4, 0), p)
		assert.Greater(t, c.SeaBase, prev, "sea=%v", sea)
		prev = c.SeaBase
	}

	assert.Equal(t, 0.0, Compute(Values(26, 10, 0, 4, 0), p).SeaBase)
	assert.Equal(t, 100.0, Compute(Values(26, 35, 0, 4, 0), p).SeaBase)
}

func TestCompute_WetPenMonotonicAboveRainT2(t *testing.T) {
	p := referenceParams()
	assert.Zero(t, Compute(Values(26, 26, 15, 4, 0), p).WetPen)

	prev := 0.0
	for rain := 16.0; rain <= 31; rain++ {
		c := Compute(Values(26, 26, rain, 4, 0), p)
		assert.Greater(t, c.WetPen, prev, "rain=%v", rain)
		prev = c.WetPen
	}
}

func TestCompute_AlwaysClamped(t *testing.T) {
	p := referenceParams()
	extremes := []float64{-1000, -40, 0, 15, 35, 60, 300, 1e6}

	for _, air := range extremes {
		for _, v := range extremes {
			c := Compute(Values(air, v, v, v, v), p)
			assert.GreaterOrEqual(t, c.Score, p.ClampMin)
			assert.LessOrEqual(t, c.Score, p.ClampMax)
		}
	}

	assert.Equal(t, p.ClampMin, Compute(Values(26, 26, 300, 4, 0.3), p).Score)
}

func TestCompute_CustomClampRange(t *testing.T) {
	p := referenceParams()
	p.ClampMin, p.ClampMax = 10, 50

	assert.Equal(t, 10.0, Compute(Values(10, 5, 30, 20, 4), p).Score)
	assert.Equal(t, 50.0, Compute(Values(28, 30, 0, 4, 0), p).Score)
}

func TestCompute_PenaltyTerms(t *testing.T) {
	p := referenceParams()
	p.Thresholds.AirSlope = 0.5
	p.Thresholds.WindColdT = 8
	p.Thresholds.WarmSpan = 3

	tests := []struct {
		name  string
		in    Inputs
		check func(t *testing.T, c domain.ScoreComponents)
	}{
		{"cold air", Values(18, 25, 0, 4, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.InDelta(t, 8.0, c.Cold, 1e-9)
			assert.InDelta(t, -2.0, c.AirAdj, 1e-9)
			assert.Zero(t, c.WindExCold)
		}},
		{"cold and windy", Values(18, 25, 0, 10, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.InDelta(t, 3.0, c.WindExCold, 1e-9)
		}},
		{"hot and calm", Values(35, 28, 0, 1, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.InDelta(t, 3.0, c.HeatPen, 1e-9)
			assert.InDelta(t, -1.0, c.AirAdj, 1e-9)
			assert.InDelta(t, 5.0*2/3, c.WarmForBreeze, 1e-9)
		}},
		{"hot with breeze", Values(35, 28, 0, 4, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.Zero(t, c.HeatPen)
		}},
		{"muggy", Values(31, 28, 13, 2.5, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.Equal(t, 10.0, c.BreathPen)
		}},
		{"muggy but breezy", Values(31, 28, 13, 3.5, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.Zero(t, c.BreathPen)
		}},
		{"strong wind", Values(26, 28, 0, 12, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.InDelta(t, 3.0, c.StrongWindPen, 1e-9)
			assert.Zero(t, c.BreezeBonus)
		}},
		{"rain penalty capped", Values(26, 28, 40, 4, 0), func(t *testing.T, c domain.ScoreComponents) {
			assert.Equal(t, 20.0, c.RainPen)
			assert.InDelta(t, 12.5, c.WetPen, 1e-9)
		}},
		{"big waves", Values(26, 28, 0, 4, 1.6), func(t *testing.T, c domain.ScoreComponents) {
			assert.InDelta(t, 11.25, c.WavePen, 1e-9)
		}},
		{"huge waves capped", Values(26, 28, 0, 4, 6), func(t *testing.T, c domain.ScoreComponents) {
			assert.Equal(t, 15.0, c.WavePen)
		}},
		{"flat sea", Values(26, 28, 0, 4, 0.5), func(t *testing.T, c domain.ScoreComponents) {
			assert.Zero(t, c.WavePen)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Compute(tt.in, p))
		})
	}
}

func TestCompute_MissingInputs(t *testing.T) {
	p := referenceParams()

	t.Run("missing sea skips sea base", func(t *testing.T) {
		in := Values(28, 27, 6, 4, 0.8)
		in.SeaC = domain.None()
		c := Compute(in, p)

		assert.True(t, c.Incomplete)
		assert.Zero(t, c.SeaBase)
		assert.InDelta(t, 2.0, c.RainPen, 1e-9)
	})

	t.Run("missing rain never penalizes", func(t *testing.T) {
		in := Values(31, 28, 40, 2.5, 0)
		in.RainDays = domain.None()
		c := Compute(in, p)

		assert.True(t, c.Incomplete)
		assert.Zero(t, c.RainPen)
		assert.Zero(t, c.WetPen)
		assert.Zero(t, c.BreathPen)
	})

	t.Run("missing wind skips wind terms", func(t *testing.T) {
		in := Values(35, 28, 0, 0, 0)
		in.WindMS = domain.None()
		c := Compute(in, p)

		assert.Zero(t, c.HeatPen)
		assert.Zero(t, c.Breeze)
		assert.Zero(t, c.StrongWindPen)
	})

	t.Run("all missing is still a number", func(t *testing.T) {
		c := Compute(Inputs{}, p)

		assert.True(t, c.Incomplete)
		assert.Equal(t, 0.0, c.Score)
	})
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 68.8, Round(68.7857, 0.1), 1e-9)
	assert.InDelta(t, 70.0, Round(68.7857, 5), 1e-9)
	assert.Equal(t, 68.7857, Round(68.7857, 0))
}

func TestTopPenalties(t *testing.T) {
	c := domain.ScoreComponents{RainPen: 12, WavePen: 3, Cold: 7, HeatPen: 1, WetPen: 0}

	top := TopPenalties(c, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "RainPen", top[0].Name)
	assert.Equal(t, "Cold", top[1].Name)
	assert.Equal(t, "WavePen", top[2].Name)
	assert.Empty(t, TopPenalties(domain.ScoreComponents{}, 3))
}
