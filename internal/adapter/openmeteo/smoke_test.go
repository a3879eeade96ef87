//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Open-Meteo APIs.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return NewClient(Options{Timeout: 30 * time.Second, MaxRetries: 1},
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_ArchiveJanuary(t *testing.T) {
	c := smokeClient()
	vars := []string{domain.VarTempMax, domain.VarPrecip, domain.VarWind}
	body, err := c.Fetch(context.Background(), Request{
		API:    Archive,
		Coords: domain.Coordinates{Lat: 36.72, Lon: -4.42},
		Period: domain.Period{
			Start: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2022, time.January, 31, 0, 0, 0, 0, time.UTC),
		},
		Variables: vars,
	})
	require.NoError(t, err)

	table, err := Decode(body, vars)
	require.NoError(t, err)
	assert.Equal(t, 31, table.Len())
	for _, v := range table.Columns[domain.VarTempMax] {
		assert.True(t, v.Valid)
		assert.Greater(t, v.Float64, 0.0)
	}
}

func TestSmoke_MarineSST(t *testing.T) {
	c := smokeClient()
	vars := []string{domain.VarSST}
	body, err := c.Fetch(context.Background(), Request{
		API:    Marine,
		Coords: domain.Coordinates{Lat: 36.6, Lon: -4.4},
		Period: domain.Period{
			Start: time.Date(2022, time.August, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2022, time.August, 7, 0, 0, 0, 0, time.UTC),
		},
		Variables: vars,
	})
	require.NoError(t, err)

	table, err := Decode(body, vars)
	require.NoError(t, err)
	assert.Equal(t, 7, table.Len())
}
