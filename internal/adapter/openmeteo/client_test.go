package openmeteo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, retries int) *Client {
	return NewClient(Options{
		ArchiveURL:       baseURL + "/archive",
		MarineURL:        baseURL + "/marine",
		Timeout:          5 * time.Second,
		MaxRetries:       retries,
		RetryInterval:    time.Millisecond,
		MaxRetryInterval: 5 * time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func archiveRequest() Request {
	return Request{
		API:       Archive,
		Coords:    domain.Coordinates{Lat: 36.7213, Lon: -4.4214},
		Period:    domain.PeriodForYears(2020, 2021),
		Variables: []string{domain.VarTempMax, domain.VarPrecip},
	}
}

func TestClient_Fetch_ArchiveQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/archive", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "36.7213", q.Get("latitude"))
		assert.Equal(t, "-4.4214", q.Get("longitude"))
		assert.Equal(t, "2020-01-01", q.Get("start_date"))
		assert.Equal(t, "2021-12-31", q.Get("end_date"))
		assert.Equal(t, "temperature_2m_max,precipitation_sum", q.Get("daily"))
		assert.Equal(t, "UTC", q.Get("timezone"))
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"daily":{"time":["2020-01-01"],"temperature_2m_max":[16.2],"precipitation_sum":[0.4]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	body, err := c.Fetch(context.Background(), archiveRequest())
	require.NoError(t, err)
	assert.Contains(t, string(body), "temperature_2m_max")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues("archive", "success")), 0)
}

func TestClient_Fetch_MarineOmitsWindUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/marine", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{"daily":{"time":[],"sea_surface_temperature":[]}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	req := archiveRequest()
	req.API = Marine
	req.Variables = []string{domain.VarSST}
	_, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)
}

func TestClient_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"daily":{}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	_, err := c.Fetch(context.Background(), archiveRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(c.metrics.ProviderRequests.WithLabelValues("archive", "retry")), 0)
}

func TestClient_Fetch_RetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	_, err := c.Fetch(context.Background(), archiveRequest())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Fetch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Parameter 'start_date' is out of range"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.Fetch(context.Background(), archiveRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "start_date")
}

func TestClient_Fetch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	_, err := c.Fetch(context.Background(), archiveRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestClient_Fetch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv.URL, 5)
	_, err := c.Fetch(ctx, archiveRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Fetch_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 0)
	for range 5 {
		_, err := c.Fetch(context.Background(), archiveRequest())
		require.Error(t, err)
	}
	_, err := c.Fetch(context.Background(), archiveRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(5), calls.Load())
}

func TestDecode(t *testing.T) {
	payload := []byte(`{
		"latitude": 36.7,
		"daily": {
			"time": ["2020-01-01", "bad-date", "2020-01-03"],
			"temperature_2m_max": [16.2, 17.0, null],
			"precipitation_sum": ["1.5", "n/a", 0]
		}
	}`)

	table, err := Decode(payload, []string{domain.VarTempMax, domain.VarPrecip, domain.VarSST})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 3, table.Dates[1].Day())

	air := table.Columns[domain.VarTempMax]
	assert.Equal(t, domain.Some(16.2), air[0])
	assert.False(t, air[1].Valid)

	rain := table.Columns[domain.VarPrecip]
	assert.Equal(t, domain.Some(1.5), rain[0])
	assert.Equal(t, domain.Some(0), rain[1])

	sst := table.Columns[domain.VarSST]
	require.Len(t, sst, 2)
	assert.False(t, sst[0].Valid)
}

func TestDecode_NoDailyBlock(t *testing.T) {
	table, err := Decode([]byte(`{"latitude": 1}`), []string{domain.VarSST})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Contains(t, table.Columns, domain.VarSST)
}

func TestDecode_InvalidPayload(t *testing.T) {
	_, err := Decode([]byte(`[`), []string{domain.VarSST})
	require.Error(t, err)
}
