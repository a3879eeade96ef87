package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// Synthetic produces deterministic Open-Meteo shaped responses from a simple
// seasonal model. It backs the mock cache generator and tests that need a
// full year of plausible data without network access.
type Synthetic struct{}

// Fetch satisfies the same contract as Client.Fetch.
func (Synthetic) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SyntheticResponse(req)
}

// SyntheticResponse renders one value per day of the request period for every
// requested variable. Unknown variables are returned as all-null columns.
func SyntheticResponse(req Request) (json.RawMessage, error) {
	var dates []string
	for d := req.Period.Start; !d.After(req.Period.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(domain.DateLayout))
	}

	daily := map[string]any{"time": dates}
	for _, v := range req.Variables {
		col := make([]*float64, len(dates))
		for i := range dates {
			day := req.Period.Start.AddDate(0, 0, i)
			if val, ok := syntheticValue(v, req.Coords, day); ok {
				col[i] = &val
			}
		}
		daily[v] = col
	}

	body, err := json.Marshal(map[string]any{
		"latitude":  req.Coords.Lat,
		"longitude": req.Coords.Lon,
		"timezone":  "UTC",
		"daily":     daily,
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthetic response: %w", err)
	}
	return body, nil
}

func syntheticValue(variable string, c domain.Coordinates, day time.Time) (float64, bool) {
	// Seasons flip south of the equator.
	phase := 2 * math.Pi * float64(day.YearDay()) / 365.25
	if c.Lat < 0 {
		phase += math.Pi
	}
	noise := jitter(day, c)
	lat := math.Abs(c.Lat)

	var v float64
	switch variable {
	case domain.VarTempMax:
		v = 31 - 0.4*lat - 8*math.Cos(phase-0.35) + 2*noise
	case domain.VarPrecip:
		if noise < 0.55+0.25*math.Cos(phase) {
			v = 0
		} else {
			v = 2 + 14*(noise-0.4)
		}
	case domain.VarSST:
		v = 30 - 0.3*lat - 5*math.Cos(phase-0.7) + 0.5*noise
	case domain.VarWind:
		v = 4.5 + 1.5*math.Cos(phase) + 2*noise
	case domain.VarWave:
		v = 0.9 + 0.4*math.Cos(phase) + 0.3*noise
	default:
		return 0, false
	}
	return math.Round(v*10) / 10, true
}

// jitter maps a date and coordinate to a stable value in [0, 1).
func jitter(day time.Time, c domain.Coordinates) float64 {
	h := uint64(day.Unix()/86400)*2654435761 + uint64(math.Abs(c.Lat*1000))*40503 + uint64(math.Abs(c.Lon*1000))
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float64(h%10000) / 10000
}

// SyntheticHandler serves SyntheticResponse over HTTP for the given API,
// reading the same query parameters Client sends.
func SyntheticHandler(api API) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := parseQuery(api, r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": true, "reason": err.Error()}) //nolint:errcheck // best-effort error body
			return
		}
		body, err := SyntheticResponse(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body) //nolint:errcheck // best-effort response write
	})
}

func parseQuery(api API, r *http.Request) (Request, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		return Request{}, fmt.Errorf("invalid latitude %q", q.Get("latitude"))
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		return Request{}, fmt.Errorf("invalid longitude %q", q.Get("longitude"))
	}
	start, err := time.Parse(domain.DateLayout, q.Get("start_date"))
	if err != nil {
		return Request{}, fmt.Errorf("invalid start_date %q", q.Get("start_date"))
	}
	end, err := time.Parse(domain.DateLayout, q.Get("end_date"))
	if err != nil {
		return Request{}, fmt.Errorf("invalid end_date %q", q.Get("end_date"))
	}
	if end.Before(start) {
		return Request{}, fmt.Errorf("end_date %s is before start_date %s", q.Get("end_date"), q.Get("start_date"))
	}
	return Request{
		API:       api,
		Coords:    domain.Coordinates{Lat: lat, Lon: lon},
		Period:    domain.Period{Start: start, End: end},
		Variables: strings.Split(q.Get("daily"), ","),
	}, nil
}
