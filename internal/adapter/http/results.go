package http

import (
	"context"
	"sync"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// ResultStore keeps the latest table of every built location in memory. It
// implements pipeline.ResultLoader so a run can feed the server directly.
type ResultStore struct {
	mu      sync.RWMutex
	order   []string
	results map[string]domain.LocationResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.LocationResult)}
}

// Load stores res, replacing an earlier build of the same location.
func (s *ResultStore) Load(_ context.Context, res domain.LocationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := res.Location.ID
	if _, ok := s.results[id]; !ok {
		s.order = append(s.order, id)
	}
	s.results[id] = res
	return nil
}

func (s *ResultStore) Get(id string) (domain.LocationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}

// LocationSummary is one entry of the /locations listing.
type LocationSummary struct {
	ID        string  `json:"location_id"`
	Country   string  `json:"country"`
	Resort    string  `json:"resort"`
	Area      string  `json:"area"`
	BestMonth int     `json:"best_month"`
	BestScore float64 `json:"best_score"`
	Flagged   int     `json:"flagged_months"`
}

// List summarizes stored locations in the order they were first built.
func (s *ResultStore) List() []LocationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LocationSummary, 0, len(s.order))
	for _, id := range s.order {
		res := s.results[id]
		sum := LocationSummary{
			ID:      id,
			Country: res.Location.Country,
			Resort:  res.Location.Resort,
			Area:    res.Location.Area,
			Flagged: len(res.Provenance.Marks),
		}
		for _, row := range res.Rows {
			if sum.BestMonth == 0 || row.Components.ComfortScore > sum.BestScore {
				sum.BestMonth = row.Month
				sum.BestScore = row.Components.ComfortScore
			}
		}
		out = append(out, sum)
	}
	return out
}

type locationResponse struct {
	Location   domain.Location     `json:"location"`
	Rows       []domain.MonthlyRow `json:"rows"`
	Provenance domain.Provenance   `json:"provenance"`
}
