package openmeteo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

type dailyResponse struct {
	Daily map[string]json.RawMessage `json:"daily"`
}

// Decode turns a raw Open-Meteo response into a daily table holding the
// requested variables. Entries that are null or not numeric become missing
// values and unparseable dates are dropped. A response without a daily block
// decodes to an empty table.
func Decode(payload json.RawMessage, variables []string) (domain.DailyTable, error) {
	var resp dailyResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return domain.DailyTable{}, fmt.Errorf("decode open-meteo response: %w", err)
	}

	empty := make(map[string][]domain.NullFloat, len(variables))
	for _, v := range variables {
		empty[v] = nil
	}
	if len(resp.Daily) == 0 {
		return domain.NewDailyTable(nil, empty), nil
	}

	var rawDates []string
	if raw, ok := resp.Daily["time"]; ok {
		if err := json.Unmarshal(raw, &rawDates); err != nil {
			return domain.DailyTable{}, fmt.Errorf("decode open-meteo dates: %w", err)
		}
	}

	columns := make(map[string][]domain.NullFloat, len(variables))
	for _, v := range variables {
		var values []domain.NullFloat
		if raw, ok := resp.Daily[v]; ok {
			// NullFloat never fails on an element; only a non-array errors.
			if err := json.Unmarshal(raw, &values); err != nil {
				values = nil
			}
		}
		columns[v] = values
	}

	dates := make([]time.Time, 0, len(rawDates))
	kept := make(map[string][]domain.NullFloat, len(variables))
	for i, s := range rawDates {
		d, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			continue
		}
		dates = append(dates, d)
		for _, v := range variables {
			var val domain.NullFloat
			if i < len(columns[v]) {
				val = columns[v][i]
			}
			kept[v] = append(kept[v], val)
		}
	}
	for _, v := range variables {
		if _, ok := kept[v]; !ok {
			kept[v] = nil
		}
	}
	return domain.NewDailyTable(dates, kept), nil
}
