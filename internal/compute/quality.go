package compute

import "github.com/couchcryptid/climate-comfort/internal/domain"

// ApplyCoverageFlags pairs each month's mean with its disclosure flag. A
// month is flagged when coverage is insufficient, the value is missing, or
// estimated marks it as synthetic. estimated may be nil.
func ApplyCoverageFlags(stats domain.MonthlyStats, estimated *[12]bool) [12]domain.FlaggedValue {
	var out [12]domain.FlaggedValue
	for i, s := range stats {
		est := estimated != nil && estimated[i]
		out[i] = domain.FlaggedValue{
			Value:     s.Mean,
			Flag:      !s.CoverageOK || !s.Mean.Valid || est,
			Estimated: est,
		}
	}
	return out
}
