package cache

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// Key describes everything that determines a provider payload. Changing any
// field produces a different cache key.
type Key struct {
	Source     string
	Version    string
	LocationID string
	Coords     domain.Coordinates
	Period     domain.Period
	Variables  []string
	Units      string
}

// String renders the key as
// name:version:location:lat:lon:start:end:vars:units=<units>. Fields are not
// escaped; location ids are validated to contain no colon.
func (k Key) String() string {
	units := k.Units
	if units == "" {
		units = "metric"
	}
	r := k.Period.Range()
	return strings.Join([]string{
		k.Source,
		k.Version,
		k.LocationID,
		strconv.FormatFloat(k.Coords.Lat, 'f', -1, 64),
		strconv.FormatFloat(k.Coords.Lon, 'f', -1, 64),
		r.Start,
		r.End,
		strings.Join(k.Variables, ","),
		"units=" + units,
	}, ":")
}
