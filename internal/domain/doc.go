// Package domain models daily climate observations and the monthly
// comfort table derived from them.
//
// # Data Sources
//
// Daily values come from the Open-Meteo historical APIs:
//
//	archive  https://archive-api.open-meteo.com/v1/archive
//	         temperature_2m_max (°C), precipitation_sum (mm), wind_speed_10m_mean
//	marine   https://marine-api.open-meteo.com/v1/marine
//	         sea_surface_temperature (°C), wave_height_mean (m)
//
// Every request asks for timezone=UTC, so a daily value belongs to the UTC
// calendar day named in the "time" array. Responses carry a "daily" block with
// an ISO date array and parallel value arrays. Null or non-numeric entries are
// kept as invalid [NullFloat] values rather than zero, so a missing day lowers
// coverage instead of biasing the mean.
//
// # Units
//
// Wind is requested in m/s, waves in metres and temperatures in °C. Providers
// that report imperial or Kelvin values convert with [MphToMS], [FtToM] and
// [KToC] before building a [DailyTable].
//
// # Coordinates
//
// Air, rain, sea temperature and wind are fetched at the location's primary
// coordinate. Wave height is fetched at a separate wave point, usually a few
// kilometres offshore, because the marine model has no data on land cells.
// The wave point's mode ("offshore", "nearshore") is carried through to the
// provenance document.
//
// # Monthly Statistics
//
// Monthly structures are fixed [12] arrays indexed by month-1, so a month with
// no observations is present as an invalid value and never omitted.
package domain
