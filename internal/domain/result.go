package domain

// LocationResult is the finished twelve-month table of one location with its
// provenance. It is what loaders receive.
type LocationResult struct {
	Location   Location
	Rows       [12]MonthlyRow
	Provenance Provenance
}
