// Package report renders monthly tables as semicolon-separated CSV with
// decimal commas, as Markdown, and writes the provenance document.
package report

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// FormatDecimal renders v with the given number of decimals and a decimal
// comma. Missing values render empty.
func FormatDecimal(v domain.NullFloat, decimals int) string {
	if !v.Valid {
		return ""
	}
	return decimalComma(strconv.FormatFloat(v.Float64, 'f', decimals, 64))
}

// FormatWithFlag is FormatDecimal with a leading "+" on flagged values.
func FormatWithFlag(fv domain.FlaggedValue, decimals int) string {
	s := FormatDecimal(fv.Value, decimals)
	if fv.Flag && s != "" {
		return "+" + s
	}
	return s
}

// formatNumber renders v at full precision with a decimal comma.
func formatNumber(v float64) string {
	return decimalComma(strconv.FormatFloat(v, 'f', -1, 64))
}

func decimalComma(s string) string {
	return strings.Replace(s, ".", ",", 1)
}
