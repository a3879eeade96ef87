package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/score"
)

var markdownColumns = []string{
	"Country", "Resort", "Area", "Month",
	"AirTempC", "SeaTempC", "RainDays", "Wind_ms", "WaveHs_m",
	"ComfortScore", "TopPenalties",
}

// topPenalties is how many penalties the Markdown table lists per month.
const topPenalties = 3

// WriteMarkdown writes the display columns of rows as a pipe table.
func WriteMarkdown(w io.Writer, rows []domain.MonthlyRow) error {
	var b strings.Builder
	writeMarkdownRow(&b, markdownColumns)
	sep := make([]string, len(markdownColumns))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(&b, sep)

	for _, row := range rows {
		cells := []string{row.Country, row.Resort, row.Area, strconv.Itoa(row.Month)}
		for _, m := range domain.Metrics {
			cells = append(cells, FormatWithFlag(row.Metric(m), displayDecimals))
		}
		cells = append(cells,
			FormatDecimal(domain.Some(row.Components.ComfortScore), displayDecimals),
			penaltySummary(row.Components),
		)
		writeMarkdownRow(&b, cells)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func penaltySummary(c domain.ScoreComponents) string {
	top := score.TopPenalties(c, topPenalties)
	parts := make([]string, 0, len(top))
	for _, p := range top {
		parts = append(parts, p.Name+" "+FormatDecimal(domain.Some(p.Value), displayDecimals))
	}
	return strings.Join(parts, ", ")
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
