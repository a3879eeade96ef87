package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// displayDecimals is the precision of the human-readable metric columns.
const displayDecimals = 1

// Columns is the CSV header in output order.
var Columns = []string{
	"Country", "Resort", "Area", "Month",
	"AirTempC", "SeaTempC", "RainDays", "Wind_ms", "WaveHs_m",
	"AirTempC_num", "SeaTempC_num", "RainDays_num", "Wind_ms_num", "WaveHs_m_num",
	"Score", "ComfortScore", "Score_raw",
	"SeaBase", "AirAdj", "Breeze", "WarmForBreeze", "BreezeBonus",
	"Cold", "WindExCold", "WetPen", "RainPen", "HeatPen", "BreathPen", "StrongWindPen", "WavePen",
	"mark_air", "mark_sea", "mark_rain", "mark_wind", "mark_wave",
	"sources_summary",
}

// WriteCSV writes rows as UTF-8 with a byte-order mark, ";" separators and
// decimal commas.
func WriteCSV(w io.Writer, rows []domain.MonthlyRow) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)
	cw.Comma = ';'

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("write csv month %d: %w", row.Month, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRecord(row domain.MonthlyRow) []string {
	rec := make([]string, 0, len(Columns))
	rec = append(rec, row.Country, row.Resort, row.Area, strconv.Itoa(row.Month))
	for _, m := range domain.Metrics {
		rec = append(rec, FormatWithFlag(row.Metric(m), displayDecimals))
	}
	for _, m := range domain.Metrics {
		rec = append(rec, FormatDecimal(row.Metric(m).Value, -1))
	}

	c := row.Components
	rec = append(rec, formatNumber(c.Score), formatNumber(c.ComfortScore), formatNumber(c.ScoreRaw))
	for _, nv := range c.Components() {
		rec = append(rec, formatNumber(nv.Value))
	}
	for _, m := range domain.Metrics {
		rec = append(rec, mark(row.Metric(m).Flag))
	}
	return append(rec, row.SourcesSummary)
}

func mark(flag bool) string {
	if flag {
		return "1"
	}
	return "0"
}
