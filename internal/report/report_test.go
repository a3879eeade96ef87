package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bom = "\ufeff"

func testRow(month int) domain.MonthlyRow {
	return domain.MonthlyRow{
		LocationID: "malaga",
		Country:    "Spain",
		Resort:     "Malaga",
		Area:       "Costa del Sol",
		Month:      month,
		AirTemp:    domain.FlaggedValue{Value: domain.Some(28.04)},
		SeaTemp:    domain.FlaggedValue{Value: domain.Some(22.5), Flag: true},
		RainDays:   domain.FlaggedValue{Value: domain.Some(1.26), Flag: true, Estimated: true},
		Wind:       domain.FlaggedValue{Value: domain.Some(4)},
		Wave:       domain.FlaggedValue{Flag: true},
		Components: domain.ScoreComponents{
			SeaBase:      45,
			RainPen:      2.5,
			HeatPen:      1.5,
			WavePen:      4,
			ScoreRaw:     37,
			Score:        37,
			ComfortScore: 37,
		},
		SourcesSummary: "open_meteo_archive, open_meteo_marine, open_meteo",
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		name     string
		value    domain.NullFloat
		decimals int
		want     string
	}{
		{"one decimal", domain.Some(28.04), 1, "28,0"},
		{"negative", domain.Some(-3.5), 1, "-3,5"},
		{"full precision", domain.Some(1.125), -1, "1,125"},
		{"integer", domain.Some(7), 1, "7,0"},
		{"missing", domain.None(), 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDecimal(tt.value, tt.decimals))
		})
	}
}

func TestFormatWithFlag(t *testing.T) {
	assert.Equal(t, "+22,5", FormatWithFlag(domain.FlaggedValue{Value: domain.Some(22.5), Flag: true}, 1))
	assert.Equal(t, "22,5", FormatWithFlag(domain.FlaggedValue{Value: domain.Some(22.5)}, 1))
	assert.Empty(t, FormatWithFlag(domain.FlaggedValue{Flag: true}, 1))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []domain.MonthlyRow{testRow(1), testRow(2)}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, bom), "missing byte-order mark")

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, bom)))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])

	rec := make(map[string]string, len(Columns))
	for i, col := range records[0] {
		rec[col] = records[1][i]
	}
	assert.Equal(t, "Spain", rec["Country"])
	assert.Equal(t, "1", rec["Month"])
	assert.Equal(t, "28,0", rec["AirTempC"])
	assert.Equal(t, "+22,5", rec["SeaTempC"])
	assert.Equal(t, "+1,3", rec["RainDays"])
	assert.Equal(t, "", rec["WaveHs_m"])
	assert.Equal(t, "28,04", rec["AirTempC_num"])
	assert.Equal(t, "1,26", rec["RainDays_num"])
	assert.Equal(t, "", rec["WaveHs_m_num"])
	assert.Equal(t, "37", rec["ComfortScore"])
	assert.Equal(t, "2,5", rec["RainPen"])
	assert.Equal(t, "0", rec["mark_air"])
	assert.Equal(t, "1", rec["mark_sea"])
	assert.Equal(t, "1", rec["mark_wave"])
	assert.Equal(t, "open_meteo_archive, open_meteo_marine, open_meteo", rec["sources_summary"])
	assert.Equal(t, "2", records[2][3])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, []domain.MonthlyRow{testRow(7)}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "| Country | Resort | Area | Month | AirTempC | SeaTempC | RainDays | Wind_ms | WaveHs_m | ComfortScore | TopPenalties |", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "| --- |"))
	assert.Equal(t, "| Spain | Malaga | Costa del Sol | 7 | 28,0 | +22,5 | +1,3 | 4,0 |  | 37,0 | WavePen 4,0, RainPen 2,5, HeatPen 1,5 |", lines[2])
}

func TestFileWriter_Load(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(dir, true, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var rows [12]domain.MonthlyRow
	for i := range rows {
		rows[i] = testRow(i + 1)
	}
	res := domain.LocationResult{
		Location: domain.Location{ID: "malaga"},
		Rows:     rows,
		Provenance: domain.Provenance{
			LocationID:  "malaga",
			Period:      domain.DateRange{Start: "2015-01-01", End: "2024-12-31"},
			Marks:       map[int][]domain.Mark{2: {{Metric: domain.MetricRain, Reason: domain.ReasonEstimatedFromTotal}}},
			GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}
	require.NoError(t, w.Load(context.Background(), res))

	csvData, err := os.ReadFile(w.CSVPath("malaga"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(csvData)), "\n"), 13)

	_, err = os.Stat(w.MarkdownPath("malaga"))
	require.NoError(t, err)

	provData, err := os.ReadFile(w.ProvenancePath("malaga"))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(provData, &doc))
	assert.Equal(t, "malaga", doc["location_id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", doc["generated_at"])
	marks := doc["marks"].(map[string]any)
	assert.Contains(t, marks, "2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temporary files must not be left behind")
}

func TestFileWriter_SkipsMarkdownByDefault(t *testing.T) {
	w, err := NewFileWriter(t.TempDir(), false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, w.Load(context.Background(), domain.LocationResult{Location: domain.Location{ID: "x"}}))

	_, err = os.Stat(w.MarkdownPath("x"))
	assert.True(t, os.IsNotExist(err))
}
