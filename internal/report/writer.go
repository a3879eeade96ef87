package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/climate-comfort/internal/domain"
)

// FileWriter writes each location's CSV, provenance JSON and, optionally,
// Markdown table into one directory.
type FileWriter struct {
	dir      string
	markdown bool
	logger   *slog.Logger
}

// NewFileWriter creates the output directory if needed.
func NewFileWriter(dir string, markdown bool, logger *slog.Logger) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileWriter{dir: dir, markdown: markdown, logger: logger}, nil
}

// CSVPath returns where the monthly CSV of locationID is written.
func (w *FileWriter) CSVPath(locationID string) string {
	return filepath.Join(w.dir, locationID+"_monthly.csv")
}

// MarkdownPath returns where the Markdown table of locationID is written.
func (w *FileWriter) MarkdownPath(locationID string) string {
	return filepath.Join(w.dir, locationID+"_monthly.md")
}

// ProvenancePath returns where the provenance document of locationID is
// written.
func (w *FileWriter) ProvenancePath(locationID string) string {
	return filepath.Join(w.dir, locationID+"_provenance.json")
}

// Load writes every output file for res.
func (w *FileWriter) Load(_ context.Context, res domain.LocationResult) error {
	id := res.Location.ID
	rows := res.Rows[:]

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return err
	}
	if err := writeFile(w.CSVPath(id), buf.Bytes()); err != nil {
		return err
	}

	if w.markdown {
		buf.Reset()
		if err := WriteMarkdown(&buf, rows); err != nil {
			return err
		}
		if err := writeFile(w.MarkdownPath(id), buf.Bytes()); err != nil {
			return err
		}
	}

	prov, err := MarshalProvenance(res.Provenance)
	if err != nil {
		return err
	}
	if err := writeFile(w.ProvenancePath(id), prov); err != nil {
		return err
	}

	w.logger.Info("report written", "location_id", id, "csv", w.CSVPath(id))
	return nil
}

// MarshalProvenance renders the provenance document as indented JSON.
func MarshalProvenance(p domain.Provenance) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal provenance: %w", err)
	}
	return append(data, '\n'), nil
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close() //nolint:errcheck // chmod error takes precedence
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
