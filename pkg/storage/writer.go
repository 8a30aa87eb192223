package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bskyscraper/pkg/table"
)

// TimestampLayout is the suffix format appended to output filenames
const TimestampLayout = "20060102_150405"

// Filename returns base.csv, or base_YYYYMMDD_HHMMSS.csv when includeTimestamp is set
func Filename(base string, includeTimestamp bool, now time.Time) string {
	if includeTimestamp {
		return fmt.Sprintf("%s_%s.csv", base, now.Format(TimestampLayout))
	}
	return base + ".csv"
}

// CSVWriter writes result tables into an output directory
type CSVWriter struct {
	outputDir string
}

// NewCSVWriter creates a writer for outputDir, creating the directory if needed
func NewCSVWriter(outputDir string) (*CSVWriter, error) {
	if err := EnsureDir(outputDir); err != nil {
		return nil, err
	}
	return &CSVWriter{outputDir: outputDir}, nil
}

// EnsureDir creates dir and its parents. An existing directory is not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// OutputDir returns the directory files are written to
func (w *CSVWriter) OutputDir() string {
	return w.outputDir
}

// Write stores tbl as UTF-8 CSV under filename and returns the full path.
// The header row is the table's columns; there is no index column. The file
// is written to a temporary name and renamed into place, so an existing
// file with the same name is replaced whole or not at all.
func (w *CSVWriter) Write(tbl *table.Table, filename string) (string, error) {
	path := filepath.Join(w.outputDir, filename)

	tmp, err := os.CreateTemp(w.outputDir, "."+filename+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(tbl.Columns); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(tbl.Rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write rows: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}
