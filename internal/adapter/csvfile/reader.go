package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

// ReadRows parses a CSV stream whose first line is a header. Keys are the
// trimmed, lower-cased header names. When columns is non-nil and has as many
// entries as the header, it replaces the header positionally.
func ReadRows(r io.Reader, columns []string) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	names := header
	if columns != nil && len(columns) == len(header) {
		names = columns
	}
	keys := make([]string, len(names))
	for i, k := range names {
		keys[i] = strings.ToLower(strings.TrimSpace(k))
	}

	var rows []domain.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(domain.RawRow, len(keys))
		for i, k := range keys {
			if i < len(rec) {
				row[k] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadHeader returns the raw header line of a CSV file.
func ReadHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, nil
}

// Source reads one provider export from disk on every fetch.
type Source struct {
	path     string
	provider domain.Provider
}

// NewSource creates a file-backed row source for provider.
func NewSource(path string, provider domain.Provider) *Source {
	return &Source{path: path, provider: provider}
}

func (s *Source) Source() domain.Source { return s.provider.Source() }

// Name identifies the source in logs.
func (s *Source) Name() string { return s.path }

// FetchRows reads the export, renaming columns per the provider.
func (s *Source) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s export: %w", s.provider.Source(), err)
	}
	defer f.Close()

	rows, err := ReadRows(f, s.provider.Columns())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return rows, nil
}
