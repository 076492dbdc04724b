package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

const (
	artifactPrefix = "enriched_"
	artifactExt    = ".csv"
)

// ArtifactName is the file name of the enriched artifact for src,
// e.g. "enriched_caltrans.csv".
func ArtifactName(src domain.Source) string {
	return artifactPrefix + strings.ToLower(string(src)) + artifactExt
}

// WriteArtifact renders records in the canonical column order.
func WriteArtifact(w io.Writer, records []domain.CameraRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.CanonicalColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(domain.CanonicalRow(rec)); err != nil {
			return fmt.Errorf("write %q: %w", rec.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeArtifact renders records into memory.
func EncodeArtifact(records []domain.CameraRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArtifactWriter persists enriched artifacts into a directory.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates a writer rooted at dir.
func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir}
}

func (w *ArtifactWriter) Name() string { return "csv" }

// WriteArtifacts replaces the artifact for src. The file is written to a
// temporary name and renamed so readers never observe a partial artifact.
func (w *ArtifactWriter) WriteArtifacts(ctx context.Context, src domain.Source, records []domain.CameraRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, ".tmp-"+ArtifactName(src))
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteArtifact(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, ArtifactName(src))); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// ArtifactPaths lists the enriched artifacts in dir in name order.
func ArtifactPaths(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, artifactPrefix+"*"+artifactExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadArtifact loads one artifact. Rows are dispatched on their own source
// column; rows that cannot be placed are reported, not fatal.
func ReadArtifact(path string, reg *domain.Registry) ([]domain.CameraRecord, []domain.RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := ReadRows(f, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	records, rejected := domain.NormalizeCanonical(reg, "", rows)
	return records, rejected, nil
}

// ReadArtifacts loads every artifact in dir. A missing directory yields no
// records.
func ReadArtifacts(dir string, reg *domain.Registry) ([]domain.CameraRecord, []domain.RowError, error) {
	paths, err := ArtifactPaths(dir)
	if err != nil {
		return nil, nil, err
	}
	var (
		records  []domain.CameraRecord
		rejected []domain.RowError
	)
	for _, p := range paths {
		recs, rej, err := ReadArtifact(p, reg)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, recs...)
		rejected = append(rejected, rej...)
	}
	return records, rejected, nil
}
