// Command validate checks enriched camera artifacts against the column
// contract: exact header, a known source matching the file name, coordinates
// in range, and an integer or empty elevation. It exits non-zero when any
// phase fails.
//
// Usage:
//
//	go run ./cmd/validate -dir data/enriched
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/hnx-camera-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/hnx-camera-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// artifact is one parsed file.
type artifact struct {
	path   string
	header []string
	rows   []domain.RawRow
}

func main() {
	dir := flag.String("dir", "", "directory containing enriched_*.csv artifacts")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, out io.Writer) int {
	fmt.Fprintln(out, "=== Camera Artifact Validation ===")
	fmt.Fprintln(out)

	paths, err := csvfile.ArtifactPaths(dir)
	if err != nil {
		fmt.Fprintf(out, "FATAL: list artifacts: %v\n", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "FATAL: no artifacts in %s\n", dir)
		return 1
	}

	artifacts := make([]artifact, 0, len(paths))
	for _, path := range paths {
		a, err := loadArtifact(path)
		if err != nil {
			fmt.Fprintf(out, "FATAL: %v\n", err)
			return 1
		}
		artifacts = append(artifacts, a)
	}

	reg := domain.DefaultRegistry("")
	phases := []*phase{
		validateHeaders(artifacts),
		validateSources(artifacts, reg),
		validateCoordinates(artifacts),
		validateElevations(artifacts),
		validateNormalization(artifacts, reg),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Artifacts: %d, records: %d\n", len(artifacts), countRows(artifacts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadArtifact(path string) (artifact, error) {
	header, err := csvfile.ReadHeader(path)
	if err != nil {
		return artifact{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return artifact{}, err
	}
	defer f.Close()

	rows, err := csvfile.ReadRows(f, nil)
	if err != nil {
		return artifact{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return artifact{path: path, header: header, rows: rows}, nil
}

func countRows(artifacts []artifact) int {
	n := 0
	for _, a := range artifacts {
		n += len(a.rows)
	}
	return n
}

// rowRef identifies a row in error messages; line 1 is the header.
func rowRef(a artifact, i int) string {
	return fmt.Sprintf("%s:%d", filepath.Base(a.path), i+2)
}

func validateHeaders(artifacts []artifact) *phase {
	p := &phase{name: "Header matches column contract"}
	want := strings.Join(domain.CanonicalColumns, ",")
	for _, a := range artifacts {
		if got := strings.Join(a.header, ","); got != want {
			p.errorf("%s: header %q, want %q", filepath.Base(a.path), got, want)
		}
	}
	return p
}

func validateSources(artifacts []artifact, reg *domain.Registry) *phase {
	p := &phase{name: "Source known and matches file"}
	for _, a := range artifacts {
		base := filepath.Base(a.path)
		for i, row := range a.rows {
			raw := row["source"]
			if raw == "" {
				p.errorf("%s: empty source", rowRef(a, i))
				continue
			}
			src, err := reg.ParseSource(raw)
			if err != nil {
				p.errorf("%s: %v", rowRef(a, i), err)
				continue
			}
			if string(src) != raw {
				p.errorf("%s: source %q is not canonically cased (%q)", rowRef(a, i), raw, src)
			}
			if csvfile.ArtifactName(src) != base {
				p.errorf("%s: %s record in %s", rowRef(a, i), src, base)
			}
		}
	}
	return p
}

func validateCoordinates(artifacts []artifact) *phase {
	p := &phase{name: "Coordinates present and in range"}
	for _, a := range artifacts {
		for i, row := range a.rows {
			lat, errLat := strconv.ParseFloat(row["lat"], 64)
			lon, errLon := strconv.ParseFloat(row["lon"], 64)
			if errLat != nil || errLon != nil {
				p.errorf("%s: unparseable coordinate lat=%q lon=%q", rowRef(a, i), row["lat"], row["lon"])
				continue
			}
			if c := (domain.Coordinate{Lat: lat, Lon: lon}); !c.Valid() {
				p.errorf("%s: coordinate %s out of range", rowRef(a, i), c)
			}
		}
	}
	return p
}

func validateElevations(artifacts []artifact) *phase {
	p := &phase{name: "Elevation integer feet or empty"}
	for _, a := range artifacts {
		for i, row := range a.rows {
			v := row["elevation"]
			if v == "" {
				continue
			}
			if _, err := strconv.Atoi(v); err != nil {
				p.errorf("%s: elevation %q is not an integer", rowRef(a, i), v)
			}
		}
	}
	return p
}

// validateNormalization reads every artifact back through the normalizer the
// pipeline uses to seed its cache; any rejected row fails the phase.
func validateNormalization(artifacts []artifact, reg *domain.Registry) *phase {
	p := &phase{name: "Rows normalize without loss"}
	for _, a := range artifacts {
		_, rejected := domain.NormalizeCanonical(reg, "", a.rows)
		for _, re := range rejected {
			p.errorf("%s: %v", rowRef(a, re.Index), re.Err)
		}
	}
	return p
}
