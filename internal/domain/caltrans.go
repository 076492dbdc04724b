package domain

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	caltransPlayerBase = "https://cwwp2.dot.ca.gov/vm/loc/"

	// DefaultCaltransDistrict is District 6 (Fresno), which covers most of
	// the Hanford warning area.
	DefaultCaltransDistrict = "d6"

	unknownCameraID = "unknown"
)

// districtRe matches a Caltrans district path segment, e.g. ".../data/d10/cctv/..." -> "d10".
var districtRe = regexp.MustCompile(`/(d\d+)/`)

// Caltrans is the state highway CCTV network.
type Caltrans struct {
	defaultDistrict string
}

// NewCaltrans creates the Caltrans provider. An empty default district
// falls back to DefaultCaltransDistrict.
func NewCaltrans(defaultDistrict string) Caltrans {
	defaultDistrict = strings.ToLower(strings.TrimSpace(defaultDistrict))
	if defaultDistrict == "" {
		defaultDistrict = DefaultCaltransDistrict
	}
	return Caltrans{defaultDistrict: defaultDistrict}
}

func (Caltrans) Source() Source { return SourceCaltrans }

// Columns matches the CCTV export, whose header row carries upstream names
// unrelated to its contents.
func (Caltrans) Columns() []string {
	return []string{"lon", "lat", "name", "description"}
}

func (Caltrans) MarkerColor() string { return "blue" }

func (Caltrans) Normalize(row RawRow) (CameraRecord, error) {
	c, err := rowCoordinate(row)
	if err != nil {
		return CameraRecord{}, err
	}
	url := field(row, "url")
	if url == "" {
		url = ExtractEmbeddedURL(field(row, "description"))
	}
	return CameraRecord{
		Name:      field(row, "name"),
		Lat:       c.Lat,
		Lon:       c.Lon,
		Source:    SourceCaltrans,
		RawURL:    url,
		Elevation: ParseElevation(field(row, "elevation")),
	}, nil
}

// ResolveFeed builds the per-camera player URL from the district in the
// image URL and an ID derived from the display name. The ID scheme is a
// guess at how Caltrans names its player pages; when either part falls back
// to a default the descriptor is marked degraded.
func (p Caltrans) ResolveFeed(rec CameraRecord) FeedDescriptor {
	district, districtOK := CaltransDistrict(rec.RawURL)
	if !districtOK {
		district = p.defaultDistrict
	}
	id, idOK := CaltransCameraID(rec.Name)

	d := EmbeddablePlayer(caltransPlayerBase + district + "/" + id + ".htm")
	d.Degraded = !districtOK || !idOK
	return d
}

// CaltransDistrict extracts the district token from a Caltrans URL.
func CaltransDistrict(rawURL string) (string, bool) {
	m := districtRe.FindStringSubmatch(strings.ToLower(rawURL))
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// CaltransCameraID strips every non-alphanumeric character from the full
// display name and lower-cases it: "SR-41 : Mariposa" -> "sr41mariposa".
func CaltransCameraID(name string) (string, bool) {
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return unknownCameraID, false
	}
	return b.String(), true
}
