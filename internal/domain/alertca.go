package domain

import "strings"

const (
	alertCAPrefix  = "ALERTCA: "
	alertCAViewer  = "https://ops.alertcalifornia.org/"
	alertCAUnknown = "Unknown"
)

// ALERTCalifornia is the UC San Diego wildfire camera network.
type ALERTCalifornia struct{}

func (ALERTCalifornia) Source() Source { return SourceALERTCalifornia }

func (ALERTCalifornia) Columns() []string { return nil }

func (ALERTCalifornia) MarkerColor() string { return "red" }

// Normalize accepts both FeatureServer attribute rows and artifact rows. The
// display prefix is only added once. Raw exports use elevation 0 as a
// placeholder for "not looked up yet"; only artifact rows, which carry a
// source column, keep 0 as a real value.
func (ALERTCalifornia) Normalize(row RawRow) (CameraRecord, error) {
	c, err := rowCoordinate(row)
	if err != nil {
		return CameraRecord{}, err
	}
	name := field(row, "cameraName", "name")
	if name == "" {
		name = alertCAUnknown
	}
	if !strings.HasPrefix(name, alertCAPrefix) {
		name = alertCAPrefix + name
	}
	elev := ParseElevation(field(row, "elevation"))
	if ft, ok := elev.Feet(); ok && ft == 0 && field(row, "source") == "" {
		elev = Unresolved
	}
	return CameraRecord{
		Name:      name,
		Lat:       c.Lat,
		Lon:       c.Lon,
		Source:    SourceALERTCalifornia,
		RawURL:    field(row, "url", "imageURL", "networkURL"),
		Elevation: elev,
	}, nil
}

// ResolveFeed returns an external launcher; the viewer cannot be framed.
func (ALERTCalifornia) ResolveFeed(rec CameraRecord) FeedDescriptor {
	url := rec.RawURL
	degraded := false
	if url == "" {
		url = alertCAViewer
		degraded = true
	}
	d := ExternalLaunchOnly(url, `Open ALERTCalifornia and search for "`+DisplayName(rec.Name)+`".`)
	d.Degraded = degraded
	return d
}
