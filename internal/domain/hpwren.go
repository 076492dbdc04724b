package domain

// HPWREN is the High Performance Wireless Research and Education Network
// mountaintop camera set. Its exports already carry a direct image URL.
type HPWREN struct{}

func (HPWREN) Source() Source { return SourceHPWREN }

func (HPWREN) Columns() []string { return nil }

func (HPWREN) MarkerColor() string { return "orange" }

func (HPWREN) Normalize(row RawRow) (CameraRecord, error) {
	c, err := rowCoordinate(row)
	if err != nil {
		return CameraRecord{}, err
	}
	return CameraRecord{
		Name:      field(row, "name", "site"),
		Lat:       c.Lat,
		Lon:       c.Lon,
		Source:    SourceHPWREN,
		RawURL:    field(row, "url", "image", "imageURL"),
		Elevation: ParseElevation(field(row, "elevation")),
	}, nil
}

func (HPWREN) ResolveFeed(rec CameraRecord) FeedDescriptor {
	d := DirectImage(rec.RawURL)
	d.Degraded = rec.RawURL == ""
	return d
}
