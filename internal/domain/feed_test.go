package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaltrans_ResolveFeed(t *testing.T) {
	p := NewCaltrans("")

	t.Run("district and id derived", func(t *testing.T) {
		rec := CameraRecord{Name: testMariposa, Source: SourceCaltrans, RawURL: testCaltransImage}
		d := p.ResolveFeed(rec)

		assert.Equal(t, FeedEmbeddablePlayer, d.Kind)
		assert.Equal(t, "https://cwwp2.dot.ca.gov/vm/loc/d10/sr41mariposa.htm", d.URL)
		assert.False(t, d.Degraded)
		assert.Empty(t, d.Instructions)
	})

	t.Run("missing district falls back", func(t *testing.T) {
		rec := CameraRecord{Name: "SR-198 : Hanford", Source: SourceCaltrans, RawURL: "https://example.org/image.jpg"}
		d := p.ResolveFeed(rec)

		assert.Equal(t, "https://cwwp2.dot.ca.gov/vm/loc/d6/sr198hanford.htm", d.URL)
		assert.True(t, d.Degraded)
	})

	t.Run("configured default district", func(t *testing.T) {
		d := NewCaltrans(" D9 ").ResolveFeed(CameraRecord{Name: "US-395 : Olancha"})
		assert.Equal(t, "https://cwwp2.dot.ca.gov/vm/loc/d9/us395olancha.htm", d.URL)
	})

	t.Run("name without alphanumerics", func(t *testing.T) {
		d := p.ResolveFeed(CameraRecord{Name: " -- : ", RawURL: testCaltransImage})
		assert.Equal(t, "https://cwwp2.dot.ca.gov/vm/loc/d10/unknown.htm", d.URL)
		assert.True(t, d.Degraded)
	})

	t.Run("deterministic", func(t *testing.T) {
		rec := CameraRecord{Name: testMariposa, RawURL: testCaltransImage}
		assert.Equal(t, p.ResolveFeed(rec), p.ResolveFeed(rec))
	})
}

func TestCaltransDistrict(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{testCaltransImage, "d10", true},
		{"https://cwwp2.dot.ca.gov/data/D6/cctv/image/x.jpg", "d6", true},
		{"https://cwwp2.dot.ca.gov/data/district/cctv/x.jpg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CaltransDistrict(tt.url)
		assert.Equal(t, tt.want, got, tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
	}
}

func TestCaltransCameraID(t *testing.T) {
	id, ok := CaltransCameraID(testMariposa)
	assert.True(t, ok)
	assert.Equal(t, "sr41mariposa", id)

	id, ok = CaltransCameraID("I-5 @ Kettleman City (NB)")
	assert.True(t, ok)
	assert.Equal(t, "i5kettlemancitynb", id)

	id, ok = CaltransCameraID("")
	assert.False(t, ok)
	assert.Equal(t, "unknown", id)
}

func TestALERTCalifornia_ResolveFeed(t *testing.T) {
	d := ALERTCalifornia{}.ResolveFeed(CameraRecord{Name: "ALERTCA: Park Ridge 1", RawURL: "https://example.org/park.jpg"})

	assert.Equal(t, FeedExternalLaunchOnly, d.Kind)
	assert.Equal(t, "https://example.org/park.jpg", d.URL)
	assert.Equal(t, `Open ALERTCalifornia and search for "Park Ridge 1".`, d.Instructions)
	assert.False(t, d.Degraded)

	d = ALERTCalifornia{}.ResolveFeed(CameraRecord{Name: "ALERTCA: Unknown"})
	assert.Equal(t, "https://ops.alertcalifornia.org/", d.URL)
	assert.True(t, d.Degraded)
}

func TestHPWREN_ResolveFeed(t *testing.T) {
	d := HPWREN{}.ResolveFeed(CameraRecord{Name: "Bald Mountain", RawURL: "https://example.org/bald.jpg"})
	assert.Equal(t, DirectImage("https://example.org/bald.jpg"), d)

	d = HPWREN{}.ResolveFeed(CameraRecord{Name: "Bald Mountain"})
	assert.True(t, d.Degraded)
}

func TestAttachFeeds(t *testing.T) {
	reg := DefaultRegistry("")
	records := []CameraRecord{
		{Name: testMariposa, Source: SourceCaltrans, RawURL: testCaltransImage},
		{Name: "SR-99 : Tulare", Source: SourceCaltrans, RawURL: "https://example.org/x.jpg"},
		{Name: "Bald Mountain", Source: SourceHPWREN, RawURL: "https://example.org/bald.jpg"},
		{Name: "Mystery", Source: Source("Elsewhere"), RawURL: "https://example.org/m"},
	}

	cameras, degraded := AttachFeeds(records, reg)

	require.Len(t, cameras, 4)
	assert.Equal(t, 2, degraded)
	assert.Equal(t, FeedEmbeddablePlayer, cameras[0].Feed.Kind)
	assert.Equal(t, FeedDirectImage, cameras[2].Feed.Kind)
	assert.Equal(t, FeedExternalLaunchOnly, cameras[3].Feed.Kind)
	assert.Equal(t, records[3], cameras[3].CameraRecord)
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry("")

	assert.Equal(t, []Source{SourceCaltrans, SourceALERTCalifornia, SourceHPWREN}, reg.Sources())

	src, err := reg.ParseSource(" hpwren ")
	require.NoError(t, err)
	assert.Equal(t, SourceHPWREN, src)

	_, err = reg.ParseSource("nope")
	require.ErrorIs(t, err, ErrUnknownSource)

	_, err = reg.Get(Source("nope"))
	require.ErrorIs(t, err, ErrUnknownSource)

	assert.Equal(t, "blue", reg.MarkerColor(SourceCaltrans))
	assert.Equal(t, MixedSourceColor, reg.MarkerColor(Source("nope")))
}
