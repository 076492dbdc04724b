package domain

// FeedKind tags the variant held by a FeedDescriptor.
type FeedKind string

const (
	FeedEmbeddablePlayer   FeedKind = "embeddable_player"
	FeedDirectImage        FeedKind = "direct_image"
	FeedExternalLaunchOnly FeedKind = "external_launch_only"
)

// FeedDescriptor tells a viewer how to reach a camera's live feed.
// Instructions is only set for FeedExternalLaunchOnly. Degraded is set when
// a provider heuristic had to fall back to a default, meaning the URL may
// point at the wrong camera.
type FeedDescriptor struct {
	Kind         FeedKind `json:"kind"`
	URL          string   `json:"url"`
	Instructions string   `json:"instructions,omitempty"`
	Degraded     bool     `json:"degraded,omitempty"`
}

// EmbeddablePlayer returns a descriptor for a per-camera web player.
func EmbeddablePlayer(url string) FeedDescriptor {
	return FeedDescriptor{Kind: FeedEmbeddablePlayer, URL: url}
}

// DirectImage returns a descriptor for a still-image or stream URL.
func DirectImage(url string) FeedDescriptor {
	return FeedDescriptor{Kind: FeedDirectImage, URL: url}
}

// ExternalLaunchOnly returns a descriptor for feeds that must be opened on
// the provider's own site.
func ExternalLaunchOnly(url, instructions string) FeedDescriptor {
	return FeedDescriptor{Kind: FeedExternalLaunchOnly, URL: url, Instructions: instructions}
}

// AttachFeeds resolves the feed descriptor of every record through the
// registry. Records whose source has no provider get an external launcher
// for their raw URL. The second return value counts degraded descriptors.
func AttachFeeds(records []CameraRecord, reg *Registry) ([]Camera, int) {
	cameras := make([]Camera, len(records))
	degraded := 0
	for i, rec := range records {
		feed := resolveFeed(rec, reg)
		if feed.Degraded {
			degraded++
		}
		cameras[i] = Camera{CameraRecord: rec, Feed: feed}
	}
	return cameras, degraded
}

func resolveFeed(rec CameraRecord, reg *Registry) FeedDescriptor {
	p, err := reg.Get(rec.Source)
	if err != nil {
		d := ExternalLaunchOnly(rec.RawURL, "Open the provider site and search for "+DisplayName(rec.Name)+".")
		d.Degraded = true
		return d
	}
	return p.ResolveFeed(rec)
}
