// Package domain models traffic and wildfire camera listings aggregated from
// several independent camera networks.
//
// # Providers
//
// Each network ("provider") publishes its own export shape. A [Provider]
// variant owns everything that is specific to one network: how its rows map
// onto a [CameraRecord], how a viewer reaches the feed ([FeedDescriptor]) and
// which marker color the map uses for it. Adding a network means adding one
// variant and registering it; nothing else branches on the source tag.
//
//	Caltrans:        CCTV export. Columns are positional (lon, lat, name,
//	                 description) and the description holds an HTML fragment
//	                 whose src="..." attribute is the still-image URL, e.g.
//	                 https://cwwp2.dot.ca.gov/data/d10/cctv/image/....jpg.
//	                 Feeds open in the Caltrans per-camera player.
//	ALERTCalifornia: wildfire cameras from the ArcGIS FeatureServer. Names are
//	                 shown as "ALERTCA: <camera>". The viewer refuses to be
//	                 embedded, so feeds are launched externally.
//	HPWREN:          mountaintop cameras with a direct still-image URL.
//
// # Canonical artifact
//
// The enrichment job writes one CSV per provider with the columns
//
//	lon, lat, name, url, elevation, source
//
// Every provider also accepts this shape, so normalizing an artifact again is
// a no-op. An empty elevation cell means the lookup did not succeed; "0" is a
// real sea-level reading.
//
// # Elevation
//
// Elevations come from the USGS Elevation Point Query Service in feet. The
// service sometimes returns the value as a string and uses -1000000 for
// points outside its coverage; both are handled by [CoerceFeet].
//
// # Location groups
//
// Cameras mounted on the same pole or ridge are reported with slightly
// different coordinates by different networks. [Grouper] snaps coordinates
// onto a decimal grid (4 places, roughly 11 m) and lets a record join a group
// whose cell is adjacent to its own, so one marker represents one site.
package domain
