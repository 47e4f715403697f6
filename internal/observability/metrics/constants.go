// Package metrics provides constants used across metric definitions.
package metrics

// Operation label values.
const (
	// OpSummary is a Wikipedia page summary lookup.
	OpSummary = "summary"
	// OpSuggest is a Wikipedia opensearch title suggestion.
	OpSuggest = "suggest"
	// OpPageExists is a Wikipedia page existence check.
	OpPageExists = "page_exists"
	// OpEnrich is a species enrichment run.
	OpEnrich = "enrich"
	// OpFetch is a Stormglass point request.
	OpFetch = "fetch"
	// OpRefresh is a spot forecast refresh.
	OpRefresh = "refresh"
	// OpUpsert is a forecast hour upsert batch.
	OpUpsert = "upsert"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusHit     = "hit"
	StatusMiss    = "miss"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketStart64B is the starting bucket for 64 byte histograms.
	BucketStart64B = 64.0
	// BucketStart100B is the starting bucket for 100 byte histograms (100B to ~10MB range).
	BucketStart100B = 100.0

	BucketFactor2  = 2
	BucketFactor10 = 10

	BucketCount6  = 6
	BucketCount10 = 10
	BucketCount12 = 12
)
