package places

import (
	"context"
	"encoding/json"

	"github.com/mekedron/placetour/internal/domain"
)

// Provider response statuses that count as success.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)

// RankByProminence orders results by the provider's relevance ranking.
const RankByProminence = "prominence"

// API describes all places provider operations used by the CLI.
type API interface {
	NearbySearch(ctx context.Context, query NearbyQuery) (NearbyPage, error)
	Photo(ctx context.Context, reference string, maxWidth int) (domain.Image, error)
}

// NearbyQuery controls nearby-search request params.
type NearbyQuery struct {
	Center       domain.GeoPoint
	RadiusMeters float64
	RankBy       string
	Language     string
}

// NearbyPage stores one nearby-search response. Results are kept raw so
// callers can parse entries one by one and drop only the malformed ones.
type NearbyPage struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Results      []json.RawMessage `json:"results"`
}
