// Package directory models third-party business-directory records and the
// lookup contract used to resolve merchants against them.
package directory

import "context"

// Business operating statuses reported by the directory provider.
const (
	StatusOperating         = "OPERATIONAL"
	StatusClosedTemporarily = "CLOSED_TEMPORARILY"
	StatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// Location is a geocoordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Record is a canonical business-directory listing. Records are produced by
// the directory provider and never mutated by the core.
type Record struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Types            []string `json:"types"`
	Location         Location `json:"location"`
	PriceLevel       *int     `json:"price_level,omitempty"`
	Photos           []string `json:"photos,omitempty"`
}

// Summary is the reduced listing returned by interactive searches.
type Summary struct {
	PlaceID        string   `json:"place_id"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Rating         *float64 `json:"rating,omitempty"`
	Types          []string `json:"types"`
	BusinessStatus string   `json:"business_status,omitempty"`
}

// Lookup is the directory collaborator contract. Both methods return a nil
// record for "no match"; an error indicates the provider could not be
// reached, which callers treat as no record resolved.
type Lookup interface {
	ResolveByID(ctx context.Context, placeID string) (*Record, error)
	ResolveByQuery(ctx context.Context, query string) (*Record, error)
}
