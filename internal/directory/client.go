package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/normalize"
)

// Client resolves merchants against a Places-style directory API.
type Client struct {
	baseURL    string
	apiKey     string
	maxPhotos  int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a directory client.
func NewClient(cfg config.DirectoryConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		maxPhotos: cfg.MaxPhotos,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// place mirrors the provider's place payload.
type place struct {
	PlaceID              string   `json:"place_id"`
	Name                 string   `json:"name"`
	FormattedAddress     string   `json:"formatted_address"`
	FormattedPhoneNumber string   `json:"formatted_phone_number"`
	Website              string   `json:"website"`
	Rating               *float64 `json:"rating"`
	UserRatingsTotal     *int     `json:"user_ratings_total"`
	BusinessStatus       string   `json:"business_status"`
	Types                []string `json:"types"`
	Geometry             struct {
		Location Location `json:"location"`
	} `json:"geometry"`
	PriceLevel *int `json:"price_level"`
	Photos     []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type searchResponse struct {
	Status  string  `json:"status"`
	Results []place `json:"results"`
}

type detailsResponse struct {
	Status string `json:"status"`
	Result place  `json:"result"`
}

// ResolveByID fetches the directory record for a place identifier. A nil
// record is returned when the identifier is unknown.
func (c *Client) ResolveByID(ctx context.Context, placeID string) (*Record, error) {
	endpoint := fmt.Sprintf("%s/details/json?place_id=%s&key=%s",
		c.baseURL, url.QueryEscape(placeID), url.QueryEscape(c.apiKey))

	var response detailsResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("directory details lookup: %w", err)
	}

	if response.Status != "OK" || response.Result.PlaceID == "" {
		return nil, nil
	}

	return c.toRecord(response.Result), nil
}

// ResolveByQuery runs a text search and returns the most relevant single
// match, or nil when the provider finds nothing.
func (c *Client) ResolveByQuery(ctx context.Context, query string) (*Record, error) {
	results, err := c.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// The provider orders results by relevance; resolve the first hit fully
	// so the record carries phone, website and photo details.
	record, err := c.ResolveByID(ctx, results[0].PlaceID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return c.toRecord(results[0]), nil
	}
	return record, nil
}

// Search returns reduced listings for an interactive query. Stop words are
// stripped from the query before it is sent to the provider; the provider's
// relevance order is then refined locally by stemmed-keyword overlap with
// the original query, stable so ties keep the provider's order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	outbound := query
	if keywords := normalize.Keywords(query); len(keywords) > 0 {
		outbound = strings.Join(keywords, " ")
	}

	results, err := c.search(ctx, outbound)
	if err != nil {
		return nil, err
	}

	queryStems := normalize.Stems(query)
	sort.SliceStable(results, func(i, j int) bool {
		return stemOverlap(queryStems, results[i].Name) > stemOverlap(queryStems, results[j].Name)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	summaries := make([]Summary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, Summary{
			PlaceID:        result.PlaceID,
			Name:           result.Name,
			Address:        result.FormattedAddress,
			Rating:         result.Rating,
			Types:          result.Types,
			BusinessStatus: result.BusinessStatus,
		})
	}

	return summaries, nil
}

func stemOverlap(queryStems map[string]bool, name string) int {
	overlap := 0
	for stem := range normalize.Stems(name) {
		if queryStems[stem] {
			overlap++
		}
	}
	return overlap
}

func (c *Client) search(ctx context.Context, query string) ([]place, error) {
	endpoint := fmt.Sprintf("%s/textsearch/json?query=%s&type=establishment&key=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var response searchResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("directory text search: %w", err)
	}

	if response.Status != "OK" {
		return nil, nil
	}

	return response.Results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) toRecord(p place) *Record {
	record := &Record{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		Address:          p.FormattedAddress,
		Phone:            p.FormattedPhoneNumber,
		Website:          p.Website,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
		BusinessStatus:   p.BusinessStatus,
		Types:            p.Types,
		Location:         p.Geometry.Location,
		PriceLevel:       p.PriceLevel,
	}

	for i, photo := range p.Photos {
		if c.maxPhotos > 0 && i >= c.maxPhotos {
			break
		}
		record.Photos = append(record.Photos,
			fmt.Sprintf("%s/photo?maxwidth=400&photoreference=%s&key=%s",
				c.baseURL, url.QueryEscape(photo.PhotoReference), url.QueryEscape(c.apiKey)))
	}

	return record
}
