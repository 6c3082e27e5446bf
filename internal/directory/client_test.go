package directory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locusaudit/merchant-validation/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.DirectoryConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Timeout:   5 * time.Second,
		MaxPhotos: 2,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const detailsPayload = `{
	"status": "OK",
	"result": {
		"place_id": "place-1",
		"name": "Corner Bakery",
		"formatted_address": "123 Main Street",
		"formatted_phone_number": "+1 555 0100",
		"website": "https://bakery.example",
		"rating": 4.5,
		"user_ratings_total": 120,
		"business_status": "OPERATIONAL",
		"types": ["bakery", "food"],
		"geometry": {"location": {"lat": -23.55, "lng": -46.63}},
		"photos": [
			{"photo_reference": "ref-1"},
			{"photo_reference": "ref-2"},
			{"photo_reference": "ref-3"}
		]
	}
}`

func TestResolveByID(t *testing.T) {
	t.Run("maps a details payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/details/json", r.URL.Path)
			assert.Equal(t, "place-1", r.URL.Query().Get("place_id"))
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			fmt.Fprint(w, detailsPayload)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).ResolveByID(context.Background(), "place-1")
		require.NoError(t, err)
		require.NotNil(t, record)

		assert.Equal(t, "Corner Bakery", record.Name)
		assert.Equal(t, "123 Main Street", record.Address)
		assert.Equal(t, StatusOperating, record.BusinessStatus)
		require.NotNil(t, record.Rating)
		assert.InDelta(t, 4.5, *record.Rating, 0.001)
		assert.InDelta(t, -23.55, record.Location.Lat, 0.001)
		assert.Len(t, record.Photos, 2, "photo URLs are capped at max_photos")
	})

	t.Run("unknown identifier yields absence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "NOT_FOUND"}`)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).ResolveByID(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("transport fault surfaces as error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newTestClient(server.URL).ResolveByID(context.Background(), "place-1")
		assert.Error(t, err)
	})
}

func TestResolveByQuery(t *testing.T) {
	t.Run("resolves the first search hit fully", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/textsearch/json":
				fmt.Fprint(w, `{"status": "OK", "results": [
					{"place_id": "place-1", "name": "Corner Bakery"},
					{"place_id": "place-2", "name": "Bakery Corner"}
				]}`)
			case "/details/json":
				fmt.Fprint(w, detailsPayload)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).ResolveByQuery(context.Background(), "corner bakery main street")
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, "place-1", record.PlaceID)
		assert.Equal(t, "+1 555 0100", record.Phone, "details lookup must enrich the search hit")
	})

	t.Run("no search hits yield absence", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "ZERO_RESULTS", "results": []}`)
		}))
		defer server.Close()

		record, err := newTestClient(server.URL).ResolveByQuery(context.Background(), "ghost shop")
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}

func TestSearch(t *testing.T) {
	t.Run("returns reduced summaries up to the limit", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("query")
			fmt.Fprint(w, `{"status": "OK", "results": [
				{"place_id": "place-1", "name": "Corner Bakery", "formatted_address": "123 Main Street"},
				{"place_id": "place-2", "name": "Bakery Corner", "formatted_address": "456 Oak Avenue"},
				{"place_id": "place-3", "name": "Bread Shop", "formatted_address": "789 Elm Road"}
			]}`)
		}))
		defer server.Close()

		summaries, err := newTestClient(server.URL).Search(context.Background(), "the bakery on main", 2)
		require.NoError(t, err)
		assert.Len(t, summaries, 2)
		assert.Equal(t, "place-1", summaries[0].PlaceID)
		assert.NotContains(t, gotQuery, "the", "stop words must be stripped from the query")
		assert.Contains(t, gotQuery, "bakery",
			"the provider must receive surface forms, not stems")
	})

	t.Run("results are refined by stemmed keyword overlap", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status": "OK", "results": [
				{"place_id": "place-1", "name": "Hardware Store"},
				{"place_id": "place-2", "name": "Corner Bakeries"},
				{"place_id": "place-3", "name": "Flower Shop"}
			]}`)
		}))
		defer server.Close()

		summaries, err := newTestClient(server.URL).Search(context.Background(), "corner bakery", 3)
		require.NoError(t, err)
		require.Len(t, summaries, 3)
		assert.Equal(t, "place-2", summaries[0].PlaceID,
			"the inflected name shares both stems with the query and must rank first")
		assert.Equal(t, "place-1", summaries[1].PlaceID,
			"zero-overlap results keep the provider's relative order")
		assert.Equal(t, "place-3", summaries[2].PlaceID)
	})
}
