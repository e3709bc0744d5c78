package scryfall

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"magic-scanner/internal/domain/entity"
)

const boltJSON = `{
	"id": "abc-123",
	"name": "Lightning Bolt",
	"set": "lea",
	"set_name": "Limited Edition Alpha",
	"collector_number": "161",
	"rarity": "common",
	"layout": "normal",
	"scryfall_uri": "https://scryfall.com/card/lea/161",
	"image_uris": {"normal": "https://img.example/bolt.jpg"},
	"prices": {"usd": "499.99", "usd_foil": null, "eur": "450.00", "tix": null}
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zerolog.Nop()), srv
}

func TestGetDetails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/abc-123", r.URL.Path)
		require.Equal(t, "MagicScanner/1.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, boltJSON)
	}))

	details, err := client.GetDetails(context.Background(), "abc-123")
	require.NoError(t, err)
	require.Equal(t, "Lightning Bolt", details.Name)
	require.Equal(t, "lea", details.Set)
	require.Equal(t, "161", details.CollectorNumber)
	require.Equal(t, "https://img.example/bolt.jpg", details.ImageURL)
	require.NotNil(t, details.Prices.USD)
	require.Equal(t, "499.99", *details.Prices.USD)
	require.Nil(t, details.Prices.USDFoil)
}

func TestGetDetails_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetDetails(context.Background(), "missing")
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestGetDetailsBySet_NotFoundIsNil(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	details, err := client.GetDetailsBySet(context.Background(), "neo", "999")
	require.NoError(t, err)
	require.Nil(t, details)
}

func TestGetDetailsBySet(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/lea/161", r.URL.Path)
		fmt.Fprint(w, boltJSON)
	}))

	details, err := client.GetDetailsBySet(context.Background(), "lea", "161")
	require.NoError(t, err)
	require.Equal(t, "abc-123", details.ScryfallID)
}

func TestSearchByName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cards/search", r.URL.Path)
		require.Equal(t, `!"Lightning Bolt" set:lea`, r.URL.Query().Get("q"))
		require.Equal(t, "prints", r.URL.Query().Get("unique"))
		fmt.Fprintf(w, `{"total_cards": 1, "data": [%s]}`, boltJSON)
	}))

	details, err := client.SearchByName(context.Background(), "Lightning Bolt", "lea")
	require.NoError(t, err)
	require.Equal(t, "Lightning Bolt", details.Name)
}

func TestSearchByName_NoResults(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Scryfall answers an empty search with 404.
		http.NotFound(w, r)
	}))

	details, err := client.SearchByName(context.Background(), "No Such Card", "")
	require.NoError(t, err)
	require.Nil(t, details)
}

func TestGetPrices(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, boltJSON)
	}))

	prices, err := client.GetPrices(context.Background(), "abc-123")
	require.NoError(t, err)
	require.Equal(t, "499.99", *prices.USD)
	require.Equal(t, "450.00", *prices.EUR)
	require.Nil(t, prices.Tix)
}

func TestDownloadAllCards(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/bulk-data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": [
			{"type": "oracle_cards", "download_uri": "%s/bulk/oracle.json"},
			{"type": "default_cards", "download_uri": "%s/bulk/default.json"}
		]}`, srvURL, srvURL)
	})
	mux.HandleFunc("/bulk/default.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[%s, {"id": "faces-1", "name": "Delver of Secrets", "layout": "transform",
			"card_faces": [{"image_uris": {"normal": "https://img.example/delver-front.jpg"}}, {}]}]`, boltJSON)
	})

	client, srv := newTestClient(t, mux)
	srvURL = srv.URL

	cards, err := client.DownloadAllCards(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.Equal(t, "Lightning Bolt", cards[0].Name)
	// Multi-faced card resolves to its front-face image.
	require.Equal(t, "https://img.example/delver-front.jpg", cards[1].ImageURL)
}

func TestDownloadImage(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xff, 0xd8, 0xff})
	}))

	data, err := client.DownloadImage(context.Background(), srv.URL+"/img.jpg")
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xd8, 0xff}, data)
}

func TestDownloadImage_ServerError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.DownloadImage(context.Background(), srv.URL+"/img.jpg")
	require.Error(t, err)
}
