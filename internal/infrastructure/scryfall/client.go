// Package scryfall implements the card-metadata catalog client.
package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
)

// DefaultBaseURL is the public Scryfall API endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

const (
	userAgent      = "MagicScanner/1.0"
	requestTimeout = 30 * time.Second
	// Bulk exports run to ~100MB and deserve a longer deadline.
	bulkTimeout = 5 * time.Minute
)

// Client talks to the Scryfall API. All calls share one rate limiter
// honoring Scryfall's 10 requests/second policy; the wait is cooperative
// and context-aware.
type Client struct {
	baseURL    string
	httpClient *http.Client
	bulkClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a catalog client. Pass an empty baseURL for the
// public API.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		bulkClient: &http.Client{Timeout: bulkTimeout},
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
		log:        log,
	}
}

// scryfallCard mirrors the subset of the catalog's card object we use.
type scryfallCard struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	Layout          string `json:"layout"`
	ScryfallURI     string `json:"scryfall_uri"`
	ImageURIs       *struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
	CardFaces []struct {
		ImageURIs *struct {
			Normal string `json:"normal"`
		} `json:"image_uris"`
	} `json:"card_faces"`
	Prices struct {
		USD     *string `json:"usd"`
		USDFoil *string `json:"usd_foil"`
		EUR     *string `json:"eur"`
		Tix     *string `json:"tix"`
	} `json:"prices"`
}

func (c scryfallCard) toDetails() entity.CardDetails {
	return entity.CardDetails{
		ScryfallID:      c.ID,
		Name:            c.Name,
		Set:             c.Set,
		SetName:         c.SetName,
		CollectorNumber: c.CollectorNumber,
		Rarity:          c.Rarity,
		Layout:          c.Layout,
		ImageURL:        c.imageURL(),
		ScryfallURI:     c.ScryfallURI,
		Prices: entity.Prices{
			USD:     c.Prices.USD,
			USDFoil: c.Prices.USDFoil,
			EUR:     c.Prices.EUR,
			Tix:     c.Prices.Tix,
		},
	}
}

// imageURL picks the card's primary image, preferring the front face of
// multi-faced cards. Empty when the printing has no image at all.
func (c scryfallCard) imageURL() string {
	if c.ImageURIs != nil {
		return c.ImageURIs.Normal
	}
	if len(c.CardFaces) > 0 && c.CardFaces[0].ImageURIs != nil {
		return c.CardFaces[0].ImageURIs.Normal
	}
	return ""
}

// get performs one rate-limited request and decodes the JSON body into out.
// A 404 response returns entity.ErrNotFound.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scryfall request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return entity.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scryfall request %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetDetails returns the card with the given Scryfall ID.
func (c *Client) GetDetails(ctx context.Context, scryfallID string) (*entity.CardDetails, error) {
	var card scryfallCard
	if err := c.get(ctx, "/cards/"+scryfallID, nil, &card); err != nil {
		return nil, err
	}
	details := card.toDetails()
	return &details, nil
}

// GetDetailsBySet returns the printing with the given set code and
// collector number, or (nil, nil) when it does not exist.
func (c *Client) GetDetailsBySet(ctx context.Context, setCode, collectorNumber string) (*entity.CardDetails, error) {
	var card scryfallCard
	err := c.get(ctx, fmt.Sprintf("/cards/%s/%s", setCode, collectorNumber), nil, &card)
	if errors.Is(err, entity.ErrNotFound) {
		c.log.Debug().Str("set", setCode).Str("number", collectorNumber).Msg("card not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	details := card.toDetails()
	return &details, nil
}

// SearchByName finds a card by exact name, optionally scoped to a set.
// Returns (nil, nil) when nothing matches.
func (c *Client) SearchByName(ctx context.Context, name, setCode string) (*entity.CardDetails, error) {
	q := fmt.Sprintf("!%q", name)
	if setCode != "" {
		q += " set:" + setCode
	}
	query := url.Values{}
	query.Set("q", q)
	query.Set("unique", "prints")

	var result struct {
		TotalCards int            `json:"total_cards"`
		Data       []scryfallCard `json:"data"`
	}
	err := c.get(ctx, "/cards/search", query, &result)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if result.TotalCards == 0 || len(result.Data) == 0 {
		return nil, nil
	}
	details := result.Data[0].toDetails()
	return &details, nil
}

// GetPrices returns current prices for a card.
func (c *Client) GetPrices(ctx context.Context, scryfallID string) (*entity.Prices, error) {
	details, err := c.GetDetails(ctx, scryfallID)
	if err != nil {
		return nil, err
	}
	prices := details.Prices
	return &prices, nil
}

// DownloadAllCards fetches the default-cards bulk export and returns every
// card in it. The export is large; this is only used by the offline
// corpus build.
func (c *Client) DownloadAllCards(ctx context.Context) ([]entity.CardDetails, error) {
	var bulk struct {
		Data []struct {
			Type        string `json:"type"`
			DownloadURI string `json:"download_uri"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/bulk-data", nil, &bulk); err != nil {
		return nil, fmt.Errorf("list bulk data: %w", err)
	}

	var downloadURI string
	for _, item := range bulk.Data {
		if item.Type == "default_cards" {
			downloadURI = item.DownloadURI
			break
		}
	}
	if downloadURI == "" {
		return nil, fmt.Errorf("default_cards bulk data not found")
	}

	c.log.Info().Str("url", downloadURI).Msg("downloading bulk card data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURI, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.bulkClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download bulk data: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download bulk data: unexpected status %d", resp.StatusCode)
	}

	var cards []scryfallCard
	if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
		return nil, fmt.Errorf("decode bulk data: %w", err)
	}

	details := make([]entity.CardDetails, 0, len(cards))
	for _, card := range cards {
		details = append(details, card.toDetails())
	}
	c.log.Info().Int("cards", len(details)).Msg("bulk card data downloaded")
	return details, nil
}

// DownloadImage fetches one card image through the shared rate limiter.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var _ port.Catalog = (*Client)(nil)
