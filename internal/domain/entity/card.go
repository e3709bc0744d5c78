package entity

import (
	"magic-scanner/internal/fingerprint"
)

// ReferenceEntry is one known card printing in the reference corpus.
type ReferenceEntry struct {
	ScryfallID      string                  `json:"scryfall_id"`
	Fingerprint     fingerprint.Fingerprint `json:"fingerprint"`
	Name            string                  `json:"name"`
	Set             string                  `json:"set"`
	SetName         string                  `json:"set_name"`
	CollectorNumber string                  `json:"collector_number"`
	Rarity          string                  `json:"rarity"`
}

// Corpus maps Scryfall ID to its reference entry. It is built offline,
// loaded once at startup and never mutated while the service is running,
// so matching against it needs no locking.
type Corpus map[string]ReferenceEntry

// Prices holds the current market prices of a printing. Fields are nil
// when the catalog has no listing for that market.
type Prices struct {
	USD     *string `json:"usd"`
	USDFoil *string `json:"usd_foil"`
	EUR     *string `json:"eur"`
	Tix     *string `json:"tix"`
}

// CardDetails is a card record as returned by the external catalog.
type CardDetails struct {
	ScryfallID      string `json:"id"`
	Name            string `json:"name"`
	Set             string `json:"set"`
	SetName         string `json:"set_name"`
	CollectorNumber string `json:"collector_number"`
	Rarity          string `json:"rarity"`
	Layout          string `json:"layout"`
	ImageURL        string `json:"image_url"`
	ScryfallURI     string `json:"scryfall_uri"`
	Prices          Prices `json:"prices"`
}
