package port

import (
	"context"

	"magic-scanner/internal/domain/entity"
)

// Catalog is the external card-metadata service.
type Catalog interface {
	// GetDetails returns the card with the given ID, or entity.ErrNotFound.
	GetDetails(ctx context.Context, scryfallID string) (*entity.CardDetails, error)

	// GetDetailsBySet returns the printing with the given set code and
	// collector number, or (nil, nil) when no such printing exists.
	GetDetailsBySet(ctx context.Context, setCode, collectorNumber string) (*entity.CardDetails, error)

	// SearchByName finds a card by exact name, optionally scoped to a set.
	// Returns (nil, nil) when nothing matches.
	SearchByName(ctx context.Context, name, setCode string) (*entity.CardDetails, error)

	// GetPrices returns current prices for the card with the given ID.
	GetPrices(ctx context.Context, scryfallID string) (*entity.Prices, error)

	// DownloadAllCards enumerates every known card via the catalog's bulk
	// data export. Used only by the offline corpus build.
	DownloadAllCards(ctx context.Context) ([]entity.CardDetails, error)

	// DownloadImage fetches a card image, honoring the catalog rate limit.
	DownloadImage(ctx context.Context, url string) ([]byte, error)
}
