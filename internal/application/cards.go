package app

import (
	"context"
	"errors"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
)

// CardService wraps catalog lookups for the request layer.
type CardService struct {
	catalog port.Catalog
}

// NewCardService creates the lookup service.
func NewCardService(catalog port.Catalog) *CardService {
	return &CardService{catalog: catalog}
}

// Details returns the catalog record for a Scryfall ID.
func (s *CardService) Details(ctx context.Context, scryfallID string) (*entity.CardDetails, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog is not configured")
	}
	return s.catalog.GetDetails(ctx, scryfallID)
}

// Prices returns current prices for a Scryfall ID.
func (s *CardService) Prices(ctx context.Context, scryfallID string) (*entity.Prices, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog is not configured")
	}
	return s.catalog.GetPrices(ctx, scryfallID)
}

// Resolve turns a vision-provider reading into a concrete catalog record:
// first by set + collector number, then by exact name within the set,
// then by exact name anywhere. Returns (nil, nil) when nothing resolves.
func (s *CardService) Resolve(ctx context.Context, card entity.IdentifiedCard) (*entity.CardDetails, error) {
	if s.catalog == nil {
		return nil, errors.New("catalog is not configured")
	}

	if card.HasPrinting() {
		details, err := s.catalog.GetDetailsBySet(ctx, card.Set, card.CollectorNumber)
		if err != nil {
			return nil, err
		}
		if details != nil {
			return details, nil
		}
	}
	if card.Set != "" {
		details, err := s.catalog.SearchByName(ctx, card.Name, card.Set)
		if err != nil {
			return nil, err
		}
		if details != nil {
			return details, nil
		}
	}
	return s.catalog.SearchByName(ctx, card.Name, "")
}
