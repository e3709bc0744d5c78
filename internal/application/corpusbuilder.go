package app

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
	"magic-scanner/internal/fingerprint"
)

// checkpointEvery is how many processed cards pass between snapshot
// saves; a crash loses at most this much work.
const checkpointEvery = 1000

// BuildOptions tunes one corpus build run.
type BuildOptions struct {
	Limit         int  // stop after this many cards (0 = all)
	HashSize      int  // fingerprint grid size (0 = default)
	IncludeTokens bool // keep token layouts instead of skipping them
}

// CorpusBuilder is the offline batch job that turns the catalog's bulk
// export into the reference corpus: download every card image,
// fingerprint it and checkpoint the growing snapshot.
type CorpusBuilder struct {
	catalog port.Catalog
	store   port.CorpusStore
	log     zerolog.Logger
}

// NewCorpusBuilder creates the build job.
func NewCorpusBuilder(catalog port.Catalog, store port.CorpusStore, log zerolog.Logger) *CorpusBuilder {
	return &CorpusBuilder{catalog: catalog, store: store, log: log}
}

// Build enumerates the catalog, fingerprints every card with a usable
// image and saves the resulting corpus. Per-card failures are logged and
// skipped; only enumeration or snapshot failures abort the run.
func (b *CorpusBuilder) Build(ctx context.Context, opts BuildOptions) (entity.Corpus, error) {
	hashSize := opts.HashSize
	if hashSize <= 0 {
		hashSize = fingerprint.DefaultHashSize
	}

	allCards, err := b.catalog.DownloadAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate cards: %w", err)
	}

	candidates := make([]entity.CardDetails, 0, len(allCards))
	for _, card := range allCards {
		if !opts.IncludeTokens && card.Layout == "token" {
			continue
		}
		if card.ImageURL == "" {
			continue
		}
		candidates = append(candidates, card)
	}
	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	b.log.Info().Int("total", len(allCards)).Int("candidates", len(candidates)).Msg("starting corpus build")

	corpus := entity.Corpus{}
	failed := 0
	for i, card := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := b.fingerprintCard(ctx, card, hashSize)
		if err != nil {
			b.log.Warn().Err(err).Str("card", card.Name).Msg("skipping card")
			failed++
			continue
		}
		corpus[card.ScryfallID] = entry

		if (i+1)%checkpointEvery == 0 {
			if err := b.store.Save(ctx, corpus); err != nil {
				return nil, fmt.Errorf("checkpoint corpus: %w", err)
			}
			b.log.Info().Int("processed", i+1).Int("entries", len(corpus)).Msg("checkpoint saved")
		}
	}

	if err := b.store.Save(ctx, corpus); err != nil {
		return nil, fmt.Errorf("save corpus: %w", err)
	}
	b.log.Info().Int("entries", len(corpus)).Int("failed", failed).Msg("corpus build complete")
	return corpus, nil
}

func (b *CorpusBuilder) fingerprintCard(ctx context.Context, card entity.CardDetails, hashSize int) (entity.ReferenceEntry, error) {
	data, err := b.catalog.DownloadImage(ctx, card.ImageURL)
	if err != nil {
		return entity.ReferenceEntry{}, fmt.Errorf("download image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.ReferenceEntry{}, fmt.Errorf("decode image: %w", err)
	}

	fp, err := fingerprint.FromImage(img, hashSize)
	if err != nil {
		return entity.ReferenceEntry{}, fmt.Errorf("fingerprint image: %w", err)
	}

	return entity.ReferenceEntry{
		ScryfallID:      card.ScryfallID,
		Fingerprint:     fp,
		Name:            card.Name,
		Set:             card.Set,
		SetName:         card.SetName,
		CollectorNumber: card.CollectorNumber,
		Rarity:          card.Rarity,
	}, nil
}
