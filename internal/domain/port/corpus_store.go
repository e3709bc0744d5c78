package port

import (
	"context"

	"magic-scanner/internal/domain/entity"
)

// CorpusStore persists the reference corpus snapshot.
type CorpusStore interface {
	// Load reads the persisted corpus. A missing or unreadable snapshot
	// returns an empty corpus together with the error so the caller can
	// log it and keep starting up.
	Load(ctx context.Context) (entity.Corpus, error)

	// Save writes the full corpus snapshot atomically.
	Save(ctx context.Context, corpus entity.Corpus) error
}
