package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
)

// MultiIdentifier fans one photo out to several vision providers at once
// and merges their readings. Every provider call is independently
// fallible; one provider failing or hanging never cancels its siblings.
type MultiIdentifier struct {
	providers []port.VisionIdentifier
	log       zerolog.Logger
}

// NewMultiIdentifier creates the merge service over the configured
// providers. An empty provider list is allowed; Identify then reports
// that no providers are configured.
func NewMultiIdentifier(providers []port.VisionIdentifier, log zerolog.Logger) *MultiIdentifier {
	return &MultiIdentifier{providers: providers, log: log}
}

// Identify queries all providers concurrently and merges their results
// position by position.
func (m *MultiIdentifier) Identify(ctx context.Context, imageData []byte) ([]entity.IdentifiedCard, error) {
	if len(m.providers) == 0 {
		return nil, errors.New("no vision providers configured")
	}

	type outcome struct {
		cards []entity.IdentifiedCard
		err   error
	}
	outcomes := make([]outcome, len(m.providers))

	var wg sync.WaitGroup
	for i, p := range m.providers {
		wg.Add(1)
		go func(i int, p port.VisionIdentifier) {
			defer wg.Done()
			cards, err := p.Identify(ctx, imageData)
			if err != nil {
				m.log.Warn().Err(err).Str("provider", p.Name()).Msg("vision provider failed")
			}
			outcomes[i] = outcome{cards: cards, err: err}
		}(i, p)
	}
	wg.Wait()

	succeeded := make([][]entity.IdentifiedCard, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err == nil {
			succeeded = append(succeeded, o.cards)
		}
	}
	if len(succeeded) == 0 {
		return nil, errors.New("all vision providers failed")
	}
	if len(succeeded) == 1 {
		return markAll(succeeded[0], entity.ConfidenceMedium), nil
	}
	return mergeReadings(succeeded[0], succeeded[1]), nil
}

// mergeReadings validates two providers' readings against each other.
// Agreement on the card name is high confidence; on disagreement the
// record that pins down a printing wins.
func mergeReadings(first, second []entity.IdentifiedCard) []entity.IdentifiedCard {
	n := len(first)
	if len(second) > n {
		n = len(second)
	}

	merged := make([]entity.IdentifiedCard, 0, n)
	for i := 0; i < n; i++ {
		var a, b *entity.IdentifiedCard
		if i < len(first) {
			a = &first[i]
		}
		if i < len(second) {
			b = &second[i]
		}

		switch {
		case a != nil && b != nil:
			if sameName(a.Name, b.Name) {
				card := *a
				card.Confidence = entity.ConfidenceHigh
				if !card.HasPrinting() && b.HasPrinting() {
					card.Set = b.Set
					card.CollectorNumber = b.CollectorNumber
				}
				merged = append(merged, card)
				continue
			}
			switch {
			case a.HasPrinting():
				card := *a
				card.Confidence = entity.ConfidenceMedium
				merged = append(merged, card)
			case b.HasPrinting():
				card := *b
				card.Confidence = entity.ConfidenceMedium
				merged = append(merged, card)
			default:
				card := *a
				card.Confidence = entity.ConfidenceLow
				merged = append(merged, card)
			}
		case a != nil:
			card := *a
			card.Confidence = entity.ConfidenceMedium
			merged = append(merged, card)
		case b != nil:
			card := *b
			card.Confidence = entity.ConfidenceMedium
			merged = append(merged, card)
		}
	}
	return merged
}

func markAll(cards []entity.IdentifiedCard, c entity.IdentificationConfidence) []entity.IdentifiedCard {
	out := make([]entity.IdentifiedCard, len(cards))
	for i, card := range cards {
		card.Confidence = c
		out[i] = card
	}
	return out
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
