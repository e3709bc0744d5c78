package app

import (
	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/fingerprint"
)

// DefaultMatchThreshold is the largest Hamming distance still accepted as
// a match for 16×16 fingerprints.
const DefaultMatchThreshold = 10

// Matcher finds the closest reference entry for a fingerprint. The corpus
// is read-only after construction, so one Matcher serves concurrent
// requests without locking.
type Matcher struct {
	corpus    entity.Corpus
	threshold int
}

// NewMatcher creates a matcher over the given corpus. threshold <= 0
// selects the default.
func NewMatcher(corpus entity.Corpus, threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Matcher{corpus: corpus, threshold: threshold}
}

// CorpusSize returns the number of reference entries.
func (m *Matcher) CorpusSize() int {
	return len(m.corpus)
}

// Match scans the whole corpus for the entry nearest to fp. Distances
// above the threshold are reported as unmatched. When several entries are
// equidistant the lexicographically smallest Scryfall ID wins, so results
// do not depend on map iteration order.
func (m *Matcher) Match(fp fingerprint.Fingerprint) entity.MatchResult {
	if len(m.corpus) == 0 {
		return entity.MatchResult{Matched: false, Reason: "reference corpus is empty"}
	}

	bestID := ""
	bestDistance := -1
	for id, ref := range m.corpus {
		d, err := fp.Distance(ref.Fingerprint)
		if err != nil {
			continue
		}
		if bestDistance < 0 || d < bestDistance || (d == bestDistance && id < bestID) {
			bestDistance = d
			bestID = id
		}
	}

	if bestDistance < 0 {
		return entity.MatchResult{Matched: false, Reason: "no comparable fingerprints in corpus"}
	}
	if bestDistance > m.threshold {
		return entity.MatchResult{Matched: false, Reason: "no close match found"}
	}
	return entity.MatchResult{
		Matched:    true,
		ScryfallID: bestID,
		Distance:   bestDistance,
		Confidence: entity.Confidence(bestDistance),
	}
}
