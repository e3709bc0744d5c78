package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/domain/port"
	"magic-scanner/internal/fingerprint"
)

// ScannerService runs the detection → fingerprint → match pipeline over a
// photo. Detection and hashing are CPU-bound, so concurrent scans are
// bounded by a semaphore to keep the server responsive.
type ScannerService struct {
	detector port.CardDetector
	matcher  *Matcher
	hashSize int
	sem      *semaphore.Weighted
	log      zerolog.Logger
}

// NewScannerService creates the pipeline orchestrator. maxConcurrent <= 0
// defaults to 4.
func NewScannerService(detector port.CardDetector, matcher *Matcher, hashSize, maxConcurrent int, log zerolog.Logger) *ScannerService {
	if hashSize <= 0 {
		hashSize = fingerprint.DefaultHashSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &ScannerService{
		detector: detector,
		matcher:  matcher,
		hashSize: hashSize,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		log:      log,
	}
}

// Scan detects every card in the photo and matches each against the
// corpus. Result i corresponds to detected card i. A failure on one card
// becomes an unmatched result carrying the reason; it never aborts the
// rest of the batch.
func (s *ScannerService) Scan(ctx context.Context, imageData []byte) ([]entity.MatchResult, error) {
	if s.detector == nil {
		return nil, errors.New("detector is not configured")
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	cards, err := s.detector.Detect(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("detect cards: %w", err)
	}
	s.log.Info().Int("cards", len(cards)).Msg("cards detected")

	results := make([]entity.MatchResult, 0, len(cards))
	for i, card := range cards {
		fp, err := fingerprint.FromImage(card, s.hashSize)
		if err != nil {
			s.log.Warn().Err(err).Int("card", i).Msg("failed to fingerprint card")
			results = append(results, entity.MatchResult{
				Matched: false,
				Reason:  fmt.Sprintf("fingerprint failed: %v", err),
			})
			continue
		}
		results = append(results, s.matcher.Match(fp))
	}
	return results, nil
}

// IdentifySingle runs the pipeline and returns the result for the largest
// detected card. No detected card yields an unmatched result, not an
// error.
func (s *ScannerService) IdentifySingle(ctx context.Context, imageData []byte) (entity.MatchResult, error) {
	results, err := s.Scan(ctx, imageData)
	if err != nil {
		return entity.MatchResult{}, err
	}
	if len(results) == 0 {
		return entity.MatchResult{Matched: false, Reason: "no card detected in image"}, nil
	}
	return results[0], nil
}

// CorpusSize exposes the number of loaded reference entries for health
// reporting.
func (s *ScannerService) CorpusSize() int {
	return s.matcher.CorpusSize()
}
