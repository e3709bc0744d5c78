package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"magic-scanner/internal/domain/entity"
	"magic-scanner/internal/fingerprint"
)

// fakeDetector returns canned rectified cards.
type fakeDetector struct {
	cards []image.Image
	err   error
}

func (d *fakeDetector) Detect(ctx context.Context, imageData []byte) ([]image.Image, error) {
	return d.cards, d.err
}

// cardImage produces a distinct deterministic raster per seed.
func cardImage(seed uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 122, 170))
	for y := 0; y < 170; y++ {
		for x := 0; x < 122; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*int(seed+3) + y) % 255),
				G: uint8((y*int(seed+7) + x*2) % 255),
				B: uint8((x + y + int(seed)*11) % 255),
				A: 255,
			})
		}
	}
	return img
}

func mustFingerprint(t *testing.T, img image.Image) fingerprint.Fingerprint {
	t.Helper()
	f, err := fingerprint.FromImage(img, 16)
	require.NoError(t, err)
	return f
}

func TestScan_TwoKnownCardsMatchInOrder(t *testing.T) {
	first, second := cardImage(1), cardImage(200)
	corpus := entity.Corpus{
		"card-one": {ScryfallID: "card-one", Fingerprint: mustFingerprint(t, first), Name: "One"},
		"card-two": {ScryfallID: "card-two", Fingerprint: mustFingerprint(t, second), Name: "Two"},
	}

	svc := NewScannerService(&fakeDetector{cards: []image.Image{first, second}}, NewMatcher(corpus, 10), 16, 0, zerolog.Nop())

	results, err := svc.Scan(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].Matched)
	require.Equal(t, "card-one", results[0].ScryfallID)
	require.Equal(t, 100, results[0].Confidence)

	require.True(t, results[1].Matched)
	require.Equal(t, "card-two", results[1].ScryfallID)
	require.Equal(t, 100, results[1].Confidence)
}

func TestScan_NoCardsDetected(t *testing.T) {
	svc := NewScannerService(&fakeDetector{}, NewMatcher(entity.Corpus{}, 10), 16, 0, zerolog.Nop())

	results, err := svc.Scan(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestScan_EmptyCorpusReportsUnmatched(t *testing.T) {
	svc := NewScannerService(&fakeDetector{cards: []image.Image{cardImage(5)}}, NewMatcher(entity.Corpus{}, 10), 16, 0, zerolog.Nop())

	results, err := svc.Scan(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Matched)
}

func TestScan_FingerprintFailureIsolatedPerCard(t *testing.T) {
	good := cardImage(7)
	corpus := entity.Corpus{
		"good-id": {ScryfallID: "good-id", Fingerprint: mustFingerprint(t, good)},
	}

	// A nil image cannot be hashed; the batch must keep going.
	svc := NewScannerService(&fakeDetector{cards: []image.Image{nil, good}}, NewMatcher(corpus, 10), 16, 0, zerolog.Nop())

	results, err := svc.Scan(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.False(t, results[0].Matched)
	require.Contains(t, results[0].Reason, "fingerprint failed")

	require.True(t, results[1].Matched)
	require.Equal(t, "good-id", results[1].ScryfallID)
}

func TestScan_DetectorErrorPropagates(t *testing.T) {
	svc := NewScannerService(&fakeDetector{err: errors.New("boom")}, NewMatcher(entity.Corpus{}, 10), 16, 0, zerolog.Nop())

	_, err := svc.Scan(context.Background(), []byte("photo"))
	require.Error(t, err)
}

func TestScan_NilDetector(t *testing.T) {
	svc := NewScannerService(nil, NewMatcher(entity.Corpus{}, 10), 16, 0, zerolog.Nop())

	_, err := svc.Scan(context.Background(), []byte("photo"))
	require.Error(t, err)
}

func TestIdentifySingle_UsesFirstDetectedCard(t *testing.T) {
	first := cardImage(42)
	corpus := entity.Corpus{
		"only": {ScryfallID: "only", Fingerprint: mustFingerprint(t, first)},
	}
	svc := NewScannerService(&fakeDetector{cards: []image.Image{first, cardImage(99)}}, NewMatcher(corpus, 10), 16, 0, zerolog.Nop())

	result, err := svc.IdentifySingle(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Equal(t, "only", result.ScryfallID)
}

func TestIdentifySingle_NoCardDetected(t *testing.T) {
	svc := NewScannerService(&fakeDetector{}, NewMatcher(entity.Corpus{}, 10), 16, 0, zerolog.Nop())

	result, err := svc.IdentifySingle(context.Background(), []byte("photo"))
	require.NoError(t, err)
	require.False(t, result.Matched)
	require.Equal(t, "no card detected in image", result.Reason)
}
