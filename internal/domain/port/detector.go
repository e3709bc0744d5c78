package port

import (
	"context"
	"image"
)

// CardDetector locates card-shaped regions in a photo and rectifies each
// of them to the canonical card frame.
type CardDetector interface {
	// Detect returns one rectified image per detected card, largest first.
	// Undecodable input or an image with no plausible cards yields an
	// empty slice, not an error.
	Detect(ctx context.Context, imageData []byte) ([]image.Image, error)
}
