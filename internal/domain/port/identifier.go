package port

import (
	"context"

	"magic-scanner/internal/domain/entity"
)

// VisionIdentifier reads card names directly off a photo using a vision
// model. It is the alternative identification path next to perceptual
// matching.
type VisionIdentifier interface {
	// Name identifies the provider in logs and merge decisions.
	Name() string

	// Identify returns the cards the provider can read in the image.
	Identify(ctx context.Context, imageData []byte) ([]entity.IdentifiedCard, error)
}
