//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
	"image"

	"github.com/rs/zerolog"
)

// Card frame at the real 2.5"×3.5" ratio.
const (
	CardWidth  = 488
	CardHeight = 680
)

// GoCVDetector is the no-OpenCV stand-in built without the gocv tag.
type GoCVDetector struct {
	MinAreaRatio      float64
	MaxAreaRatio      float64
	MinAspectRatio    float64
	MaxAspectRatio    float64
	ApproxEpsilon     float64
	MinCorners        int
	MaxCorners        int
	MaxCards          int
	OrientationMargin float64

	log zerolog.Logger
}

// NewGoCVDetector creates a stub detector (built without OpenCV).
func NewGoCVDetector(log zerolog.Logger) *GoCVDetector {
	return &GoCVDetector{
		MinAreaRatio:      0.01,
		MaxAreaRatio:      0.75,
		MinAspectRatio:    0.50,
		MaxAspectRatio:    0.90,
		ApproxEpsilon:     0.04,
		MinCorners:        3,
		MaxCorners:        8,
		MaxCards:          15,
		OrientationMargin: 20,
		log:               log,
	}
}

// Detect returns an error when the binary was built without the gocv tag.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) ([]image.Image, error) {
	_ = ctx
	_ = imageData
	return nil, errors.New("gocv build tag is not enabled")
}
