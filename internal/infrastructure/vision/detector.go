//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Card frame at the real 2.5"×3.5" ratio.
const (
	CardWidth  = 488
	CardHeight = 680
)

// GoCVDetector finds card-shaped quadrilaterals in a photo and warps each
// one into the canonical card frame. The filter bounds were tuned on real
// photos; treat them as parameters, not physical constants.
type GoCVDetector struct {
	MinAreaRatio      float64 // candidate area ≥ this fraction of the image
	MaxAreaRatio      float64 // candidate area ≤ this fraction of the image
	MinAspectRatio    float64 // short side / long side, real cards ≈ 0.716
	MaxAspectRatio    float64
	ApproxEpsilon     float64 // polygon approximation, fraction of perimeter
	MinCorners        int
	MaxCorners        int
	MaxCards          int     // cap on candidates per image
	OrientationMargin float64 // luminance gap that triggers a 180° flip

	log zerolog.Logger
}

// NewGoCVDetector creates a detector with the tuned default bounds.
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

type candidate struct {
	rect gocv.RotatedRect
	area float64
}

// Detect locates cards in the photo and returns them rectified to
// CardWidth×CardHeight, largest first. Undecodable input and images with
// no plausible cards both yield an empty slice.
func (d *GoCVDetector) Detect(ctx context.Context, imageData []byte) ([]image.Image, error) {
	_ = ctx
	mat, err := decodeToMat(imageData)
	if err != nil {
		d.log.Warn().Err(err).Msg("failed to decode image")
		return nil, nil
	}
	defer mat.Close()

	binary := d.preprocess(mat)
	defer binary.Close()

	candidates := d.findCandidates(binary)

	cards := make([]image.Image, 0, len(candidates))
	for i, c := range candidates {
		card, err := d.rectify(mat, c.rect)
		if err != nil {
			// One bad candidate never aborts the batch.
			d.log.Warn().Err(err).Int("candidate", i).Msg("failed to extract card")
			continue
		}
		cards = append(cards, card)
	}

	return cards, nil
}

// preprocess turns the color photo into a binary edge map with card
// outlines closed. Morphology is deliberately minimal: heavier dilation
// merges adjacent cards into one blob.
func (d *GoCVDetector) preprocess(mat gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(edges, &dilated, kernel)

	closed := gocv.NewMat()
	gocv.MorphologyEx(dilated, &closed, gocv.MorphClose, kernel)
	return closed
}

// findCandidates extracts external contours from the binary map and keeps
// the ones shaped like a card seen in perspective.
func (d *GoCVDetector) findCandidates(binary gocv.Mat) []candidate {
	// Only outermost boundaries: card-art details inside a card must not
	// become candidates of their own.
	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	imageArea := float64(binary.Cols() * binary.Rows())
	candidates := make([]candidate, 0, contours.Size())

	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)

		area := gocv.ContourArea(c)
		if area < imageArea*d.MinAreaRatio || area > imageArea*d.MaxAreaRatio {
			continue
		}

		peri := gocv.ArcLength(c, true)
		approx := gocv.ApproxPolyDP(c, d.ApproxEpsilon*peri, true)
		corners := approx.Size()
		approx.Close()
		if corners < d.MinCorners || corners > d.MaxCorners {
			continue
		}

		rect := gocv.MinAreaRect(c)
		if rect.Width == 0 || rect.Height == 0 {
			continue
		}
		aspect := float64(minInt(rect.Width, rect.Height)) / float64(maxInt(rect.Width, rect.Height))
		if aspect < d.MinAspectRatio || aspect > d.MaxAspectRatio {
			continue
		}

		candidates = append(candidates, candidate{rect: rect, area: area})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].area > candidates[j].area
	})
	if len(candidates) > d.MaxCards {
		candidates = candidates[:d.MaxCards]
	}
	return candidates
}

// rectify warps the region under rect into the canonical card frame and
// fixes a card that was photographed upside down.
func (d *GoCVDetector) rectify(mat gocv.Mat, rect gocv.RotatedRect) (image.Image, error) {
	if len(rect.Points) != 4 {
		return nil, fmt.Errorf("expected 4 box points, got %d", len(rect.Points))
	}
	src := orderPoints(rect.Points)

	srcVec := gocv.NewPoint2fVectorFromPoints(src[:])
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0},
		{X: CardWidth - 1, Y: 0},
		{X: CardWidth - 1, Y: CardHeight - 1},
		{X: 0, Y: CardHeight - 1},
	})
	defer dstVec.Close()

	transform := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer transform.Close()

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspective(mat, &warped, transform, image.Pt(CardWidth, CardHeight))
	if warped.Empty() {
		return nil, errors.New("perspective warp produced empty image")
	}

	// Card art is usually darker near the top. If the bottom strip is
	// clearly darker instead, the card is upside down.
	top := stripLuminance(warped, image.Rect(0, 0, CardWidth, 50))
	bottom := stripLuminance(warped, image.Rect(0, CardHeight-50, CardWidth, CardHeight))
	if bottom < top-d.OrientationMargin {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(warped, &rotated, gocv.Rotate180Clockwise)
		return rotated.ToImage()
	}

	// ToImage converts the BGR mat to RGB order, which the perceptual
	// hash depends on.
	return warped.ToImage()
}

// orderPoints arranges the 4 box corners as top-left, top-right,
// bottom-right, bottom-left using the sum/difference of coordinates:
// top-left has the smallest x+y, bottom-right the largest, top-right the
// smallest x−y, bottom-left the largest.
func orderPoints(pts []image.Point) [4]gocv.Point2f {
	var ordered [4]gocv.Point2f
	minSum, maxSum := pts[0].X+pts[0].Y, pts[0].X+pts[0].Y
	minDiff, maxDiff := pts[0].Y-pts[0].X, pts[0].Y-pts[0].X
	tl, br, tr, bl := pts[0], pts[0], pts[0], pts[0]
	for _, p := range pts[1:] {
		sum := p.X + p.Y
		diff := p.Y - p.X
		if sum < minSum {
			minSum, tl = sum, p
		}
		if sum > maxSum {
			maxSum, br = sum, p
		}
		if diff < minDiff {
			minDiff, tr = diff, p
		}
		if diff > maxDiff {
			maxDiff, bl = diff, p
		}
	}
	ordered[0] = gocv.Point2f{X: float32(tl.X), Y: float32(tl.Y)}
	ordered[1] = gocv.Point2f{X: float32(tr.X), Y: float32(tr.Y)}
	ordered[2] = gocv.Point2f{X: float32(br.X), Y: float32(br.Y)}
	ordered[3] = gocv.Point2f{X: float32(bl.X), Y: float32(bl.Y)}
	return ordered
}

// stripLuminance returns the mean gray level of a horizontal strip.
func stripLuminance(mat gocv.Mat, r image.Rectangle) float64 {
	region := mat.Region(r)
	defer region.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	return gray.Mean().Val1
}

// decodeToMat turns raw image bytes into a gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
