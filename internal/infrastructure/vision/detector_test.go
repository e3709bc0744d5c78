//go:build gocv
// +build gocv

package vision

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func encodePNG(t *testing.T, mat gocv.Mat) []byte {
	t.Helper()
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	require.NoError(t, err)
	defer buf.Close()
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data
}

// cardScene draws a single card-shaped rectangle (aspect 0.716) on a black
// 1200×900 background. topGray/bottomGray set the gray level of the upper
// and lower halves of the card.
func cardScene(t *testing.T, topGray, bottomGray uint8) []byte {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 900, 1200, gocv.MatTypeCV8UC3)
	defer mat.Close()

	top := color.RGBA{R: topGray, G: topGray, B: topGray, A: 255}
	bottom := color.RGBA{R: bottomGray, G: bottomGray, B: bottomGray, A: 255}
	// 358×500 card, aspect = 358/500 = 0.716.
	gocv.Rectangle(&mat, image.Rect(350, 150, 708, 400), top, -1)
	gocv.Rectangle(&mat, image.Rect(350, 400, 708, 650), bottom, -1)

	return encodePNG(t, mat)
}

func stripMean(img image.Image, top bool) float64 {
	b := img.Bounds()
	y0, y1 := b.Min.Y, b.Min.Y+50
	if !top {
		y0, y1 = b.Max.Y-50, b.Max.Y
	}
	var sum, n float64
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum += float64(r>>8+g>>8+bl>>8) / 3
			n++
		}
	}
	return sum / n
}

func TestDetect_SolidImageHasNoCards(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 90, 90, 0), 600, 800, gocv.MatTypeCV8UC3)
	defer mat.Close()

	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), encodePNG(t, mat))
	require.NoError(t, err)
	require.Empty(t, cards)
}

func TestDetect_UndecodableInputIsEmptyNotError(t *testing.T) {
	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), []byte("not an image"))
	require.NoError(t, err)
	require.Empty(t, cards)
}

func TestDetect_SingleCardIsRectifiedToCanonicalFrame(t *testing.T) {
	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), cardScene(t, 220, 220))
	require.NoError(t, err)
	require.Len(t, cards, 1)

	b := cards[0].Bounds()
	require.Equal(t, CardWidth, b.Dx())
	require.Equal(t, CardHeight, b.Dy())
}

func TestDetect_UpsideDownCardIsRotated(t *testing.T) {
	// Bright top, much darker bottom: the orientation heuristic reads this
	// as upside down and flips it, leaving the dark strip on top.
	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), cardScene(t, 230, 100))
	require.NoError(t, err)
	require.Len(t, cards, 1)

	require.Less(t, stripMean(cards[0], true), stripMean(cards[0], false))
}

func TestDetect_NormalCardIsNotRotated(t *testing.T) {
	// Darker art at the top is the normal orientation; no flip.
	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), cardScene(t, 150, 230))
	require.NoError(t, err)
	require.Len(t, cards, 1)

	require.Less(t, stripMean(cards[0], true), stripMean(cards[0], false))
}

func TestDetect_TwoCards(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 900, 1600, gocv.MatTypeCV8UC3)
	defer mat.Close()

	white := color.RGBA{R: 220, G: 220, B: 220, A: 255}
	gocv.Rectangle(&mat, image.Rect(100, 150, 458, 650), white, -1)
	gocv.Rectangle(&mat, image.Rect(900, 150, 1258, 650), white, -1)

	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), encodePNG(t, mat))
	require.NoError(t, err)
	require.Len(t, cards, 2)
}

func TestDetect_WrongAspectIsRejected(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 900, 1200, gocv.MatTypeCV8UC3)
	defer mat.Close()

	// A square is well outside the card aspect band.
	white := color.RGBA{R: 220, G: 220, B: 220, A: 255}
	gocv.Rectangle(&mat, image.Rect(400, 250, 800, 650), white, -1)

	d := NewGoCVDetector(zerolog.Nop())
	cards, err := d.Detect(context.Background(), encodePNG(t, mat))
	require.NoError(t, err)
	require.Empty(t, cards)
}

func TestOrderPoints(t *testing.T) {
	pts := []image.Point{{X: 90, Y: 10}, {X: 10, Y: 12}, {X: 12, Y: 110}, {X: 92, Y: 112}}
	ordered := orderPoints(pts)

	require.Equal(t, gocv.Point2f{X: 10, Y: 12}, ordered[0])   // top-left
	require.Equal(t, gocv.Point2f{X: 90, Y: 10}, ordered[1])   // top-right
	require.Equal(t, gocv.Point2f{X: 92, Y: 112}, ordered[2])  // bottom-right
	require.Equal(t, gocv.Point2f{X: 12, Y: 110}, ordered[3])  // bottom-left
}
