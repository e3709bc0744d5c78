// Package fingerprint computes compact perceptual fingerprints of card
// images. Two fingerprints of visually similar images have a small Hamming
// distance, which is what the matcher ranks on.
package fingerprint

import (
	"errors"
	"image"

	"github.com/corona10/goimagehash"
)

// DefaultHashSize is the side length of the DCT hash grid. A 16×16 grid
// yields a 256-bit fingerprint, enough to separate ~100k card printings.
const DefaultHashSize = 16

// Fingerprint is a fixed-length bit vector derived from an image's
// low-frequency content. The zero value is invalid; build one with
// FromImage or restore one from persisted Bits.
type Fingerprint struct {
	Bits []uint64 `json:"bits"`
	Size int      `json:"size"`
}

// FromImage computes a DCT perceptual hash of img. The image must already
// be in RGB channel order; the hash is sensitive to channel permutation.
func FromImage(img image.Image, hashSize int) (Fingerprint, error) {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}
	h, err := goimagehash.ExtPerceptionHash(img, hashSize, hashSize)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{Bits: h.GetHash(), Size: hashSize}, nil
}

// IsZero reports whether f carries no hash data.
func (f Fingerprint) IsZero() bool {
	return len(f.Bits) == 0
}

// Distance returns the Hamming distance to other. It is symmetric and zero
// only for identical bit vectors. Comparing fingerprints of different
// sizes is an error.
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.IsZero() || other.IsZero() {
		return 0, errors.New("fingerprint: distance on empty fingerprint")
	}
	a := goimagehash.NewExtImageHash(f.Bits, goimagehash.PHash, f.Size*f.Size)
	b := goimagehash.NewExtImageHash(other.Bits, goimagehash.PHash, other.Size*other.Size)
	return a.Distance(b)
}

// Equal reports whether the two fingerprints have identical bit vectors.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if f.Size != other.Size || len(f.Bits) != len(other.Bits) {
		return false
	}
	for i := range f.Bits {
		if f.Bits[i] != other.Bits[i] {
			return false
		}
	}
	return true
}
