// Package dhash computes a 64-bit difference hash: a reproducible,
// illumination-tolerant perceptual signature. The image is downscaled to a
// 9×8 grayscale grid and each bit records the sign of one horizontal
// brightness gradient, so near-duplicate images (resizes, recompressions,
// mild brightness shifts) produce hashes with small Hamming distance.
package dhash

import (
	"image"
	"io"

	// Raster decoders registered for Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/fwojciec/rulekit"
)

// Grid dimensions: hashW+1 columns yield hashW gradients per row.
const (
	hashW = 8
	hashH = 8
)

// Ensure Hasher implements rulekit.Hasher at compile time.
var _ rulekit.Hasher = (*Hasher)(nil)

// Hasher computes difference hashes.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash computes the 64-bit difference hash of an image. The zero hash is
// reserved for "no hash"; an image that genuinely hashes to zero (e.g., a
// uniform fill) is nudged to the adjacent value so it stays clusterable.
func (h *Hasher) Hash(img image.Image) rulekit.PerceptualHash {
	gray := image.NewGray(image.Rect(0, 0, hashW+1, hashH))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var bits uint64
	for y := 0; y < hashH; y++ {
		for x := 0; x < hashW; x++ {
			bits <<= 1
			if gray.GrayAt(x, y).Y < gray.GrayAt(x+1, y).Y {
				bits |= 1
			}
		}
	}
	if bits == uint64(rulekit.HashZero) {
		bits = 1
	}
	return rulekit.PerceptualHash(bits)
}

// Decode reads and decodes a raster image in any registered format
// (png, jpeg, gif, webp).
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, rulekit.Errorf(rulekit.EUNAVAILABLE, "decode image: %v", err)
	}
	return img, nil
}
