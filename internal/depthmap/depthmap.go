// Package depthmap computes the per-pixel embedding depth (1 or 2 LSBs)
// from a cover image's gradient. The rule is deterministic in the cover
// alone: the same RGB samples always produce the same map, on both the
// embedding and extracting side.
package depthmap

import (
	"image"
	"image/color"
)

// epsilon guards the normalization divide against a perfectly flat image.
const epsilon = 1e-6

// threshold is the normalized-Laplacian-magnitude cutoff above which a
// pixel earns the second LSB.
const threshold = 0.25

// Map is a W×H array of per-pixel depths in {0, 1, 2}, row-major. Depth 0
// is reserved for a future edge-skipping policy; the current threshold
// rule never produces it, but the engine must still tolerate it (spec.md
// §9).
type Map struct {
	Width, Height int
	Depth         []uint8
}

// At returns the depth at (x, y).
func (m *Map) At(x, y int) uint8 {
	return m.Depth[y*m.Width+x]
}

// Sum returns the total number of LSBs available across the whole map,
// i.e. sum(depth_map).
func (m *Map) Sum() int {
	total := 0
	for _, d := range m.Depth {
		total += int(d)
	}
	return total
}

// Compute derives the edge-depth map for img: luminance (BT.601 weights,
// on samples with their two low bits cleared), a 3x3 discrete Laplacian, absolute magnitude normalized by (max+eps),
// thresholded at 0.25.
func Compute(img image.Image) *Map {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	lum := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum[y*w+x] = luminance(img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	mag := make([]float64, w*h)
	maxMag := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := laplacianAt(lum, w, h, x, y)
			if v < 0 {
				v = -v
			}
			mag[y*w+x] = v
			if v > maxMag {
				maxMag = v
			}
		}
	}

	depth := make([]uint8, w*h)
	for i, v := range mag {
		norm := v / (maxMag + epsilon)
		if norm > threshold {
			depth[i] = 2
		} else {
			depth[i] = 1
		}
	}

	return &Map{Width: w, Height: h, Depth: depth}
}

// luminance converts an RGB color to standard BT.601/709-style gray.
// The two low bits of each channel (the most the engine ever rewrites)
// are cleared first, so a stego image yields the same map as its cover.
func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	// color.Color.RGBA returns 16-bit-scaled premultiplied values; for
	// opaque 8-bit sources (our decode path always produces opaque RGB)
	// shifting right by 8 recovers the 8-bit channel value.
	r8 := float64((r >> 8) &^ 3)
	g8 := float64((g >> 8) &^ 3)
	b8 := float64((b >> 8) &^ 3)
	return 0.299*r8 + 0.587*g8 + 0.114*b8
}

// laplacianAt applies the discrete Laplacian kernel
// [[0,1,0],[1,-4,1],[0,1,0]] at (x, y), clamping at image edges by
// reusing the center value for out-of-bounds neighbors.
func laplacianAt(lum []float64, w, h, x, y int) float64 {
	center := lum[y*w+x]
	up := sampleOrCenter(lum, w, h, x, y-1, center)
	down := sampleOrCenter(lum, w, h, x, y+1, center)
	left := sampleOrCenter(lum, w, h, x-1, y, center)
	right := sampleOrCenter(lum, w, h, x+1, y, center)
	return up + down + left + right - 4*center
}

func sampleOrCenter(lum []float64, w, h, x, y int, center float64) float64 {
	if x < 0 || x >= w || y < 0 || y >= h {
		return center
	}
	return lum[y*w+x]
}
