// Package metrics computes the fidelity and capacity numbers reported
// alongside every embed: MSE, PSNR, capacity, and bytes actually used.
// The PSNR formula mirrors the teacher's audioService.CalculatePSNR
// shape (MSE over paired samples, 20*log10(max/sqrt(mse)), +Inf on a
// perfect match) adapted to 8-bit pixel samples instead of 16-bit PCM.
package metrics

import (
	"image"
	"math"

	"github.com/nerggg/pixelveil/internal/depthmap"
	"github.com/nerggg/pixelveil/internal/engine"
	"github.com/nerggg/pixelveil/models"
)

// MSE computes the mean squared error between orig and stego over all
// W*H*3 RGB samples.
func MSE(orig, stego image.Image) float64 {
	a := engine.ToNRGBA(orig)
	b := engine.ToNRGBA(stego)

	var sum float64
	var n int
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ca := a.NRGBAAt(x, y)
			cb := b.NRGBAAt(x, y)
			for _, d := range []float64{
				float64(ca.R) - float64(cb.R),
				float64(ca.G) - float64(cb.G),
				float64(ca.B) - float64(cb.B),
			} {
				sum += d * d
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// PSNR computes the peak signal-to-noise ratio in decibels from an MSE
// value, returning +Inf when mse is exactly zero.
func PSNR(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(255/math.Sqrt(mse))
}

// UsedBytes returns ceil(usedBits/8), the number of bytes the embedded
// frame actually occupies (payload-frame bits only, not counting
// redundancy expansion).
func UsedBytes(usedBits int) int {
	return (usedBits + 7) / 8
}

// Compute assembles the full models.Metrics record for an embed: MSE and
// PSNR between orig and stego, capacity from orig's depth map, and
// used bytes from the frame length actually written.
func Compute(orig, stego image.Image, frameLen int) models.Metrics {
	depth := depthmap.Compute(orig)
	_, capBytes := engine.Capacity(depth)
	mse := MSE(orig, stego)

	return models.Metrics{
		MSE:           mse,
		PSNR:          PSNR(mse),
		CapacityBytes: capBytes,
		UsedBytes:     UsedBytes(frameLen * 8),
	}
}
