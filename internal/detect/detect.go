// Package detect implements the heuristic "does this image contain
// hidden data" scorer from the LSB-plane statistics of each channel:
// Shannon entropy, a chi-square uniformity test, and successive-LSB
// correlation. It is a heuristic, not a security claim, per spec.md §4.H.
package detect

import (
	"image"
	"math"

	"github.com/nerggg/pixelveil/internal/engine"
	"github.com/nerggg/pixelveil/models"
)

// Threshold is the score cutoff at or above which an image is labeled as
// likely containing hidden data.
const Threshold = 0.62

const (
	labelLikely = "Likely contains hidden data"
	labelClean  = "Likely clean image"
)

// channelStats holds the entropy, chi-square, and autocorrelation of one
// channel's LSB plane.
type channelStats struct {
	entropy float64
	chi     float64
	corr    float64
}

// Score computes the detector's score and label for img.
func Score(img image.Image) models.DetectResult {
	n := engine.ToNRGBA(img)
	bounds := n.Bounds()

	var rLSB, gLSB, bLSB []uint8
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := n.NRGBAAt(x, y)
			rLSB = append(rLSB, c.R&1)
			gLSB = append(gLSB, c.G&1)
			bLSB = append(bLSB, c.B&1)
		}
	}

	stats := []channelStats{
		channelStatsOf(rLSB),
		channelStatsOf(gLSB),
		channelStatsOf(bLSB),
	}

	var entropySum, chiSum, corrAbsSum float64
	for _, s := range stats {
		entropySum += s.entropy
		chiSum += s.chi
		corrAbsSum += math.Abs(s.corr)
	}
	count := float64(len(stats))
	entropyAvg := entropySum / count
	chiNorm := (chiSum / count) / 5
	corrAvg := corrAbsSum / count

	score := 0.55*entropyAvg + 0.25*(1/(1+chiNorm)) + 0.20*(1-corrAvg)

	label := labelClean
	if score >= Threshold {
		label = labelLikely
	}

	return models.DetectResult{Score: score, Label: label}
}

// channelStatsOf computes entropy, chi-square, and successive-sample
// correlation of a single channel's LSB plane.
func channelStatsOf(lsb []uint8) channelStats {
	return channelStats{
		entropy: shannonEntropy(lsb),
		chi:     chiSquare(lsb),
		corr:    correlation(lsb),
	}
}

// shannonEntropy returns the base-2 Shannon entropy of a 0/1 sequence.
// A uniform 50/50 split yields 1.0.
func shannonEntropy(bits []uint8) float64 {
	if len(bits) == 0 {
		return 0
	}
	ones := 0
	for _, b := range bits {
		if b == 1 {
			ones++
		}
	}
	n := float64(len(bits))
	p1 := float64(ones) / n
	p0 := 1 - p1

	h := 0.0
	if p0 > 0 {
		h -= p0 * math.Log2(p0)
	}
	if p1 > 0 {
		h -= p1 * math.Log2(p1)
	}
	return h
}

// chiSquare computes the chi-square statistic of LSB counts against an
// expected uniform split (count_total/2 per bucket).
func chiSquare(bits []uint8) float64 {
	if len(bits) == 0 {
		return 0
	}
	ones := 0
	for _, b := range bits {
		if b == 1 {
			ones++
		}
	}
	zeros := len(bits) - ones
	expected := float64(len(bits)) / 2

	chi := 0.0
	for _, observed := range []int{ones, zeros} {
		diff := float64(observed) - expected
		chi += (diff * diff) / expected
	}
	return chi
}

// correlation returns the Pearson correlation of successive LSB values,
// or 0 when there are fewer than 2 samples.
func correlation(bits []uint8) float64 {
	if len(bits) < 2 {
		return 0
	}
	x := bits[:len(bits)-1]
	y := bits[1:]

	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		fx, fy := float64(x[i]), float64(y[i])
		sumX += fx
		sumY += fy
		sumXY += fx * fy
		sumX2 += fx * fx
		sumY2 += fy * fy
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
