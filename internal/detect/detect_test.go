package detect

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/nerggg/pixelveil/internal/engine"
)

func solidImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 130, B: 140, A: 255})
		}
	}
	return img
}

func noisyImage(w, h int, seed int64) image.Image {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255,
			})
		}
	}
	return img
}

func TestScoreDeterministic(t *testing.T) {
	img := noisyImage(32, 32, 1)
	r1 := Score(img)
	r2 := Score(img)
	if r1.Score != r2.Score || r1.Label != r2.Label {
		t.Error("Score should be deterministic for the same image")
	}
}

func TestScoreSolidImageIsClean(t *testing.T) {
	img := solidImage(32, 32)
	r := Score(img)
	if r.Label != "Likely clean image" {
		t.Errorf("expected a solid constant image to read as clean, got %q (score %v)", r.Label, r.Score)
	}
}

func TestScoreStegoLikeNoiseScoresHigherThanSolid(t *testing.T) {
	solid := Score(solidImage(48, 48))
	noisy := Score(fullyRandomLSBImage(48, 48, 7))
	if noisy.Score <= solid.Score {
		t.Errorf("expected noisy LSB image to score higher than a solid image: noisy=%v solid=%v", noisy.Score, solid.Score)
	}
}

// fullyRandomLSBImage produces an image whose LSBs are maximally random,
// the profile a full-capacity embed leaves behind.
func fullyRandomLSBImage(w, h int, seed int64) image.Image {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(r.Intn(256)), G: uint8(r.Intn(256)), B: uint8(r.Intn(256)), A: 255,
			})
		}
	}
	return engine.ToNRGBA(img)
}

func TestChannelStatsEmptyInput(t *testing.T) {
	s := channelStatsOf(nil)
	if s.entropy != 0 || s.chi != 0 || s.corr != 0 {
		t.Errorf("expected zero stats for empty input, got %+v", s)
	}
}

func TestCorrelationConstantSequenceIsZero(t *testing.T) {
	bits := make([]uint8, 10)
	if c := correlation(bits); c != 0 {
		t.Errorf("expected zero correlation for a constant sequence, got %v", c)
	}
}
