package metrics

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestPSNRPerfectMatch(t *testing.T) {
	p := PSNR(0)
	if !math.IsInf(p, 1) {
		t.Errorf("expected +Inf PSNR for zero MSE, got %v", p)
	}
}

func TestPSNRKnownValue(t *testing.T) {
	// MSE=1 => PSNR = 20*log10(255) ≈ 48.13 dB
	p := PSNR(1)
	if p < 48 || p > 49 {
		t.Errorf("expected PSNR around 48.13 for MSE=1, got %v", p)
	}
}

func TestMSEIdenticalImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 150, B: 200, A: 255})
		}
	}
	mse := MSE(img, img)
	if mse != 0 {
		t.Errorf("expected zero MSE for identical images, got %v", mse)
	}
}

func TestMSEDifferingImages(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	b := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			a.Set(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
			b.Set(x, y, color.RGBA{R: 101, G: 100, B: 100, A: 255})
		}
	}
	mse := MSE(a, b)
	if mse <= 0 {
		t.Errorf("expected positive MSE, got %v", mse)
	}
}

func TestUsedBytes(t *testing.T) {
	if UsedBytes(1) != 1 {
		t.Errorf("expected 1 byte for 1 bit, got %d", UsedBytes(1))
	}
	if UsedBytes(8) != 1 {
		t.Errorf("expected 1 byte for 8 bits, got %d", UsedBytes(8))
	}
	if UsedBytes(9) != 2 {
		t.Errorf("expected 2 bytes for 9 bits, got %d", UsedBytes(9))
	}
}
