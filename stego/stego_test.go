package stego

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/nerggg/pixelveil/models"
)

func gradientImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255,
			})
		}
	}
	return img
}

func noiseImage(w, h int, seed int64) image.Image {
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

func solidImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	return img
}

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := DecodeRaster(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("failed to decode produced stego PNG: %v", err)
	}
	return img
}

func TestEmbedExtractRoundTripText(t *testing.T) {
	cover := gradientImage(512, 512)
	secret := TextSecret{Value: "hello world"}

	png, m, err := Embed(cover, "hunter2", secret)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if m.PSNR <= 0 {
		t.Errorf("expected a positive PSNR, got %v", m.PSNR)
	}

	stego := decodePNG(t, png)
	out, err := Extract(stego, "hunter2")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !out.Verified {
		t.Error("expected the recovered secret to verify")
	}
	if out.AsText() != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", out.AsText())
	}
}

func TestEmbedExtractRoundTripFile(t *testing.T) {
	cover := noiseImage(256, 256, 42)
	data := make([]byte, 1024)
	rand.New(rand.NewSource(7)).Read(data)
	secret := FileSecret{Data: data, Name: "blob.bin"}

	png, _, err := Embed(cover, "passw0rd", secret)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	stego := decodePNG(t, png)
	out, err := Extract(stego, "passw0rd")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if out.Filename != "blob.bin" {
		t.Errorf("expected filename blob.bin, got %q", out.Filename)
	}
	if !bytes.Equal(out.Data, data) {
		t.Error("recovered file data does not match original")
	}
}

func TestEmbedExtractTinyPayload(t *testing.T) {
	cover := solidImage(128, 128)
	secret := FileSecret{Data: []byte{0x42}, Name: "x"}

	png, _, err := Embed(cover, "k", secret)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	stego := decodePNG(t, png)
	out, err := Extract(stego, "k")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(out.Data, []byte{0x42}) {
		t.Errorf("expected single byte 0x42, got %v", out.Data)
	}
}

func TestExtractWrongKeyFails(t *testing.T) {
	cover := gradientImage(96, 96)
	secret := TextSecret{Value: "top secret"}

	png, _, err := Embed(cover, "correct-key", secret)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	stego := decodePNG(t, png)

	_, err = Extract(stego, "wrong-key")
	if err == nil {
		t.Fatal("expected an error when extracting with the wrong key")
	}
	kind, ok := models.KindOf(err)
	if !ok || (kind != models.BadMagic && kind != models.AuthFailure) {
		t.Errorf("expected BadMagic or AuthFailure, got %v (kind=%v ok=%v)", err, kind, ok)
	}
}

func TestEmbedCapacityExceeded(t *testing.T) {
	cover := solidImage(64, 64)
	huge := make([]byte, 100000)
	secret := FileSecret{Data: huge, Name: "toolarge.bin"}

	_, _, err := Embed(cover, "k", secret)
	kind, ok := models.KindOf(err)
	if !ok || kind != models.CapacityExceeded {
		t.Fatalf("expected CapacityExceeded, got %v", err)
	}
}

func TestDetectCleanVersusEmbeddedNearCapacity(t *testing.T) {
	cover := noiseImage(64, 64, 99)
	cleanScore, _ := Detect(cover)

	depthCapacityBytes := 64 * 64 * 3 / 3 / 8
	payload := make([]byte, depthCapacityBytes-64)
	rand.New(rand.NewSource(5)).Read(payload)

	png, _, err := Embed(cover, "k", FileSecret{Data: payload, Name: "f"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	stego := decodePNG(t, png)
	stegoScore, _ := Detect(stego)

	if stegoScore < cleanScore {
		t.Errorf("expected a near-capacity embed to score at least as high as the clean image: clean=%v stego=%v", cleanScore, stegoScore)
	}
}

func TestEmbedRequiresPassphrase(t *testing.T) {
	_, _, err := Embed(solidImage(8, 8), "", TextSecret{Value: "x"})
	kind, ok := models.KindOf(err)
	if !ok || kind != models.KeyRequired {
		t.Fatalf("expected KeyRequired, got %v", err)
	}
}

func TestEmbedRequiresSecret(t *testing.T) {
	_, _, err := Embed(solidImage(8, 8), "k", nil)
	kind, ok := models.KindOf(err)
	if !ok || kind != models.InputMissing {
		t.Fatalf("expected InputMissing, got %v", err)
	}
}
