// Package stego orchestrates the codec's internal components (bit I/O,
// key derivation, payload framing, depth mapping, permutation, the
// embed/extract engine, fidelity metrics, and the steganalysis scorer)
// into the three operations a caller actually needs: Embed, Extract, and
// Detect. It plays the role the teacher's service package plays — a
// thin, dependency-free orchestration layer sitting between the HTTP
// handlers and the pure codec packages.
package stego

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/nerggg/pixelveil/internal/detect"
	"github.com/nerggg/pixelveil/internal/engine"
	"github.com/nerggg/pixelveil/internal/metrics"
	"github.com/nerggg/pixelveil/internal/wrap"
	"github.com/nerggg/pixelveil/models"
)

// Re-exported so callers only need to import this package.
type (
	Secret          = models.Secret
	TextSecret      = models.TextSecret
	FileSecret      = models.FileSecret
	ExtractedSecret = models.ExtractedSecret
	Metrics         = models.Metrics
	Error           = models.Error
	ErrorKind       = models.ErrorKind
)

// Error kind constants, re-exported for callers that compare them against
// models.KindOf(err) or the Kind of an *Error obtained with errors.As.
const (
	KeyRequired      = models.KeyRequired
	InputMissing     = models.InputMissing
	CapacityExceeded = models.CapacityExceeded
	FilenameTooLong  = models.FilenameTooLong
	BadMagic         = models.BadMagic
	AuthFailure      = models.AuthFailure
	PayloadMalformed = models.PayloadMalformed
	DecompressError  = models.DecompressError
	ImageDecodeError = models.ImageDecodeError
)

// DecodeRaster decodes any of PNG, JPEG, GIF, BMP, or TIFF into an
// image.Image. Formats are registered by importing the stdlib decoders
// plus golang.org/x/image for BMP and TIFF, satisfying the "any raster format
// decodable to RGB8" contract more completely than stdlib alone.
func DecodeRaster(r io.Reader) (image.Image, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, models.WrapError(models.ImageDecodeError, "failed to read image data", err)
	}
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, models.WrapError(models.ImageDecodeError, "unrecognized or corrupt raster image", err)
	}
	return img, nil
}

// Embed hides secret inside cover under passphrase, returning a
// PNG-encoded stego image and the fidelity/capacity metrics of the
// embed. The cover is never modified; a fresh image is produced.
func Embed(cover image.Image, passphrase string, secret Secret) ([]byte, Metrics, error) {
	if passphrase == "" {
		return nil, Metrics{}, models.NewError(models.KeyRequired, "passphrase must not be empty")
	}
	if secret == nil {
		return nil, Metrics{}, models.NewError(models.InputMissing, "secret must not be nil")
	}

	inner, err := wrap.BuildInner(secret.Bytes(), secret.Filename())
	if err != nil {
		return nil, Metrics{}, err
	}

	frame, err := wrap.BuildOuter(passphrase, inner)
	if err != nil {
		return nil, Metrics{}, err
	}

	stegoImg, err := engine.Embed(cover, passphrase, frame)
	if err != nil {
		return nil, Metrics{}, err
	}

	m := metrics.Compute(cover, stegoImg, len(frame))

	var out bytes.Buffer
	if err := png.Encode(&out, stegoImg); err != nil {
		return nil, Metrics{}, models.WrapError(models.ImageDecodeError, "failed to encode stego PNG", err)
	}

	log.Printf("[INFO] stego.Embed: wrote %d-byte frame, capacity %d bytes, PSNR %.2fdB",
		len(frame), m.CapacityBytes, m.PSNR)

	return out.Bytes(), m, nil
}

// Extract recovers the secret hidden in stego under passphrase. It reads
// the fixed 36-byte outer header first to learn the ciphertext length,
// then a second pass re-derives the exact bit count needed for the full
// frame — the two-phase read spec.md's engine contract requires, since
// the frame length is itself part of the hidden data.
func Extract(stego image.Image, passphrase string) (ExtractedSecret, error) {
	if passphrase == "" {
		return ExtractedSecret{}, models.NewError(models.KeyRequired, "passphrase must not be empty")
	}

	header, err := engine.Extract(stego, passphrase, wrap.HeaderLen*8)
	if err != nil {
		return ExtractedSecret{}, err
	}

	payloadLen, _, _, err := wrap.ParseHeader(header)
	if err != nil {
		return ExtractedSecret{}, err
	}

	fullFrameBits := (wrap.HeaderLen + int(payloadLen)) * 8
	frame, err := engine.Extract(stego, passphrase, fullFrameBits)
	if err != nil {
		return ExtractedSecret{}, err
	}

	inner, err := wrap.OpenOuter(passphrase, frame)
	if err != nil {
		return ExtractedSecret{}, err
	}

	parsed, err := wrap.ParseInner(inner)
	if err != nil {
		return ExtractedSecret{}, err
	}

	log.Printf("[INFO] stego.Extract: recovered %q (%d bytes), verified=%v",
		parsed.Filename, len(parsed.Data), parsed.Verified)

	return ExtractedSecret{
		Data:      parsed.Data,
		Filename:  parsed.Filename,
		Verified:  parsed.Verified,
		SHA256Hex: hexString(parsed.DataHash[:]),
	}, nil
}

// Detect runs the steganalysis scorer against img and returns its score
// and label. It is a heuristic signal, not a guarantee.
func Detect(img image.Image) (float64, string) {
	r := detect.Score(img)
	return r.Score, r.Label
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0F]
	}
	return string(out)
}

// Each image format package registers its decoder from its init function
// when imported above; these references keep the imports in use so
// DecodeRaster handles PNG, JPEG, GIF, BMP, and TIFF.
var (
	_ = png.Encode
	_ = jpeg.Decode
	_ = gif.Decode
	_ = bmp.Decode
	_ = tiff.Decode
)
