// Package handlers exposes the codec as a small gin HTTP surface: embed,
// extract, detect, and a health check. It is the same thin
// request-parsing/response-shaping role the teacher's handlers package
// plays over its steganography service, now calling the stego package
// instead of an audio-domain service.
package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/nerggg/pixelveil/models"
	"github.com/nerggg/pixelveil/stego"
)

// Handlers holds no service dependencies beyond the stego package itself
// — the codec has no state to inject, unlike the teacher's
// steganography/cryptography/audio service trio.
type Handlers struct{}

// NewHandlers constructs a Handlers instance.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ErrorResponse is the standardized error envelope every handler returns
// on failure.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code plus a human message.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles the health check endpoint.
//
//	@Summary		Health Check
//	@Description	Returns the health status of the API service
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"Service is healthy"
//	@Router			/health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
	})
}

// EmbedHandler embeds a secret into a cover image.
//
//	@Summary		Embed a secret into a cover image
//	@Description	Hides a passphrase-encrypted secret inside a cover image's pixel LSBs and returns the stego PNG.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		image/png
//	@Param			cover		formData	file	true	"Cover image"
//	@Param			secret		formData	file	true	"Secret file to embed"
//	@Param			passphrase	formData	string	true	"Passphrase used for key derivation and pixel ordering"
//	@Success		200	{file}		binary			"Stego PNG with the secret embedded"
//	@Failure		400	{object}	ErrorResponse	"Invalid input"
//	@Failure		422	{object}	ErrorResponse	"Cover cannot carry the secret"
//	@Failure		500	{object}	ErrorResponse	"Processing error"
//	@Router			/embed [post]
func (h *Handlers) EmbedHandler(c *gin.Context) {
	requestID := requestIDOf(c)

	coverHeader, err := c.FormFile("cover")
	if err != nil {
		sendError(c, http.StatusBadRequest, "MISSING_FILES", "cover image not provided")
		return
	}
	secretHeader, err := c.FormFile("secret")
	if err != nil {
		sendError(c, http.StatusBadRequest, "MISSING_FILES", "secret file not provided")
		return
	}
	passphrase := c.PostForm("passphrase")
	if passphrase == "" {
		sendError(c, http.StatusBadRequest, "MISSING_PASSPHRASE", "passphrase is required")
		return
	}

	coverData, err := readFormFile(coverHeader)
	if err != nil {
		sendError(c, http.StatusBadRequest, "UNREADABLE_FILE", "failed to read cover image")
		return
	}
	if kind := mimetype.Detect(coverData); !isRasterMIME(kind.String()) {
		log.Printf("[WARN] [%s] EmbedHandler: cover MIME %q not a recognized raster format, attempting decode anyway", requestID, kind.String())
	}

	secretData, err := readFormFile(secretHeader)
	if err != nil {
		sendError(c, http.StatusBadRequest, "UNREADABLE_FILE", "failed to read secret file")
		return
	}

	cover, err := stego.DecodeRaster(byteReader(coverData))
	if err != nil {
		sendError(c, http.StatusBadRequest, "BAD_IMAGE", "cover image could not be decoded")
		return
	}

	secret := stego.FileSecret{Data: secretData, Name: secretHeader.Filename}

	pngBytes, m, err := stego.Embed(cover, passphrase, secret)
	if err != nil {
		handleCodecError(c, requestID, "EmbedHandler", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="stego.png"`)
	c.Header("X-PSNR-Value", fmt.Sprintf("%.2f", m.PSNR))
	c.Header("X-Capacity-Bytes", strconv.Itoa(m.CapacityBytes))
	c.Header("X-Used-Bytes", strconv.Itoa(m.UsedBytes))
	c.Data(http.StatusOK, "image/png", pngBytes)
}

// ExtractHandler recovers a secret previously embedded in a stego image.
//
//	@Summary		Extract a secret from a stego image
//	@Description	Recovers and decrypts the secret hidden in a stego image's pixel LSBs.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		application/octet-stream
//	@Param			stego		formData	file	true	"Stego image"
//	@Param			passphrase	formData	string	true	"Passphrase used at embed time"
//	@Success		200	{file}		binary			"Extracted secret file"
//	@Failure		400	{object}	ErrorResponse	"Invalid input"
//	@Failure		401	{object}	ErrorResponse	"Wrong passphrase or no hidden data"
//	@Failure		500	{object}	ErrorResponse	"Processing error"
//	@Router			/extract [post]
func (h *Handlers) ExtractHandler(c *gin.Context) {
	requestID := requestIDOf(c)

	stegoHeader, err := c.FormFile("stego")
	if err != nil {
		sendError(c, http.StatusBadRequest, "MISSING_FILE", "stego image not provided")
		return
	}
	passphrase := c.PostForm("passphrase")
	if passphrase == "" {
		sendError(c, http.StatusBadRequest, "MISSING_PASSPHRASE", "passphrase is required")
		return
	}

	stegoData, err := readFormFile(stegoHeader)
	if err != nil {
		sendError(c, http.StatusBadRequest, "UNREADABLE_FILE", "failed to read stego image")
		return
	}

	img, err := stego.DecodeRaster(byteReader(stegoData))
	if err != nil {
		sendError(c, http.StatusBadRequest, "BAD_IMAGE", "stego image could not be decoded")
		return
	}

	secret, err := stego.Extract(img, passphrase)
	if err != nil {
		handleCodecError(c, requestID, "ExtractHandler", err)
		return
	}

	outputFilename := secret.Filename
	if outputFilename == "" {
		outputFilename = "secret.bin"
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, outputFilename))
	c.Header("X-Secret-Size", strconv.Itoa(len(secret.Data)))
	c.Header("X-Secret-Verified", strconv.FormatBool(secret.Verified))
	c.Data(http.StatusOK, "application/octet-stream", secret.Data)
}

// DetectResponse is the steganalysis scorer's JSON response shape.
type DetectResponse struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// DetectHandler runs the steganalysis scorer against an uploaded image.
//
//	@Summary		Score an image for likely hidden data
//	@Description	Runs entropy/chi-square/correlation heuristics against an image's LSB planes.
//	@Tags			Steganography
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Image to analyze"
//	@Success		200	{object}	DetectResponse	"Score and label"
//	@Failure		400	{object}	ErrorResponse	"Invalid input"
//	@Router			/detect [post]
func (h *Handlers) DetectHandler(c *gin.Context) {
	imageHeader, err := c.FormFile("image")
	if err != nil {
		sendError(c, http.StatusBadRequest, "MISSING_FILE", "image not provided")
		return
	}

	imageData, err := readFormFile(imageHeader)
	if err != nil {
		sendError(c, http.StatusBadRequest, "UNREADABLE_FILE", "failed to read image")
		return
	}

	img, err := stego.DecodeRaster(byteReader(imageData))
	if err != nil {
		sendError(c, http.StatusBadRequest, "BAD_IMAGE", "image could not be decoded")
		return
	}

	score, label := stego.Detect(img)
	c.JSON(http.StatusOK, DetectResponse{Score: score, Label: label})
}

// handleCodecError maps a stego.Error's Kind to an HTTP status, merging
// BadMagic and AuthFailure into the same generic response so a caller
// cannot distinguish "wrong key" from "no hidden data" by status alone.
func handleCodecError(c *gin.Context, requestID, handler string, err error) {
	kind, _ := models.KindOf(err)
	log.Printf("[ERROR] [%s] %s: %v", requestID, handler, err)

	switch kind {
	case models.KeyRequired, models.InputMissing, models.FilenameTooLong:
		sendError(c, http.StatusBadRequest, kind.String(), err.Error())
	case models.CapacityExceeded:
		sendError(c, http.StatusUnprocessableEntity, kind.String(), err.Error())
	case models.BadMagic, models.AuthFailure:
		sendError(c, http.StatusUnauthorized, "AUTH_FAILURE", "no hidden data found, or the passphrase is wrong")
	case models.PayloadMalformed, models.DecompressError:
		sendError(c, http.StatusUnprocessableEntity, kind.String(), "recovered payload is malformed")
	default:
		sendError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "internal processing error")
	}
}

// sendError sends a standardized error response.
func sendError(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: message,
			Details: map[string]interface{}{"code": code},
		},
	})
}

func requestIDOf(c *gin.Context) string {
	if id, ok := c.Get("trace_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return "-"
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func byteReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func isRasterMIME(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
