package wrap

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"io"
	"log"

	"github.com/nerggg/pixelveil/internal/aead"
	"github.com/nerggg/pixelveil/models"
)

// Magic is the four ASCII bytes that mark a valid STG1 outer frame.
var Magic = [4]byte{'S', 'T', 'G', '1'}

// HeaderLen is the fixed size of the outer frame header in bytes: magic
// (4) + payload_len (4) + salt (16) + nonce (12).
const HeaderLen = 4 + 4 + aead.SaltSize + aead.NonceSize

// Outer is the fully assembled wire frame: header fields plus
// ciphertext.
type Outer struct {
	Salt       [aead.SaltSize]byte
	Nonce      [aead.NonceSize]byte
	Ciphertext []byte
}

// BuildOuter derives a key from passphrase, generates a random salt and
// nonce, encrypts inner under AES-256-GCM, and returns the complete
// 36-byte-header-plus-ciphertext wire frame.
func BuildOuter(passphrase string, inner []byte) ([]byte, error) {
	var salt [aead.SaltSize]byte
	var nonce [aead.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return nil, models.WrapError(models.PayloadMalformed, "salt generation failed", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, models.WrapError(models.PayloadMalformed, "nonce generation failed", err)
	}

	key, err := aead.DeriveKey(passphrase, salt[:])
	if err != nil {
		return nil, err
	}

	ciphertext, err := aead.Seal(key, nonce[:], inner)
	if err != nil {
		return nil, err
	}

	buf := bytes.Buffer{}
	buf.Write(Magic[:])
	binary.Write(&buf, binary.BigEndian, uint32(len(ciphertext)))
	buf.Write(salt[:])
	buf.Write(nonce[:])
	buf.Write(ciphertext)

	log.Printf("[DEBUG] wrap.BuildOuter: ciphertext=%d bytes, frame=%d bytes", len(ciphertext), buf.Len())

	return buf.Bytes(), nil
}

// ParseHeader reads the fixed 36-byte header from frame, validating the
// magic. It returns the declared payload_len so the caller knows how
// many more bits to extract for the ciphertext.
func ParseHeader(frame []byte) (payloadLen uint32, salt [aead.SaltSize]byte, nonce [aead.NonceSize]byte, err error) {
	if len(frame) < HeaderLen {
		err = models.NewError(models.PayloadMalformed, "outer header shorter than 36 bytes")
		return
	}
	var magic [4]byte
	copy(magic[:], frame[:4])
	if magic != Magic {
		err = models.NewError(models.BadMagic, "outer frame magic mismatch")
		return
	}
	payloadLen = binary.BigEndian.Uint32(frame[4:8])
	copy(salt[:], frame[8:8+aead.SaltSize])
	copy(nonce[:], frame[8+aead.SaltSize:8+aead.SaltSize+aead.NonceSize])
	return
}

// OpenOuter parses the full frame (header + ciphertext), validates the
// magic, and decrypts the ciphertext under passphrase, returning the
// inner envelope bytes.
func OpenOuter(passphrase string, frame []byte) ([]byte, error) {
	payloadLen, salt, nonce, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	if uint32(len(frame)-HeaderLen) != payloadLen {
		return nil, models.NewError(models.PayloadMalformed, "payload_len does not match frame size")
	}
	ciphertext := frame[HeaderLen:]

	key, err := aead.DeriveKey(passphrase, salt[:])
	if err != nil {
		return nil, err
	}

	return aead.Open(key, nonce[:], ciphertext)
}
