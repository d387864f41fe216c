// Package wrap builds and parses the two framing layers spec.md §3
// describes: an inner envelope (hash, filename, DEFLATE-compressed data)
// that is encrypted, and an outer envelope (magic, length, salt, nonce,
// ciphertext) that is embedded. Layout mirrors the teacher's
// CreateMetadata/parseMetadata pair in shape — fixed-size header fields
// followed by variable-length sections — generalized to the spec's exact
// byte offsets.
package wrap

import (
	"bytes"
	"compress/flate"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/nerggg/pixelveil/models"
)

// innerFixedLen is the size of the data_hash + name_len fields that
// precede the variable-length name and compressed tail.
const innerFixedLen = sha256.Size + 2 // 32 + 2 = 34

// BuildInner assembles the inner payload: SHA-256(data), name_len, name,
// then data DEFLATE-compressed at maximum compression.
func BuildInner(data []byte, filename string) ([]byte, error) {
	if len(filename) > 0xFFFF {
		return nil, models.NewError(models.FilenameTooLong, "filename exceeds 65535 bytes")
	}

	hash := sha256.Sum256(data)

	compressed, err := deflate(data)
	if err != nil {
		return nil, models.WrapError(models.DecompressError, "DEFLATE compression failed", err)
	}

	buf := bytes.Buffer{}
	buf.Write(hash[:])
	binary.Write(&buf, binary.BigEndian, uint16(len(filename)))
	buf.WriteString(filename)
	buf.Write(compressed)

	log.Printf("[DEBUG] wrap.BuildInner: data=%d bytes, filename=%d bytes, compressed=%d bytes",
		len(data), len(filename), len(compressed))

	return buf.Bytes(), nil
}

// ParsedInner is the result of parsing and decompressing an inner
// envelope.
type ParsedInner struct {
	DataHash [sha256.Size]byte
	Filename string
	Data     []byte
	Verified bool
}

// ParseInner validates frame boundaries, UTF-8-decodes the filename with
// lossy replacement, inflates the tail, and checks the SHA-256 of the
// recovered data against the carried hash.
func ParseInner(p []byte) (*ParsedInner, error) {
	if len(p) < innerFixedLen {
		return nil, models.NewError(models.PayloadMalformed, "inner payload shorter than fixed header")
	}

	var hash [sha256.Size]byte
	copy(hash[:], p[:sha256.Size])
	nameLen := int(binary.BigEndian.Uint16(p[sha256.Size : sha256.Size+2]))

	if innerFixedLen+nameLen > len(p) {
		return nil, models.NewError(models.PayloadMalformed, "name_len overruns inner payload")
	}

	rawName := p[innerFixedLen : innerFixedLen+nameLen]
	filename := toValidUTF8(rawName)

	compressed := p[innerFixedLen+nameLen:]
	data, err := inflate(compressed)
	if err != nil {
		return nil, models.WrapError(models.DecompressError, "DEFLATE decompression failed", err)
	}

	verified := sha256.Sum256(data) == hash

	log.Printf("[DEBUG] wrap.ParseInner: filename=%q data=%d bytes verified=%t", filename, len(data), verified)

	return &ParsedInner{
		DataHash: hash,
		Filename: filename,
		Data:     data,
		Verified: verified,
	}, nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// toValidUTF8 replaces invalid UTF-8 sequences rather than failing, per
// spec.md §4.C's "lossy replacement" rule.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
