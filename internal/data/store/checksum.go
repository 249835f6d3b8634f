package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-worktime-tracker/internal/core/model"
)

var (
	// ErrChecksumMismatch means the document was edited outside the tracker
	ErrChecksumMismatch = errors.New("state file checksum mismatch")
	// ErrMissingChecksum means the document carries no checksum at all
	ErrMissingChecksum = errors.New("state file has no checksum")
	// ErrCorrupt means the document could not be decoded
	ErrCorrupt = errors.New("state file is not valid JSON")
)

const checksumLength = 16

// canonicalJSON is the byte form the checksum is computed over: the document
// with its checksum field omitted, encoded with sorted map keys and fixed
// struct field order.
func canonicalJSON(doc *model.Document) ([]byte, error) {
	unsigned := *doc
	unsigned.Checksum = ""
	return sonic.ConfigStd.Marshal(&unsigned)
}

// Checksum computes the salted checksum of a document
func Checksum(doc *model.Document, salt string) (string, error) {
	content, err := canonicalJSON(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document for checksum: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(salt))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:checksumLength], nil
}

// Verify checks the document against its stored checksum
func Verify(doc *model.Document, salt string) error {
	if doc.Checksum == "" {
		return ErrMissingChecksum
	}

	expected, err := Checksum(doc, salt)
	if err != nil {
		return err
	}
	if expected != doc.Checksum {
		return fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, doc.Checksum, expected)
	}
	return nil
}
