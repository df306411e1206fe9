// Package cryptox holds the small cryptographic helpers the server needs:
// deriving purpose-specific keys from the configured secret and computing
// content checksums for stored photos.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands secret into a size-byte key bound to info using
// HKDF-SHA256. Different info strings yield independent keys from the same
// secret.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty secret")
	}
	if size <= 0 {
		return nil, errors.New("invalid key size")
	}

	key := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Checksum returns the hex-encoded BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
