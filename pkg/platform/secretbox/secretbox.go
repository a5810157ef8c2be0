// Package secretbox seals opaque payloads (authorization codes, refresh tokens)
// with authenticated encryption. Sealed output is URL safe.
package secretbox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the required key length in bytes for every Box in this package.
const KeySize = 32

var (
	ErrInvalidKey = errors.New("secretbox: key must be 32 bytes")
	// ErrOpen is returned for any input that fails to decrypt or authenticate.
	ErrOpen = errors.New("secretbox: cannot open payload")
)

// Box seals and opens payloads. Open must reject any input that was not
// produced by Seal with the same key, including single-byte modifications.
type Box interface {
	Seal(plaintext []byte) (string, error)
	Open(sealed string) ([]byte, error)
}

// New builds the Box named by cipher: "jwe" (default) or "aesgcm".
func New(cipher string, key []byte) (Box, error) {
	switch strings.ToLower(cipher) {
	case "", "jwe":
		return NewJWE(key)
	case "aesgcm":
		return NewAESGCM(key)
	default:
		return nil, fmt.Errorf("secretbox: unknown cipher %q", cipher)
	}
}

// DecodeKey parses a standard or URL-safe base64 key and checks its length.
func DecodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("secretbox: decode key: %w", err)
		}
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
