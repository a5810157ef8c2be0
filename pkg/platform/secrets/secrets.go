// Package secrets generates and verifies client secrets.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "oidcop/pkg/domain-errors"
)

// Generate creates a random client secret, base64url encoded.
func Generate() (string, error) {
	return generate(32, base64.RawURLEncoding)
}

// GenerateKey creates a random symmetric key, standard base64 encoded, for the
// payload secretbox.
func GenerateKey() (string, error) {
	return generate(32, base64.StdEncoding)
}

func generate(n int, enc *base64.Encoding) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return enc.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of a client secret for storage.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a presented client secret against its stored hash.
func Verify(secret, hash string) error {
	if secret == "" || hash == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeUnauthorized, "invalid secret")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}
