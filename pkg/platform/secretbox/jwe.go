package secretbox

import (
	"fmt"

	jose "gopkg.in/square/go-jose.v2"
)

// JWE seals into a compact JWE using direct key agreement and A256GCM.
type JWE struct {
	key       []byte
	encrypter jose.Encrypter
}

func NewJWE(key []byte) (*JWE, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: key}, nil)
	if err != nil {
		return nil, fmt.Errorf("jose.NewEncrypter: %w", err)
	}
	return &JWE{key: key, encrypter: enc}, nil
}

func (b *JWE) Seal(plaintext []byte) (string, error) {
	obj, err := b.encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("jwe encrypt: %w", err)
	}
	return obj.CompactSerialize()
}

func (b *JWE) Open(sealed string) ([]byte, error) {
	obj, err := jose.ParseEncrypted(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	if obj.Header.Algorithm != string(jose.DIRECT) {
		return nil, fmt.Errorf("%w: unexpected key algorithm %q", ErrOpen, obj.Header.Algorithm)
	}
	pt, err := obj.Decrypt(b.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return pt, nil
}
