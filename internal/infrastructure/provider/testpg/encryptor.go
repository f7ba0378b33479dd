package testpg

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const nonceSize = 12

var (
	ErrEmptySecret = errors.New("testpg: shared secret is empty")
	ErrInvalidIV   = errors.New("testpg: iv must be 12 bytes of base64url")
)

// Encryptor seals TestPG payloads with AES-256-GCM. The key is SHA-256 of the
// shared secret and the nonce is fixed by configuration.
type Encryptor struct {
	aead  cipher.AEAD
	nonce []byte
}

// NewEncryptor validates the secret and IV once so Seal cannot fail on configuration.
func NewEncryptor(secret, ivToken string) (*Encryptor, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	nonce, err := decodeIV(ivToken)
	if err != nil {
		return nil, err
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("testpg: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("testpg: failed to create gcm: %w", err)
	}
	return &Encryptor{aead: aead, nonce: nonce}, nil
}

// Seal encrypts plaintext and returns base64url(ciphertext || tag) without padding.
func (e *Encryptor) Seal(plaintext []byte) string {
	sealed := e.aead.Seal(nil, e.nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Encrypt is the one-shot form of NewEncryptor followed by Seal.
func Encrypt(plaintext, secret, ivToken string) (string, error) {
	enc, err := NewEncryptor(secret, ivToken)
	if err != nil {
		return "", err
	}
	return enc.Seal([]byte(plaintext)), nil
}

func decodeIV(token string) ([]byte, error) {
	iv, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(token), "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIV, err)
	}
	if len(iv) != nonceSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidIV, len(iv))
	}
	return iv, nil
}
