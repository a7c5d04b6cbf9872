// Package crypto provides the session-lifetime cipher that protects
// conversation history at rest. Ciphertexts are AES-256-GCM with the
// nonce prepended, base64-encoded for storage as opaque strings.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the required key length for AES-256-GCM.
	KeySize = 32
	// NonceSize is the GCM standard nonce size.
	NonceSize = 12
)

var (
	ErrInvalidKeySize     = fmt.Errorf("key must be exactly %d bytes", KeySize)
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

type Cipher struct {
	aead cipher.AEAD
}

// NewSessionCipher generates a fresh random key. The key lives only in
// process memory; history does not survive the process.
func NewSessionCipher() (*Cipher, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return NewCipher(key)
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals text into an opaque base64 string: [nonce] + [ciphertext].
func (c *Cipher) Encrypt(text string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(text), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Callers that hold opaque payloads of unknown
// provenance are expected to fall back to the input unchanged on error;
// Decrypt itself reports what went wrong.
func (c *Cipher) Decrypt(opaque string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(sealed) < NonceSize {
		return "", ErrCiphertextTooShort
	}
	nonce, data := sealed[:NonceSize], sealed[NonceSize:]
	plain, err := c.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}
