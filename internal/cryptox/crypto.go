package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	"moodtrack/internal/domain"
)

// Codec encrypts free-text fields with AES-256-GCM before they reach the
// database. One key per process lifetime; rotation would need a versioned
// ciphertext header.
type Codec struct {
	aead cipher.AEAD
}

// New builds a codec from raw key material (16, 24 or 32 bytes).
func New(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// NewFromSecret derives a 256-bit key from a configured secret and salt
// using argon2id, then builds a codec from it.
func NewFromSecret(secret, salt string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}
	key := argon2.IDKey([]byte(secret), []byte(salt), 1, 64*1024, 4, 32)
	return New(key)
}

// Encrypt seals plaintext with a fresh random nonce. The nonce is
// prepended to the returned ciphertext. Empty plaintext encrypts to an
// empty ciphertext.
func (c *Codec) Encrypt(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt opens ciphertext produced by Encrypt. Tampered or wrong-key
// input fails with ErrDecryptionFailed, never with corrupted plaintext.
func (c *Codec) Decrypt(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	if len(ciphertext) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext shorter than nonce", domain.ErrDecryptionFailed)
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}
