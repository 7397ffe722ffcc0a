package pan

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// KeySize is the AES-256 key length in bytes
const KeySize = 32

// Cipher encrypts PANs for at-rest storage using AES-256-GCM. The key
// is fixed for the lifetime of the process and read-only after
// construction, so a single Cipher is safe for concurrent use.
// Encryption draws a fresh random nonce per call, so identical PANs
// never produce identical ciphertexts; the stored ciphertext column
// carries a uniqueness constraint that depends on this.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a 32-byte key. Any failure here is
// fatal to the caller: the service must not start without PAN
// protection.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("pan cipher key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// NewRandomKey generates a fresh AES-256 key. Used when no key is
// configured; the key then lives only for this process.
func NewRandomKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals the plaintext PAN and returns a base64 blob of
// nonce||ciphertext
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("plaintext PAN is empty")
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Not used by current read
// paths, which only ever expose the masked form, but kept for
// completeness and testability.
func (c *Cipher) Decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	ns := c.aead.NonceSize()
	if len(data) < ns {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(data))
	}

	plaintext, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt PAN: %w", err)
	}

	return string(plaintext), nil
}
