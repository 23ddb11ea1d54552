package core

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealer protects original values while they sit in the session map.
// Implementations must keep all key material in process memory.
type Sealer interface {
	Seal(plaintext, aad string) (string, error)
	Open(sealed, aad string) (string, error)
}

// MemorySealer seals values with XChaCha20-Poly1305 under a key generated at
// construction. The key is never exported, so sealed values die with the process.
type MemorySealer struct {
	aead cipher.AEAD
}

// NewMemorySealer generates a fresh ephemeral key
func NewMemorySealer() (*MemorySealer, error) {
	return newMemorySealer(rand.Reader)
}

func newMemorySealer(random io.Reader) (*MemorySealer, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealing cipher: %w", err)
	}

	return &MemorySealer{aead: aead}, nil
}

// Seal encrypts plaintext, binding it to aad (the placeholder)
func (s *MemorySealer) Seal(plaintext, aad string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(aad))
	return base64.RawStdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal with the same aad
func (s *MemorySealer) Open(sealed, aad string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}

	if len(raw) < s.aead.NonceSize() {
		return "", errors.New("sealed value too short")
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(aad))
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value: %w", err)
	}

	return string(plaintext), nil
}

func sealMappings(s Sealer, mappings []Mapping) ([]Mapping, error) {
	out := make([]Mapping, len(mappings))
	for i, m := range mappings {
		sealed, err := s.Seal(m.Original, m.Placeholder)
		if err != nil {
			return nil, err
		}
		out[i] = Mapping{Placeholder: m.Placeholder, Original: sealed, Kind: m.Kind}
	}
	return out, nil
}

func openMappings(s Sealer, mappings []Mapping) ([]Mapping, error) {
	out := make([]Mapping, len(mappings))
	for i, m := range mappings {
		original, err := s.Open(m.Original, m.Placeholder)
		if err != nil {
			return nil, err
		}
		out[i] = Mapping{Placeholder: m.Placeholder, Original: original, Kind: m.Kind}
	}
	return out, nil
}
