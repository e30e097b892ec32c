// Package securestore seals review answers before they are written to the
// database and opens them again on read.
package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// TransitKeyName is the Vault transit key used for review answers
const TransitKeyName = "review-answers"

const (
	prefixPlain = "plain:"
	prefixGCM   = "gcm:"
	prefixVault = "vault:"
)

// ErrUnsupportedEnvelope is returned when a sealed value was written by a
// sealer this process is not configured for
var ErrUnsupportedEnvelope = errors.New("unsupported sealed envelope")

// Sealer encrypts review payloads. The record id is bound to the ciphertext
// so a sealed value cannot be moved to another row.
type Sealer interface {
	Seal(ctx context.Context, recordID string, plaintext []byte) (string, error)
	Open(ctx context.Context, recordID, sealed string) ([]byte, error)
	Name() string
}

// Transit is the subset of the Vault client the transit sealer needs
type Transit interface {
	Encrypt(ctx context.Context, keyName string, plaintext, keyContext []byte) (string, error)
	Decrypt(ctx context.Context, keyName, ciphertext string, keyContext []byte) ([]byte, error)
}

// PlainSealer stores payloads unencrypted
type PlainSealer struct{}

// NewPlainSealer creates a sealer that does not encrypt
func NewPlainSealer() *PlainSealer {
	slog.Warn("Review answers are stored unencrypted; set VAULT_ENABLED or REVIEW_ENCRYPTION_KEY")
	return &PlainSealer{}
}

func (PlainSealer) Name() string { return "plain" }

func (PlainSealer) Seal(_ context.Context, _ string, plaintext []byte) (string, error) {
	return prefixPlain + string(plaintext), nil
}

func (PlainSealer) Open(_ context.Context, _ string, sealed string) ([]byte, error) {
	return openPlain(sealed)
}

func openPlain(sealed string) ([]byte, error) {
	if sealed == "" {
		return nil, nil
	}
	rest, ok := strings.CutPrefix(sealed, prefixPlain)
	if !ok {
		return nil, ErrUnsupportedEnvelope
	}
	return []byte(rest), nil
}

// LocalSealer encrypts with AES-256-GCM using a key derived from a
// configured secret
type LocalSealer struct {
	aead cipher.AEAD
}

// NewLocalSealer derives a 256 bit key from secret with HKDF-SHA256
func NewLocalSealer(secret string) (*LocalSealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is empty")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte("review-central"), []byte(TransitKeyName))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher creation failed: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("GCM creation failed: %w", err)
	}

	return &LocalSealer{aead: aead}, nil
}

func (s *LocalSealer) Name() string { return "local-aes-gcm" }

// Seal returns "gcm:" followed by base64(nonce || ciphertext)
func (s *LocalSealer) Seal(_ context.Context, recordID string, plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, plaintext, []byte(recordID))
	return prefixGCM + base64.StdEncoding.EncodeToString(out), nil
}

func (s *LocalSealer) Open(_ context.Context, recordID, sealed string) ([]byte, error) {
	rest, ok := strings.CutPrefix(sealed, prefixGCM)
	if !ok {
		return openPlain(sealed)
	}

	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid envelope encoding: %w", err)
	}

	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("envelope too short")
	}

	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(recordID))
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

// TransitSealer delegates encryption to the Vault transit engine
type TransitSealer struct {
	transit Transit
	keyName string
}

// NewTransitSealer creates a sealer backed by Vault transit
func NewTransitSealer(transit Transit, keyName string) *TransitSealer {
	if keyName == "" {
		keyName = TransitKeyName
	}
	return &TransitSealer{transit: transit, keyName: keyName}
}

func (s *TransitSealer) Name() string { return "vault-transit" }

// Seal returns Vault's "vault:vN:..." ciphertext unchanged
func (s *TransitSealer) Seal(ctx context.Context, recordID string, plaintext []byte) (string, error) {
	ciphertext, err := s.transit.Encrypt(ctx, s.keyName, plaintext, []byte(recordID))
	if err != nil {
		return "", fmt.Errorf("transit seal failed: %w", err)
	}
	return ciphertext, nil
}

func (s *TransitSealer) Open(ctx context.Context, recordID, sealed string) ([]byte, error) {
	if !strings.HasPrefix(sealed, prefixVault) {
		return openPlain(sealed)
	}

	plaintext, err := s.transit.Decrypt(ctx, s.keyName, sealed, []byte(recordID))
	if err != nil {
		return nil, fmt.Errorf("transit open failed: %w", err)
	}
	return plaintext, nil
}
