// Package sealbox encrypts security metadata at rest. Records are
// sealed with AES-256-GCM under a key derived from a passphrase via
// PBKDF2-SHA256, and serialized as a compact base64 envelope of
// salt || nonce || ciphertext.
package sealbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen    = 16
	nonceLen   = 12
	keyLen     = 32
	iterations = 100000
)

var errEnvelope = errors.New("sealbox: malformed envelope")

// Box seals and opens metadata records under a single passphrase.
type Box struct {
	passphrase []byte
}

// New returns a Box for the given passphrase.
func New(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, errors.New("sealbox: passphrase must not be empty")
	}
	return &Box{passphrase: []byte(passphrase)}, nil
}

func (b *Box) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(b.passphrase, salt, iterations, keyLen, sha256.New)
}

// Seal marshals v as JSON and encrypts it. Each call draws a fresh salt
// and nonce, so sealing the same value twice yields different
// envelopes that both open to the same plaintext.
func (b *Box) Seal(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sealbox: marshal: %w", err)
	}

	buf := make([]byte, saltLen+nonceLen)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("sealbox: entropy: %w", err)
	}
	salt, nonce := buf[:saltLen], buf[saltLen:]

	block, err := aes.NewCipher(b.deriveKey(salt))
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(buf, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts an envelope produced by Seal and returns the JSON
// plaintext. A wrong passphrase or any tampering fails authentication.
func (b *Box) Open(envelope string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return nil, errEnvelope
	}
	if len(raw) < saltLen+nonceLen {
		return nil, errEnvelope
	}
	salt, nonce, ciphertext := raw[:saltLen], raw[saltLen:saltLen+nonceLen], raw[saltLen+nonceLen:]

	block, err := aes.NewCipher(b.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("sealbox: decryption failed")
	}
	return plaintext, nil
}

// OpenJSON decrypts an envelope and unmarshals the plaintext into v.
func (b *Box) OpenJSON(envelope string, v any) error {
	plaintext, err := b.Open(envelope)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("sealbox: unmarshal: %w", err)
	}
	return nil
}
