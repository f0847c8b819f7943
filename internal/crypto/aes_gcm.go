package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/TheMichaelB/credvault/internal/models"
)

const (
	NonceSize = 12 // GCM standard
	TagSize   = 16 // GCM tag
)

// SealedProvider encrypts each record with AES-256-GCM under a fresh nonce.
type SealedProvider struct{}

// NewSealedProvider creates a sealed provider. Only AES is supported.
func NewSealedProvider(c models.CipherChoice) (*SealedProvider, error) {
	if c != models.CipherAES {
		return nil, &models.UnsupportedCipherError{Cipher: string(c)}
	}
	return &SealedProvider{}, nil
}

// Scheme implements Provider.
func (p *SealedProvider) Scheme() models.Scheme {
	return models.SchemeSealed
}

// DeriveKey implements Provider.
func (p *SealedProvider) DeriveKey(secret string, header *models.VaultHeader) ([]byte, error) {
	if header == nil {
		return nil, fmt.Errorf("sealed vault requires a header")
	}
	return DeriveSealedKey(secret, header.KDF)
}

// Encrypt implements Provider.
// Returns: base64(nonce || ciphertext || tag)
func (p *SealedProvider) Encrypt(plaintext, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", &models.CipherError{Op: "encrypt", Reason: "invalid key size", Err: err}
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", &models.CipherError{Op: "encrypt", Reason: "generate nonce", Err: err}
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt implements Provider.
func (p *SealedProvider) Decrypt(text string, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid key size", Err: err}
	}

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid base64", Err: err}
	}

	// Minimum size: nonce + tag
	if len(raw) < NonceSize+TagSize {
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid ciphertext length", Err: ErrInvalidCiphertext}
	}

	plaintext, err := aead.Open(nil, raw[:NonceSize], raw[NonceSize:], nil)
	if err != nil {
		return nil, &models.CipherError{Op: "decrypt", Reason: "decryption failed", Err: ErrDecryptionFailed}
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SealedKeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return aead, nil
}
