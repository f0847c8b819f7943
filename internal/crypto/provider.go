package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/TheMichaelB/credvault/internal/models"
)

// Errors
var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidPadding    = errors.New("invalid padding")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

// EncryptText pads plaintext, encrypts it in ECB mode and returns base64 text.
func EncryptText(plaintext, key []byte, c models.CipherChoice) (string, error) {
	block, err := newBlock(c, key)
	if err != nil {
		return "", wrapCipherErr("encrypt", err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	defer Wipe(padded)

	return base64.StdEncoding.EncodeToString(ecbEncrypt(block, padded)), nil
}

// DecryptText reverses EncryptText. A wrong key almost always surfaces as
// invalid padding; ECB has no authentication to detect it reliably.
func DecryptText(text string, key []byte, c models.CipherChoice) ([]byte, error) {
	block, err := newBlock(c, key)
	if err != nil {
		return nil, wrapCipherErr("decrypt", err)
	}

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid base64", Err: err}
	}

	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid ciphertext length", Err: ErrInvalidCiphertext}
	}

	decrypted := ecbDecrypt(block, raw)
	plaintext, err := pkcs7Unpad(decrypted, block.BlockSize())
	if err != nil {
		Wipe(decrypted)
		return nil, &models.CipherError{Op: "decrypt", Reason: "invalid padding", Err: err}
	}

	return plaintext, nil
}

// wrapCipherErr keeps UnsupportedCipherError visible to errors.As and
// turns everything else into a CipherError.
func wrapCipherErr(op string, err error) error {
	var unsupported *models.UnsupportedCipherError
	if errors.As(err, &unsupported) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, ErrInvalidKey) {
		return &models.CipherError{Op: op, Reason: "invalid key size", Err: err}
	}
	return &models.CipherError{Op: op, Reason: "cipher setup failed", Err: err}
}

// LegacyProvider implements the line-file scheme: unsalted SHA-1 key and ECB.
type LegacyProvider struct {
	cipher models.CipherChoice
}

// NewLegacyProvider creates a legacy provider for c.
func NewLegacyProvider(c models.CipherChoice) (*LegacyProvider, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &LegacyProvider{cipher: c}, nil
}

// Scheme implements Provider.
func (p *LegacyProvider) Scheme() models.Scheme {
	return models.SchemeLegacy
}

// DeriveKey implements Provider.
func (p *LegacyProvider) DeriveKey(secret string, _ *models.VaultHeader) ([]byte, error) {
	return DeriveKey(secret, p.cipher)
}

// Encrypt implements Provider.
func (p *LegacyProvider) Encrypt(plaintext, key []byte) (string, error) {
	return EncryptText(plaintext, key, p.cipher)
}

// Decrypt implements Provider.
func (p *LegacyProvider) Decrypt(text string, key []byte) ([]byte, error) {
	return DecryptText(text, key, p.cipher)
}

// NewProvider returns the provider for a scheme and cipher.
func NewProvider(scheme models.Scheme, c models.CipherChoice) (Provider, error) {
	switch scheme {
	case models.SchemeLegacy, "":
		return NewLegacyProvider(c)
	case models.SchemeSealed:
		return NewSealedProvider(c)
	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", models.ErrInvalidConfig, scheme)
	}
}
