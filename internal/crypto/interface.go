package crypto

import "github.com/TheMichaelB/credvault/internal/models"

// Provider defines the interface for cryptographic operations of one scheme.
type Provider interface {
	// Scheme reports which sealing scheme the provider implements.
	Scheme() models.Scheme

	// DeriveKey derives the record key from the gating secret.
	// Legacy providers ignore the header; sealed providers read its KDF parameters.
	DeriveKey(secret string, header *models.VaultHeader) ([]byte, error)

	// Encrypt seals plaintext and returns it as base64 text.
	Encrypt(plaintext, key []byte) (string, error)

	// Decrypt reverses Encrypt.
	Decrypt(text string, key []byte) ([]byte, error)
}
