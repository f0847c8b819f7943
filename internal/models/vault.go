package models

import (
	"fmt"
	"strings"
	"time"
)

// CurrentSchemaVersion is written into every structured vault header.
const CurrentSchemaVersion = 1

// FieldDelimiter separates username and secret in line-format vaults.
const FieldDelimiter = ":"

// Credential is a plaintext username/password pair supplied for saving.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// CredentialRecord is a persisted entry. Secret holds base64 ciphertext
// once the record has been sealed.
type CredentialRecord struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// ValidateUsername rejects usernames that would break line parsing.
func ValidateUsername(username string) error {
	if strings.Contains(username, FieldDelimiter) || strings.ContainsAny(username, "\r\n") {
		return ErrInvalidUsername
	}
	return nil
}

// VaultHeader describes how a structured vault was sealed.
type VaultHeader struct {
	ID            string       `json:"id"`
	SchemaVersion int          `json:"schema_version"`
	Scheme        Scheme       `json:"scheme"`
	Cipher        CipherChoice `json:"cipher"`
	KDF           *KDFParams   `json:"kdf,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Validate checks the header structure.
func (h *VaultHeader) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("vault ID is required")
	}

	if h.SchemaVersion <= 0 || h.SchemaVersion > CurrentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %d", h.SchemaVersion)
	}

	if _, err := ParseScheme(string(h.Scheme)); err != nil {
		return err
	}

	if err := h.Cipher.Validate(); err != nil {
		return err
	}

	if h.Scheme == SchemeSealed {
		if h.KDF == nil || h.KDF.Salt == "" {
			return fmt.Errorf("sealed vault requires kdf parameters")
		}
	}

	return nil
}

// Vault is the unit read from and written to a store.
// Header is nil for line-format vaults.
type Vault struct {
	Header  *VaultHeader       `json:"header,omitempty"`
	Records []CredentialRecord `json:"records"`
}

// Scheme returns the sealing scheme, legacy when there is no header.
func (v *Vault) Scheme() Scheme {
	if v.Header == nil || v.Header.Scheme == "" {
		return SchemeLegacy
	}
	return v.Header.Scheme
}

// Usernames returns the record usernames in order.
func (v *Vault) Usernames() []string {
	names := make([]string, len(v.Records))
	for i, r := range v.Records {
		names[i] = r.Username
	}
	return names
}
