package models

import (
	"fmt"
	"strings"
)

// CipherChoice selects the block cipher and the derived key length.
type CipherChoice string

const (
	CipherAES CipherChoice = "AES"
	CipherDES CipherChoice = "DES"
)

// ParseCipher normalizes user input ("aes", " DES ") into a CipherChoice.
func ParseCipher(s string) (CipherChoice, error) {
	c := CipherChoice(strings.ToUpper(strings.TrimSpace(s)))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate reports whether c is a supported cipher.
func (c CipherChoice) Validate() error {
	switch c {
	case CipherAES, CipherDES:
		return nil
	default:
		return &UnsupportedCipherError{Cipher: string(c)}
	}
}

// KeySize returns the derived key length in bytes: 16 for AES-128, 8 for DES.
// Zero means the cipher is not supported.
func (c CipherChoice) KeySize() int {
	switch c {
	case CipherAES:
		return 16
	case CipherDES:
		return 8
	default:
		return 0
	}
}

// BlockSize returns the cipher block size in bytes.
func (c CipherChoice) BlockSize() int {
	switch c {
	case CipherAES:
		return 16
	case CipherDES:
		return 8
	default:
		return 0
	}
}

func (c CipherChoice) String() string {
	return string(c)
}

// Scheme identifies how keys are derived and records are sealed.
type Scheme string

const (
	// SchemeLegacy: unsalted SHA-1 key, ECB mode, PKCS#7 padding.
	SchemeLegacy Scheme = "legacy"

	// SchemeSealed: salted PBKDF2/scrypt key, AES-GCM with a nonce per record.
	SchemeSealed Scheme = "sealed"
)

// ParseScheme normalizes a scheme name. Empty input means legacy.
func ParseScheme(s string) (Scheme, error) {
	switch sc := Scheme(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return SchemeLegacy, nil
	case SchemeLegacy, SchemeSealed:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: unknown scheme %q", ErrInvalidConfig, sc)
	}
}

// KDF algorithm names.
const (
	KDFPBKDF2 = "pbkdf2"
	KDFScrypt = "scrypt"
)

// KDFParams holds key derivation parameters for sealed vaults.
type KDFParams struct {
	Algorithm  string `json:"algorithm"`
	Salt       string `json:"salt"` // Base64 encoded
	Iterations int    `json:"iterations,omitempty"`
	ScryptN    int    `json:"scrypt_n,omitempty"`
	ScryptR    int    `json:"scrypt_r,omitempty"`
	ScryptP    int    `json:"scrypt_p,omitempty"`
}
