package models

import (
	"errors"
	"fmt"
	"os"
)

// Error codes for structured error handling.
const (
	ErrCodeUnsupportedCipher = "UNSUPPORTED_CIPHER"
	ErrCodeCipher            = "CIPHER_ERROR"
	ErrCodeStorage           = "STORAGE_ERROR"
	ErrCodeGating            = "GATING_DENIED"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeConfig            = "CONFIG_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// Sentinel errors
var (
	ErrGatingDenied    = errors.New("incorrect master password")
	ErrInvalidUsername = errors.New("username must not contain ':' or line breaks")
	ErrVaultCorrupt    = errors.New("vault file is corrupt")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNoCredentials   = errors.New("no credentials to save")
)

// UnsupportedCipherError is returned for a cipher identifier other than AES or DES.
type UnsupportedCipherError struct {
	Cipher string
}

func (e *UnsupportedCipherError) Error() string {
	return fmt.Sprintf("unsupported cipher %q", e.Cipher)
}

// CipherError reports a failed encrypt or decrypt.
// Reason never carries key material or plaintext.
type CipherError struct {
	Op     string
	Reason string
	Err    error
}

func (e *CipherError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *CipherError) Unwrap() error {
	return e.Err
}

// IOError wraps a filesystem or database failure on a vault path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Code maps an error to one of the ErrCode constants.
func Code(err error) string {
	var unsupported *UnsupportedCipherError
	var cipherErr *CipherError
	var ioErr *IOError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &unsupported):
		return ErrCodeUnsupportedCipher
	case errors.As(err, &cipherErr):
		return ErrCodeCipher
	case errors.Is(err, ErrGatingDenied):
		return ErrCodeGating
	case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrNoCredentials):
		return ErrCodeInvalidInput
	case errors.Is(err, ErrInvalidConfig):
		return ErrCodeConfig
	case errors.As(err, &ioErr), errors.Is(err, ErrVaultCorrupt):
		return ErrCodeStorage
	default:
		return ErrCodeInternal
	}
}

// Reason returns a short, user-facing description of err.
func Reason(err error) string {
	var cipherErr *CipherError
	var ioErr *IOError

	switch Code(err) {
	case "":
		return ""
	case ErrCodeUnsupportedCipher:
		return "unsupported cipher"
	case ErrCodeCipher:
		if errors.As(err, &cipherErr) && cipherErr.Reason != "" {
			return cipherErr.Reason
		}
		return "cipher failure"
	case ErrCodeGating:
		return "incorrect master password"
	case ErrCodeInvalidInput:
		if errors.Is(err, ErrNoCredentials) {
			return "no credentials"
		}
		return "invalid username"
	case ErrCodeConfig:
		return "invalid configuration"
	case ErrCodeStorage:
		if errors.Is(err, ErrVaultCorrupt) {
			return "vault file is corrupt"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "file not found"
		}
		if errors.Is(err, os.ErrPermission) {
			return "permission denied"
		}
		if errors.As(err, &ioErr) {
			return ioErr.Op + " failed"
		}
		return "storage failure"
	default:
		return "internal error"
	}
}
