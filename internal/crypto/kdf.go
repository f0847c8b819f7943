package crypto

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/credvault/internal/models"
)

const (
	// SealedKeySize is the AES-256 key length used by the sealed scheme.
	SealedKeySize = 32

	// PBKDF2 parameters
	DefaultIterations = 100000
	MinIterations     = 1000
	SaltSize          = 32
	MinSaltSize       = 16

	// Scrypt parameters
	ScryptN = 32768 // CPU/memory cost parameter
	ScryptR = 8     // block size parameter
	ScryptP = 1     // parallelization parameter
)

// DeriveKey turns the gating secret into a key for the legacy scheme.
// The key is the SHA-1 digest of the raw secret bytes truncated to the
// cipher's key size. No salt and no work factor.
func DeriveKey(secret string, c models.CipherChoice) ([]byte, error) {
	size := c.KeySize()
	if size == 0 {
		return nil, &models.UnsupportedCipherError{Cipher: string(c)}
	}

	digest := sha1.Sum([]byte(secret))
	key := make([]byte, size)
	copy(key, digest[:size])
	return key, nil
}

// NewKDFParams returns parameters with a fresh random salt.
func NewKDFParams(algorithm string, iterations int) (*models.KDFParams, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	params := &models.KDFParams{
		Algorithm: algorithm,
		Salt:      base64.StdEncoding.EncodeToString(salt),
	}

	switch algorithm {
	case models.KDFPBKDF2:
		if iterations <= 0 {
			iterations = DefaultIterations
		}
		if iterations < MinIterations {
			return nil, fmt.Errorf("pbkdf2 iterations too low: %d (min %d)", iterations, MinIterations)
		}
		params.Iterations = iterations
	case models.KDFScrypt:
		params.ScryptN = ScryptN
		params.ScryptR = ScryptR
		params.ScryptP = ScryptP
	default:
		return nil, fmt.Errorf("unsupported kdf algorithm: %q", algorithm)
	}

	return params, nil
}

// DeriveSealedKey derives an AES-256 key from the gating secret and the
// vault's KDF parameters. The secret is NFKC-normalized first so the same
// passphrase typed on different keyboards yields the same key.
func DeriveSealedKey(secret string, params *models.KDFParams) ([]byte, error) {
	if params == nil {
		return nil, fmt.Errorf("missing kdf parameters")
	}

	salt, err := base64.StdEncoding.DecodeString(params.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	if len(salt) < MinSaltSize {
		return nil, fmt.Errorf("salt too short: %d bytes", len(salt))
	}

	normalized := []byte(norm.NFKC.String(secret))

	switch params.Algorithm {
	case models.KDFPBKDF2:
		if params.Iterations < MinIterations {
			return nil, fmt.Errorf("pbkdf2 iterations too low: %d", params.Iterations)
		}
		return pbkdf2.Key(normalized, salt, params.Iterations, SealedKeySize, sha256.New), nil

	case models.KDFScrypt:
		key, err := scrypt.Key(normalized, salt, params.ScryptN, params.ScryptR, params.ScryptP, SealedKeySize)
		if err != nil {
			return nil, fmt.Errorf("scrypt key derivation: %w", err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("unsupported kdf algorithm: %q", params.Algorithm)
	}
}

// Wipe zeroes key or plaintext material.
func Wipe(b []byte) {
	clear(b)
}
