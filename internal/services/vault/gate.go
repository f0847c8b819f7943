package vault

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"github.com/TheMichaelB/credvault/internal/services/totp"
)

// ErrEmptySecret is returned when the gate is built without a secret.
var ErrEmptySecret = errors.New("gating secret is empty")

// Gate holds the master secret that unlocks decryption and keys every vault.
type Gate struct {
	secret string
	digest [sha256.Size]byte
	codes  *totp.Verifier
}

// NewGate creates a gate for secret.
func NewGate(secret string) (*Gate, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Gate{
		secret: secret,
		digest: sha256.Sum256([]byte(secret)),
	}, nil
}

// Check reports whether candidate equals the secret. Digests are compared so
// the comparison time does not depend on where the inputs differ or on
// their lengths.
func (g *Gate) Check(candidate string) bool {
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(sum[:], g.digest[:]) == 1
}

// WithTOTP makes the gate also require a valid authenticator code.
func (g *Gate) WithTOTP(v *totp.Verifier) *Gate {
	g.codes = v
	return g
}

// RequiresCode reports whether an authenticator code is part of the check.
func (g *Gate) RequiresCode() bool {
	return g.codes != nil
}

// CheckCode reports whether code is accepted. Without a verifier every code
// is accepted.
func (g *Gate) CheckCode(code string) bool {
	if g.codes == nil {
		return true
	}
	return g.codes.Validate(code)
}

func (g *Gate) keySecret() string {
	return g.secret
}
