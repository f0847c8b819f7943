package totp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Verifier checks authenticator codes for one shared secret.
type Verifier struct {
	secret string
	opts   totp.ValidateOpts
	now    func() time.Time
}

// NewVerifier creates a verifier with the standard authenticator settings:
// 30 second period, 6 digits, SHA1, one period of skew either side.
func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	if secret == "" {
		return nil, fmt.Errorf("totp: secret cannot be empty")
	}

	v := &Verifier{
		secret: secret,
		opts: totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		},
		now: time.Now,
	}

	// Generating a code is the cheapest way to validate the base32 secret.
	if _, err := v.CodeAt(time.Now()); err != nil {
		return nil, fmt.Errorf("totp: invalid secret format: %w", err)
	}

	return v, nil
}

// Validate reports whether code is valid for the current time window.
func (v *Verifier) Validate(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, v.secret, v.now().UTC(), v.opts)
	return err == nil && ok
}

// CodeAt generates the code for t.
func (v *Verifier) CodeAt(t time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(v.secret, t, v.opts)
	if err != nil {
		return "", fmt.Errorf("totp: failed to generate code: %w", err)
	}
	return code, nil
}
