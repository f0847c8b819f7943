package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/TheMichaelB/credvault/internal/models"
)

// GateSecret is the master password used across tests.
const GateSecret = "secret123"

// Known legacy ciphertexts under GateSecret.
const (
	AliceAES = "QuB2Wr4KrhyPMq7Nrexz5g==" // "hunter2"
	AliceDES = "mTivqfSko3Q="             // "hunter2"
	EmptyAES = "SHKFuFVmLw5MV4BC6Ew8JQ==" // ""
)

// SampleCredentials covers empty, block-boundary, unicode and duplicate
// entries.
func SampleCredentials() []models.Credential {
	return []models.Credential{
		{Username: "alice", Password: "hunter2"},
		{Username: "bob", Password: ""},
		{Username: "carol", Password: "01234567"},
		{Username: "dave", Password: "0123456789abcdef"},
		{Username: "erin", Password: "pässwörd ✓ 密码"},
		{Username: "alice", Password: strings.Repeat("x", 100)},
	}
}

// GenerateCredentials creates n credentials with distinct usernames.
func GenerateCredentials(n, passwordLen int) []models.Credential {
	creds := make([]models.Credential, n)
	for i := range creds {
		creds[i] = models.Credential{
			Username: fmt.Sprintf("user%05d", i),
			Password: RandomPassword(passwordLen),
		}
	}
	return creds
}

// RandomPassword returns a printable random string of length n.
func RandomPassword(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)[:n]
}
