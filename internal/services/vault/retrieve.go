package vault

import (
	"context"
	"fmt"

	"github.com/TheMichaelB/credvault/internal/crypto"
	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/storage"
)

// RetrieveState is the terminal state of a retrieve.
type RetrieveState string

const (
	StateEncryptedOnly  RetrieveState = "encrypted_only"
	StateDecrypted      RetrieveState = "decrypted"
	StateGatingFailed   RetrieveState = "gating_failed"
	StateRetrieveFailed RetrieveState = "failed"
)

// RetrieveRequest is the input to Retrieve. Candidate and Code are only
// consulted when Unlock is set; Code matters only if the gate requires one.
type RetrieveRequest struct {
	Cipher    string
	Path      string
	Unlock    bool
	Candidate string
	Code      string
}

// Entry is one decrypted record. When Err is set Password is empty and
// Reason describes the failure.
type Entry struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Err      error  `json:"-"`
	Reason   string `json:"error,omitempty"`
}

// RetrieveResult reports the outcome of Retrieve.
type RetrieveResult struct {
	State     RetrieveState             `json:"state"`
	Path      string                    `json:"path"`
	Format    storage.Format            `json:"format,omitempty"`
	Scheme    models.Scheme             `json:"scheme,omitempty"`
	Encrypted []models.CredentialRecord `json:"encrypted"`
	Decrypted []Entry                   `json:"decrypted,omitempty"`
	Failures  int                       `json:"failures,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
}

// Retrieve reads the vault at req.Path. Encrypted always lists every record
// that was read. Plaintext is produced only when req.Unlock is set and the
// candidate passes the gate; a record that fails to decrypt is reported in
// its Entry and the remaining records are still processed.
func (s *Service) Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResult, error) {
	ctx = events.WithOperation(ctx, s.logger, "retrieve")
	logger := events.FromContext(ctx, s.logger)

	result := &RetrieveResult{State: StateRetrieveFailed, Path: req.Path}
	fail := func(err error) (*RetrieveResult, error) {
		result.Reason = models.Reason(err)
		logger.WithError(err).WithField("reason", result.Reason).Warn("Retrieve failed")
		return result, err
	}

	c, err := models.ParseCipher(req.Cipher)
	if err != nil {
		return fail(err)
	}

	store := storage.ForPath(req.Path, s.storageOptions(), logger)
	result.Format = store.Format()

	v, err := store.Read(req.Path)
	if err != nil {
		return fail(err)
	}

	result.Scheme = v.Scheme()
	result.Encrypted = v.Records
	if result.Encrypted == nil {
		result.Encrypted = []models.CredentialRecord{}
	}

	logger.WithFields(map[string]interface{}{
		"path":    req.Path,
		"format":  string(store.Format()),
		"scheme":  string(v.Scheme()),
		"records": len(v.Records),
	}).Debug("Read vault")

	if v.Header != nil && v.Header.Cipher != c {
		return fail(&models.CipherError{
			Op:     "decrypt",
			Reason: "cipher mismatch",
			Err:    fmt.Errorf("vault was sealed with %s, %s requested", v.Header.Cipher, c),
		})
	}

	if !req.Unlock {
		result.State = StateEncryptedOnly
		return result, nil
	}

	// Both checks always run so a failure does not reveal which one failed.
	passOK := s.gate.Check(req.Candidate)
	codeOK := s.gate.CheckCode(req.Code)
	if !passOK || !codeOK {
		result.State = StateGatingFailed
		result.Reason = models.Reason(models.ErrGatingDenied)
		logger.Warn("Gating check failed")
		return result, models.ErrGatingDenied
	}

	provider, err := crypto.NewProvider(v.Scheme(), c)
	if err != nil {
		return fail(err)
	}

	key, err := provider.DeriveKey(s.gate.keySecret(), v.Header)
	if err != nil {
		return fail(err)
	}
	defer crypto.Wipe(key)

	result.Decrypted = make([]Entry, 0, len(v.Records))
	for i, r := range v.Records {
		if err := ctx.Err(); err != nil {
			result.Decrypted = nil
			return fail(err)
		}

		entry := Entry{Username: r.Username}
		plaintext, err := provider.Decrypt(r.Secret, key)
		if err != nil {
			entry.Err = err
			entry.Reason = models.Reason(err)
			result.Failures++
			logger.WithFields(map[string]interface{}{
				"record": i,
				"reason": entry.Reason,
			}).Warn("Record failed to decrypt")
		} else {
			entry.Password = string(plaintext)
			crypto.Wipe(plaintext)
		}
		result.Decrypted = append(result.Decrypted, entry)
	}

	result.State = StateDecrypted

	logger.WithFields(map[string]interface{}{
		"path":     req.Path,
		"records":  len(result.Decrypted),
		"failures": result.Failures,
	}).Info("Decrypted credentials")

	return result, nil
}
