package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/credvault/internal/crypto"
	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/storage"
)

// Options configure how new vaults are sealed and stored.
type Options struct {
	Scheme     models.Scheme
	Format     storage.Format
	KeepBackup bool

	// KDF and Iterations apply to sealed vaults.
	KDF        string
	Iterations int
}

// Service runs the save and retrieve flows.
type Service struct {
	gate   *Gate
	opts   Options
	logger *events.Logger
}

// NewService creates a vault service.
func NewService(gate *Gate, opts Options, logger *events.Logger) *Service {
	if logger == nil {
		logger = events.Nop()
	}
	if opts.Scheme == "" {
		opts.Scheme = models.SchemeLegacy
	}
	if opts.Format == "" {
		opts.Format = storage.FormatLines
	}
	if opts.KDF == "" {
		opts.KDF = models.KDFPBKDF2
	}
	return &Service{
		gate:   gate,
		opts:   opts,
		logger: logger.WithField("service", "vault"),
	}
}

// SaveState is the terminal state of a save.
type SaveState string

const (
	StateSaved      SaveState = "saved"
	StateSaveFailed SaveState = "failed"
)

// SaveRequest is the input to Save.
type SaveRequest struct {
	Credentials []models.Credential
	Cipher      string
	Path        string
}

// SaveResult reports the outcome of Save.
type SaveResult struct {
	State   SaveState      `json:"state"`
	Path    string         `json:"path"`
	Format  storage.Format `json:"format,omitempty"`
	Scheme  models.Scheme  `json:"scheme,omitempty"`
	VaultID string         `json:"vault_id,omitempty"`
	Records int            `json:"records"`
	Reason  string         `json:"reason,omitempty"`
}

// Save encrypts every credential under the gating secret and writes them to
// req.Path in one atomic write, replacing any existing vault. The returned
// error, when non-nil, is also summarized in SaveResult.Reason.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	ctx = events.WithOperation(ctx, s.logger, "save")
	logger := events.FromContext(ctx, s.logger)

	result := &SaveResult{State: StateSaveFailed, Path: req.Path}
	fail := func(err error) (*SaveResult, error) {
		result.Reason = models.Reason(err)
		logger.WithError(err).WithField("reason", result.Reason).Warn("Save failed")
		return result, err
	}

	c, err := models.ParseCipher(req.Cipher)
	if err != nil {
		return fail(err)
	}

	store := storage.ForPath(req.Path, s.storageOptions(), logger)
	result.Format = store.Format()
	result.Scheme = s.opts.Scheme

	if s.opts.Scheme == models.SchemeSealed && !store.Format().Structured() {
		return fail(fmt.Errorf("%w: %s scheme requires json or sqlite storage", models.ErrInvalidConfig, s.opts.Scheme))
	}

	for _, cred := range req.Credentials {
		if store.Format() == storage.FormatLines {
			if err := models.ValidateUsername(cred.Username); err != nil {
				return fail(fmt.Errorf("%w: %q", err, cred.Username))
			}
		}
	}

	provider, err := crypto.NewProvider(s.opts.Scheme, c)
	if err != nil {
		return fail(err)
	}

	var header *models.VaultHeader
	if store.Format().Structured() {
		header, err = s.newHeader(c)
		if err != nil {
			return fail(err)
		}
		result.VaultID = header.ID
	}

	key, err := provider.DeriveKey(s.gate.keySecret(), header)
	if err != nil {
		return fail(err)
	}
	defer crypto.Wipe(key)

	logger.WithFields(map[string]interface{}{
		"path":    req.Path,
		"cipher":  c.String(),
		"scheme":  string(s.opts.Scheme),
		"format":  string(store.Format()),
		"records": len(req.Credentials),
	}).Debug("Encrypting credentials")

	records := make([]models.CredentialRecord, 0, len(req.Credentials))
	for _, cred := range req.Credentials {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		secret, err := provider.Encrypt([]byte(cred.Password), key)
		if err != nil {
			return fail(err)
		}
		records = append(records, models.CredentialRecord{Username: cred.Username, Secret: secret})
	}

	if err := store.Write(&models.Vault{Header: header, Records: records}, req.Path); err != nil {
		return fail(err)
	}

	result.State = StateSaved
	result.Records = len(records)

	logger.WithFields(map[string]interface{}{
		"path":    req.Path,
		"records": result.Records,
	}).Info("Saved credentials")

	return result, nil
}

func (s *Service) newHeader(c models.CipherChoice) (*models.VaultHeader, error) {
	header := &models.VaultHeader{
		ID:            uuid.NewString(),
		SchemaVersion: models.CurrentSchemaVersion,
		Scheme:        s.opts.Scheme,
		Cipher:        c,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}

	if s.opts.Scheme == models.SchemeSealed {
		params, err := crypto.NewKDFParams(s.opts.KDF, s.opts.Iterations)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidConfig, err)
		}
		header.KDF = params
	}

	return header, nil
}

func (s *Service) storageOptions() storage.Options {
	return storage.Options{Format: s.opts.Format, KeepBackup: s.opts.KeepBackup}
}

// RequiresCode reports whether unlocking needs an authenticator code.
func (s *Service) RequiresCode() bool {
	return s.gate.RequiresCode()
}
