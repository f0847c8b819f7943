package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
)

// ErrMissingHeader is returned when a structured store is handed a vault
// without a header.
var ErrMissingHeader = errors.New("structured vault requires a header")

// backupSuffix is appended to the vault path for the previous document.
const backupSuffix = ".backup"

// jsonDocument is the on-disk shape. Header and records are kept raw so the
// checksum covers exactly the bytes that were written.
type jsonDocument struct {
	Header   json.RawMessage `json:"header"`
	Records  json.RawMessage `json:"records"`
	Checksum string          `json:"checksum"`
}

// JSONStore stores a vault as a checksummed JSON document.
type JSONStore struct {
	logger     *events.Logger
	keepBackup bool
}

// NewJSONStore creates a JSON store. With keepBackup the previous document
// is copied to path+".backup" before every write and used when the primary
// fails verification.
func NewJSONStore(logger *events.Logger, keepBackup bool) *JSONStore {
	if logger == nil {
		logger = events.Nop()
	}
	return &JSONStore{
		logger:     logger.WithField("component", "json_store"),
		keepBackup: keepBackup,
	}
}

// Format implements Store.
func (s *JSONStore) Format() Format {
	return FormatJSON
}

// Write implements Store.
func (s *JSONStore) Write(v *models.Vault, path string) error {
	if v.Header == nil {
		return ErrMissingHeader
	}
	if err := v.Header.Validate(); err != nil {
		return fmt.Errorf("validate header: %w", err)
	}

	headerData, err := json.Marshal(v.Header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	records := v.Records
	if records == nil {
		records = []models.CredentialRecord{}
	}
	recordData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	checksum, err := documentChecksum(headerData, recordData)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(jsonDocument{
		Header:   headerData,
		Records:  recordData,
		Checksum: checksum,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if s.keepBackup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+backupSuffix); err != nil {
				s.logger.WithError(err).Warn("Failed to create backup")
			}
		}
	}

	if err := writeFileAtomic(path, vaultFileMode, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	}); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path":     path,
		"vault_id": v.Header.ID,
		"records":  len(records),
	}).Debug("Wrote JSON vault")

	return nil
}

// Read implements Store.
func (s *JSONStore) Read(path string) (*models.Vault, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	vault, err := decodeDocument(data)
	if err == nil {
		return vault, nil
	}

	s.logger.WithError(err).WithField("path", path).Error("Vault failed verification")

	if s.keepBackup {
		if backup, berr := s.loadBackup(path); berr == nil {
			s.logger.WithField("path", path).Warn("Loaded vault from backup due to corruption")
			return backup, nil
		}
	}

	return nil, &models.IOError{Op: "read", Path: path, Err: fmt.Errorf("%w: %v", models.ErrVaultCorrupt, err)}
}

func (s *JSONStore) loadBackup(path string) (*models.Vault, error) {
	data, err := os.ReadFile(path + backupSuffix)
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

// decodeDocument parses and verifies a JSON vault document.
func decodeDocument(data []byte) (*models.Vault, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	if len(doc.Header) == 0 || len(doc.Records) == 0 {
		return nil, fmt.Errorf("document is incomplete")
	}

	calculated, err := documentChecksum(doc.Header, doc.Records)
	if err != nil {
		return nil, err
	}
	if calculated != doc.Checksum {
		return nil, fmt.Errorf("checksum mismatch")
	}

	var header models.VaultHeader
	if err := json.Unmarshal(doc.Header, &header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	if err := header.Validate(); err != nil {
		return nil, fmt.Errorf("validate header: %w", err)
	}

	var records []models.CredentialRecord
	if err := json.Unmarshal(doc.Records, &records); err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}

	return &models.Vault{Header: &header, Records: records}, nil
}

// documentChecksum hashes the compacted header and records so indentation
// does not affect verification.
func documentChecksum(header, records []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, header); err != nil {
		return "", fmt.Errorf("compact header: %w", err)
	}
	buf.WriteByte('\n')
	if err := json.Compact(&buf, records); err != nil {
		return "", fmt.Errorf("compact records: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}
