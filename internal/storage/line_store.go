package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
)

// maxLineSize bounds a single record line.
const maxLineSize = 1 << 20

// LineStore reads and writes "username:ciphertext" text files.
type LineStore struct {
	logger *events.Logger
}

// NewLineStore creates a line-format store.
func NewLineStore(logger *events.Logger) *LineStore {
	if logger == nil {
		logger = events.Nop()
	}
	return &LineStore{
		logger: logger.WithField("component", "line_store"),
	}
}

// Format implements Store.
func (s *LineStore) Format() Format {
	return FormatLines
}

// Write implements Store. Line files carry no header, so only legacy vaults
// can be written.
func (s *LineStore) Write(v *models.Vault, path string) error {
	if v.Scheme() != models.SchemeLegacy {
		return fmt.Errorf("%w: line format cannot hold a %s vault", models.ErrInvalidConfig, v.Scheme())
	}
	return s.WriteRecords(v.Records, path)
}

// Read implements Store.
func (s *LineStore) Read(path string) (*models.Vault, error) {
	records, err := s.ReadRecords(path)
	if err != nil {
		return nil, err
	}
	return &models.Vault{Records: records}, nil
}

// WriteRecords writes one line per record, creating or truncating path.
func (s *LineStore) WriteRecords(records []models.CredentialRecord, path string) error {
	for _, r := range records {
		if err := models.ValidateUsername(r.Username); err != nil {
			return fmt.Errorf("%w: %q", err, r.Username)
		}
	}

	err := writeFileAtomic(path, vaultFileMode, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		for _, r := range records {
			if _, err := bw.WriteString(r.Username + models.FieldDelimiter + r.Secret + "\n"); err != nil {
				return err
			}
		}
		return bw.Flush()
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(records),
	}).Debug("Wrote line vault")

	return nil
}

// ReadRecords parses path into records in file order. Lines that do not
// split into exactly a username and a non-empty secret are skipped.
func (s *LineStore) ReadRecords(path string) ([]models.CredentialRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	records, skipped, err := parseLines(file)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}

	if len(skipped) > 0 {
		// Line numbers only; skipped content may hold secrets.
		s.logger.WithFields(map[string]interface{}{
			"path":  path,
			"lines": skipped,
		}).Debug("Skipped malformed lines")
	}

	return records, nil
}

// parseLines returns the well-formed records and the 1-based numbers of
// skipped lines.
func parseLines(r io.Reader) ([]models.CredentialRecord, []int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []models.CredentialRecord
	var skipped []int

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		parts := strings.Split(line, models.FieldDelimiter)
		if len(parts) != 2 || parts[1] == "" {
			skipped = append(skipped, lineNo)
			continue
		}

		records = append(records, models.CredentialRecord{
			Username: parts[0],
			Secret:   parts[1],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return records, skipped, nil
}
