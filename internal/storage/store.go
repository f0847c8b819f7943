package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
)

// Store persists a vault to a path and reads it back.
type Store interface {
	// Format reports the on-disk format.
	Format() Format

	// Write replaces whatever is at path with v in a single atomic step.
	Write(v *models.Vault, path string) error

	// Read loads the vault at path.
	Read(path string) (*models.Vault, error)
}

// Format names an on-disk vault format.
type Format string

const (
	// FormatLines is one "username:ciphertext" line per record, no header.
	FormatLines Format = "lines"

	// FormatJSON is a checksummed JSON document with a header.
	FormatJSON Format = "json"

	// FormatSQLite is a SQLite database with header and credentials tables.
	FormatSQLite Format = "sqlite"
)

// Structured reports whether the format carries a vault header.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatSQLite
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatLines, nil
	case FormatLines, FormatJSON, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown storage format %q", models.ErrInvalidConfig, s)
	}
}

// Options configure store selection.
type Options struct {
	// Format is used when the path extension does not name one.
	Format Format

	// KeepBackup keeps a .backup copy of the previous JSON document.
	KeepBackup bool
}

// FormatFromExt reports the format named by the path extension, if any.
func FormatFromExt(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, true
	default:
		return "", false
	}
}

// DetectFormat picks a format from the path extension, falling back to def.
func DetectFormat(path string, def Format) Format {
	if f, ok := FormatFromExt(path); ok {
		return f
	}
	if def == "" {
		return FormatLines
	}
	return def
}

// ForPath returns the store responsible for path.
func ForPath(path string, opts Options, logger *events.Logger) Store {
	switch DetectFormat(path, opts.Format) {
	case FormatJSON:
		return NewJSONStore(logger, opts.KeepBackup)
	case FormatSQLite:
		return NewSQLiteStore(logger)
	default:
		return NewLineStore(logger)
	}
}
