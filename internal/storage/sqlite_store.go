package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vault_header (
        id TEXT PRIMARY KEY,
        schema_version INTEGER NOT NULL,
        scheme TEXT NOT NULL,
        cipher TEXT NOT NULL,
        kdf TEXT,
        created_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS credentials (
        position INTEGER PRIMARY KEY,
        username TEXT NOT NULL,
        secret TEXT NOT NULL
    )`,
}

// SQLiteStore stores a vault as a SQLite database file.
type SQLiteStore struct {
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite store.
func NewSQLiteStore(logger *events.Logger) *SQLiteStore {
	if logger == nil {
		logger = events.Nop()
	}
	return &SQLiteStore{
		logger: logger.WithField("component", "sqlite_store"),
	}
}

// Format implements Store.
func (s *SQLiteStore) Format() Format {
	return FormatSQLite
}

// Write implements Store. The database is built in a temp file next to path
// and renamed into place once it is closed.
func (s *SQLiteStore) Write(v *models.Vault, path string) error {
	if v.Header == nil {
		return ErrMissingHeader
	}
	if err := v.Header.Validate(); err != nil {
		return fmt.Errorf("validate header: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return &models.IOError{Op: "write", Path: path, Err: err}
	}
	tempPath := tempFile.Name()
	tempFile.Close()

	success := false
	defer func() {
		if !success {
			os.Remove(tempPath)
			os.Remove(tempPath + "-journal")
		}
	}()

	if err := os.Chmod(tempPath, vaultFileMode); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", tempPath+"?_timeout=5000")
	if err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("open database: %w", err)}
	}

	if err := (&sqlVault{db: db}).replace(v); err != nil {
		db.Close()
		return &models.IOError{Op: "write", Path: path, Err: err}
	}

	if err := db.Close(); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("close database: %w", err)}
	}

	if err := os.Rename(tempPath, path); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("rename database: %w", err)}
	}
	success = true

	s.logger.WithFields(map[string]interface{}{
		"path":     path,
		"vault_id": v.Header.ID,
		"records":  len(v.Records),
	}).Debug("Wrote SQLite vault")

	return nil
}

// Read implements Store.
func (s *SQLiteStore) Read(path string) (*models.Vault, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_timeout=5000")
	if err != nil {
		return nil, &models.IOError{Op: "open", Path: path, Err: err}
	}
	defer db.Close()

	vault, err := (&sqlVault{db: db}).load()
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    path,
		"records": len(vault.Records),
	}).Debug("Read SQLite vault")

	return vault, nil
}

// sqlVault holds the queries, independent of how the database was opened.
type sqlVault struct {
	db *sql.DB
}

// replace swaps the stored vault for v in one transaction.
func (q *sqlVault) replace(v *models.Vault) error {
	var kdf sql.NullString
	if v.Header.KDF != nil {
		data, err := json.Marshal(v.Header.KDF)
		if err != nil {
			return fmt.Errorf("marshal kdf: %w", err)
		}
		kdf = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := q.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM vault_header`); err != nil {
		return fmt.Errorf("clear header: %w", err)
	}

	h := v.Header
	if _, err := tx.Exec(`
        INSERT INTO vault_header (id, schema_version, scheme, cipher, kdf, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `, h.ID, h.SchemaVersion, string(h.Scheme), string(h.Cipher), kdf,
		h.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert header: %w", err)
	}

	for i, r := range v.Records {
		if _, err := tx.Exec(`
            INSERT INTO credentials (position, username, secret)
            VALUES (?, ?, ?)
        `, i, r.Username, r.Secret); err != nil {
			return fmt.Errorf("insert credential %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// load reads the header and the credentials in stored order.
func (q *sqlVault) load() (*models.Vault, error) {
	var (
		h         models.VaultHeader
		scheme    string
		cipher    string
		kdf       sql.NullString
		createdAt string
	)

	err := q.db.QueryRow(`
        SELECT id, schema_version, scheme, cipher, kdf, created_at
        FROM vault_header
        LIMIT 1
    `).Scan(&h.ID, &h.SchemaVersion, &scheme, &cipher, &kdf, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: missing header", models.ErrVaultCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("query header: %w", err)
	}

	h.Scheme = models.Scheme(scheme)
	h.Cipher = models.CipherChoice(cipher)

	if kdf.Valid && kdf.String != "" {
		var params models.KDFParams
		if err := json.Unmarshal([]byte(kdf.String), &params); err != nil {
			return nil, fmt.Errorf("%w: parse kdf: %v", models.ErrVaultCorrupt, err)
		}
		h.KDF = &params
	}

	if h.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("%w: parse created_at: %v", models.ErrVaultCorrupt, err)
	}

	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrVaultCorrupt, err)
	}

	rows, err := q.db.Query(`
        SELECT username, secret
        FROM credentials
        ORDER BY position
    `)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var records []models.CredentialRecord
	for rows.Next() {
		var r models.CredentialRecord
		if err := rows.Scan(&r.Username, &r.Secret); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return &models.Vault{Header: &h, Records: records}, nil
}
