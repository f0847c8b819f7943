package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/credvault/internal/models"
)

func setupVaultMock(t *testing.T) (*sqlVault, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlVault{db: db}, mock
}

func testHeader() *models.VaultHeader {
	return &models.VaultHeader{
		ID:            "vault-1",
		SchemaVersion: models.CurrentSchemaVersion,
		Scheme:        models.SchemeLegacy,
		Cipher:        models.CipherDES,
		CreatedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLVaultReplace(t *testing.T) {
	q, mock := setupVaultMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vault_header").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS credentials").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM credentials")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM vault_header")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO vault_header").
		WithArgs("vault-1", 1, "legacy", "DES", nil, "2024-03-01T12:00:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO credentials").
		WithArgs(0, "alice", "mTivqfSko3Q=").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO credentials").
		WithArgs(1, "bob", "mTivqfSko3Q=").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := q.replace(&models.Vault{
		Header: testHeader(),
		Records: []models.CredentialRecord{
			{Username: "alice", Secret: "mTivqfSko3Q="},
			{Username: "bob", Secret: "mTivqfSko3Q="},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLVaultReplaceRollsBack(t *testing.T) {
	q, mock := setupVaultMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vault_header").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS credentials").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM credentials")).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := q.replace(&models.Vault{Header: testHeader()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLVaultLoad(t *testing.T) {
	q, mock := setupVaultMock(t)

	mock.ExpectQuery("SELECT id, schema_version, scheme, cipher, kdf, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "schema_version", "scheme", "cipher", "kdf", "created_at"}).
			AddRow("vault-1", 1, "sealed", "AES", `{"algorithm":"pbkdf2","salt":"c2FsdA==","iterations":100000}`, "2024-03-01T12:00:00Z"))
	mock.ExpectQuery("SELECT username, secret").
		WillReturnRows(sqlmock.NewRows([]string{"username", "secret"}).
			AddRow("alice", "AAA").
			AddRow("bob", "BBB"))

	v, err := q.load()
	require.NoError(t, err)
	assert.Equal(t, models.SchemeSealed, v.Header.Scheme)
	assert.Equal(t, models.CipherAES, v.Header.Cipher)
	require.NotNil(t, v.Header.KDF)
	assert.Equal(t, 100000, v.Header.KDF.Iterations)
	assert.Equal(t, []string{"alice", "bob"}, v.Usernames())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLVaultLoadMissingHeader(t *testing.T) {
	q, mock := setupVaultMock(t)

	mock.ExpectQuery("SELECT id, schema_version").
		WillReturnRows(sqlmock.NewRows([]string{"id", "schema_version", "scheme", "cipher", "kdf", "created_at"}))

	_, err := q.load()
	assert.ErrorIs(t, err, models.ErrVaultCorrupt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLVaultLoadInvalidHeader(t *testing.T) {
	q, mock := setupVaultMock(t)

	mock.ExpectQuery("SELECT id, schema_version").
		WillReturnRows(sqlmock.NewRows([]string{"id", "schema_version", "scheme", "cipher", "kdf", "created_at"}).
			AddRow("vault-1", 1, "legacy", "RC4", nil, "2024-03-01T12:00:00Z"))

	_, err := q.load()
	assert.ErrorIs(t, err, models.ErrVaultCorrupt)
}

func TestSQLiteStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := NewSQLiteStore(nil).Read(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "read must not create the database")
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	store := NewSQLiteStore(nil)

	require.NoError(t, store.Write(&models.Vault{
		Header:  testHeader(),
		Records: []models.CredentialRecord{{Username: "a", Secret: "1"}, {Username: "b", Secret: "2"}},
	}, path))
	require.NoError(t, store.Write(&models.Vault{
		Header:  testHeader(),
		Records: []models.CredentialRecord{{Username: "c", Secret: "3"}},
	}, path))

	v, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []models.CredentialRecord{{Username: "c", Secret: "3"}}, v.Records)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp or journal files left behind")
}

func TestWriteFileAtomicCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.txt")
	require.NoError(t, os.WriteFile(path, []byte("old:content\n"), 0600))

	err := writeFileAtomic(path, vaultFileMode, func(io.Writer) error {
		return errors.New("boom")
	})
	require.Error(t, err)

	var ioErr *models.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old:content\n", string(data), "original untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
