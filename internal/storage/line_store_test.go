package storage_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/credvault/internal/events"
	"github.com/TheMichaelB/credvault/internal/models"
	"github.com/TheMichaelB/credvault/internal/storage"
)

func TestLineStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.txt")
	store := storage.NewLineStore(nil)

	records := []models.CredentialRecord{
		{Username: "alice", Secret: "QuB2Wr4KrhyPMq7Nrexz5g=="},
		{Username: "bob", Secret: "mTivqfSko3Q="},
		{Username: "alice", Secret: "SHKFuFVmLw5MV4BC6Ew8JQ=="},
	}

	require.NoError(t, store.WriteRecords(records, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"alice:QuB2Wr4KrhyPMq7Nrexz5g==\nbob:mTivqfSko3Q=\nalice:SHKFuFVmLw5MV4BC6Ew8JQ==\n",
		string(data))

	got, err := store.ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, records, got, "order and duplicates preserved")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLineStoreTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.txt")
	store := storage.NewLineStore(nil)

	require.NoError(t, store.WriteRecords([]models.CredentialRecord{
		{Username: "a", Secret: "x"}, {Username: "b", Secret: "y"},
	}, path))
	require.NoError(t, store.WriteRecords([]models.CredentialRecord{
		{Username: "c", Secret: "z"},
	}, path))

	got, err := store.ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []models.CredentialRecord{{Username: "c", Secret: "z"}}, got)

	require.NoError(t, store.WriteRecords(nil, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLineStoreMalformedLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []models.CredentialRecord
	}{
		{
			name:    "no delimiter and two delimiters",
			content: "alice:QuB2\nnopair\na:b:c\n",
			want:    []models.CredentialRecord{{Username: "alice", Secret: "QuB2"}},
		},
		{
			name:    "empty secret and blank line",
			content: "alice:\n\nbob:mT\n",
			want:    []models.CredentialRecord{{Username: "bob", Secret: "mT"}},
		},
		{
			name:    "empty username accepted",
			content: ":abc\n",
			want:    []models.CredentialRecord{{Username: "", Secret: "abc"}},
		},
		{
			name:    "crlf line endings",
			content: "alice:QuB2\r\nbob:mT\r\n",
			want: []models.CredentialRecord{
				{Username: "alice", Secret: "QuB2"},
				{Username: "bob", Secret: "mT"},
			},
		},
		{
			name:    "no trailing newline",
			content: "alice:QuB2",
			want:    []models.CredentialRecord{{Username: "alice", Secret: "QuB2"}},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "vault.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			got, err := storage.NewLineStore(nil).ReadRecords(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineStoreSkippedLinesLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	path := filepath.Join(t.TempDir(), "vault.txt")
	require.NoError(t, os.WriteFile(path, []byte("ok:x\nsecretstuff\n"), 0600))

	_, err := storage.NewLineStore(logger).ReadRecords(path)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Skipped malformed lines")
	assert.Contains(t, buf.String(), "lines=[2]")
	assert.NotContains(t, buf.String(), "secretstuff")
}

func TestLineStoreRejectsDelimiterInUsername(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.txt")
	store := storage.NewLineStore(nil)

	for _, name := range []string{"a:b", "line\nbreak", "cr\rname"} {
		err := store.WriteRecords([]models.CredentialRecord{{Username: name, Secret: "x"}}, path)
		assert.ErrorIs(t, err, models.ErrInvalidUsername, name)
	}

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written on validation failure")
}

func TestLineStoreMissingFile(t *testing.T) {
	_, err := storage.NewLineStore(nil).Read(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	var ioErr *models.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "file not found", models.Reason(err))
}

func TestLineStoreMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "vault.txt")
	err := storage.NewLineStore(nil).WriteRecords([]models.CredentialRecord{{Username: "a", Secret: "b"}}, path)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeStorage, models.Code(err))
}

func TestLineStoreRejectsSealedVault(t *testing.T) {
	v := &models.Vault{Header: sealedHeader(t)}
	err := storage.NewLineStore(nil).Write(v, filepath.Join(t.TempDir(), "vault.txt"))
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestLineStoreNoLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.txt")
	store := storage.NewLineStore(nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.WriteRecords([]models.CredentialRecord{{Username: "a", Secret: "b"}}, path))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vault.txt", entries[0].Name())
}
