package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/credvault/internal/models"
)

func TestParseCipher(t *testing.T) {
	tests := []struct {
		input   string
		want    models.CipherChoice
		keySize int
		wantErr bool
	}{
		{input: "AES", want: models.CipherAES, keySize: 16},
		{input: "aes", want: models.CipherAES, keySize: 16},
		{input: " des ", want: models.CipherDES, keySize: 8},
		{input: "RC4", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := models.ParseCipher(tt.input)
			if tt.wantErr {
				var unsupported *models.UnsupportedCipherError
				assert.ErrorAs(t, err, &unsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.keySize, got.KeySize())
		})
	}
}

func TestCipherChoice_Sizes(t *testing.T) {
	assert.Equal(t, 16, models.CipherAES.BlockSize())
	assert.Equal(t, 8, models.CipherDES.BlockSize())
	assert.Zero(t, models.CipherChoice("RC4").KeySize())
	assert.Zero(t, models.CipherChoice("RC4").BlockSize())
}

func TestParseScheme(t *testing.T) {
	s, err := models.ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, models.SchemeLegacy, s)

	s, err = models.ParseScheme("Sealed")
	require.NoError(t, err)
	assert.Equal(t, models.SchemeSealed, s)

	_, err = models.ParseScheme("rot13")
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, models.ValidateUsername("alice"))
	assert.NoError(t, models.ValidateUsername(""))
	assert.NoError(t, models.ValidateUsername("alice@example.com"))
	assert.ErrorIs(t, models.ValidateUsername("a:b"), models.ErrInvalidUsername)
	assert.ErrorIs(t, models.ValidateUsername("a\nb"), models.ErrInvalidUsername)
	assert.ErrorIs(t, models.ValidateUsername("a\r"), models.ErrInvalidUsername)
}

func TestVaultHeader_Validate(t *testing.T) {
	base := func() *models.VaultHeader {
		return &models.VaultHeader{
			ID:            "5b1f3c9e-0000-4000-8000-000000000001",
			SchemaVersion: models.CurrentSchemaVersion,
			Scheme:        models.SchemeSealed,
			Cipher:        models.CipherAES,
			KDF: &models.KDFParams{
				Algorithm:  models.KDFPBKDF2,
				Salt:       "c2FsdHNhbHRzYWx0c2FsdA==",
				Iterations: 1000,
			},
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	tests := []struct {
		name    string
		modify  func(*models.VaultHeader)
		wantErr string
	}{
		{name: "valid", modify: func(h *models.VaultHeader) {}},
		{name: "missing id", modify: func(h *models.VaultHeader) { h.ID = "  " }, wantErr: "vault ID is required"},
		{name: "future schema", modify: func(h *models.VaultHeader) { h.SchemaVersion = 99 }, wantErr: "unsupported schema version"},
		{name: "bad cipher", modify: func(h *models.VaultHeader) { h.Cipher = "RC4" }, wantErr: "unsupported cipher"},
		{name: "sealed without kdf", modify: func(h *models.VaultHeader) { h.KDF = nil }, wantErr: "kdf parameters"},
		{name: "legacy without kdf", modify: func(h *models.VaultHeader) {
			h.Scheme = models.SchemeLegacy
			h.KDF = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := base()
			tt.modify(h)
			err := h.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVault_SchemeAndUsernames(t *testing.T) {
	v := &models.Vault{Records: []models.CredentialRecord{
		{Username: "alice", Secret: "x"},
		{Username: "bob", Secret: "y"},
	}}
	assert.Equal(t, models.SchemeLegacy, v.Scheme())
	assert.Equal(t, []string{"alice", "bob"}, v.Usernames())

	v.Header = &models.VaultHeader{Scheme: models.SchemeSealed}
	assert.Equal(t, models.SchemeSealed, v.Scheme())
}

func TestCredential_PasswordNotSerialized(t *testing.T) {
	data, err := json.Marshal(models.Credential{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}
