package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/credvault/internal/models"
)

func TestPKCS7(t *testing.T) {
	for _, bs := range []int{8, 16} {
		for n := 0; n <= 2*bs; n++ {
			data := bytes.Repeat([]byte{'a'}, n)
			padded := pkcs7Pad(data, bs)

			assert.Zero(t, len(padded)%bs)
			assert.Greater(t, len(padded), n)

			unpadded, err := pkcs7Unpad(padded, bs)
			require.NoError(t, err)
			assert.Equal(t, data, unpadded)
		}
	}
}

func TestPKCS7UnpadRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not block aligned", data: []byte{1, 2, 3}},
		{name: "zero pad byte", data: append(bytes.Repeat([]byte{'a'}, 7), 0)},
		{name: "pad larger than block", data: append(bytes.Repeat([]byte{'a'}, 7), 9)},
		{name: "inconsistent pad", data: []byte{'a', 'a', 'a', 'a', 'a', 3, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkcs7Unpad(tt.data, 8)
			assert.ErrorIs(t, err, ErrInvalidPadding)
		})
	}
}

func TestECBLeaksRepeatedBlocks(t *testing.T) {
	key, err := DeriveKey("secret123", models.CipherAES)
	require.NoError(t, err)
	block, err := newBlock(models.CipherAES, key)
	require.NoError(t, err)

	plain := bytes.Repeat([]byte("0123456789abcdef"), 2)
	out := ecbEncrypt(block, plain)

	assert.Equal(t, out[:16], out[16:])
	assert.Equal(t, plain, ecbDecrypt(block, out))
}

func TestDecryptTextBadPadding(t *testing.T) {
	key, err := DeriveKey("secret123", models.CipherAES)
	require.NoError(t, err)
	block, err := newBlock(models.CipherAES, key)
	require.NoError(t, err)

	// A zero block decrypts to a trailing 0x00, which is never valid padding.
	raw := ecbEncrypt(block, make([]byte, 16))
	_, err = DecryptText(base64.StdEncoding.EncodeToString(raw), key, models.CipherAES)

	var cipherErr *models.CipherError
	require.ErrorAs(t, err, &cipherErr)
	assert.Equal(t, "invalid padding", cipherErr.Reason)
	assert.ErrorIs(t, err, ErrInvalidPadding)
}
