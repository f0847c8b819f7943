package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"

	"github.com/TheMichaelB/credvault/internal/models"
)

// newBlock instantiates the block primitive for c.
func newBlock(c models.CipherChoice, key []byte) (cipher.Block, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(key) != c.KeySize() {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, c.KeySize(), len(key))
	}

	switch c {
	case models.CipherDES:
		return des.NewCipher(key)
	default:
		return aes.NewCipher(key)
	}
}

// ecbEncrypt encrypts every block independently. len(src) must be a
// multiple of the block size.
func ecbEncrypt(block cipher.Block, src []byte) []byte {
	bs := block.BlockSize()
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += bs {
		block.Encrypt(dst[i:i+bs], src[i:i+bs])
	}
	return dst
}

func ecbDecrypt(block cipher.Block, src []byte) []byte {
	bs := block.BlockSize()
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += bs {
		block.Decrypt(dst[i:i+bs], src[i:i+bs])
	}
	return dst
}

// pkcs7Pad always appends between 1 and blockSize bytes.
func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}

	return data[:len(data)-n], nil
}
