// symmetric.go implements the legacy AES-128/ECB/PKCS5 envelope required
// for wire compatibility with the system this core reimplements.
//
// ECB leaks block-level plaintext equality and PKCS5 padding is malleable;
// neither defect is fixable without changing the wire format, so it is kept
// only behind SealModeLegacy. SealModeModern (aead.go) is the alternative
// for deployments free to pick their own envelope.
package crypto

import (
	"crypto/aes"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// EncryptSymmetric encrypts plaintext under key using AES-128/ECB with
// PKCS5 padding. key must be constants.SymmetricKeySize bytes.
func EncryptSymmetric(key, plaintext []byte) ([]byte, error) {
	if len(key) != constants.SymmetricKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError("EncryptSymmetric", err)
	}

	padded := pkcs5Pad(plaintext, constants.AESBlockSize)
	ciphertext := make([]byte, len(padded))
	for offset := 0; offset < len(padded); offset += constants.AESBlockSize {
		block.Encrypt(ciphertext[offset:offset+constants.AESBlockSize], padded[offset:offset+constants.AESBlockSize])
	}

	return ciphertext, nil
}

// DecryptSymmetric decrypts ciphertext produced by EncryptSymmetric.
// A malformed length, bad padding, or any other structural defect is all
// reported as the same ErrInvalidCiphertext so a caller cannot distinguish
// the failure mode.
func DecryptSymmetric(key, ciphertext []byte) ([]byte, error) {
	if len(key) != constants.SymmetricKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}
	if len(ciphertext) == 0 || len(ciphertext)%constants.AESBlockSize != 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, qerrors.NewCryptoError("DecryptSymmetric", err)
	}

	padded := make([]byte, len(ciphertext))
	for offset := 0; offset < len(ciphertext); offset += constants.AESBlockSize {
		block.Decrypt(padded[offset:offset+constants.AESBlockSize], ciphertext[offset:offset+constants.AESBlockSize])
	}

	plaintext, err := pkcs5Unpad(padded, constants.AESBlockSize)
	if err != nil {
		return nil, qerrors.ErrInvalidCiphertext
	}

	return plaintext, nil
}

func pkcs5Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, qerrors.ErrInvalidCiphertext
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, qerrors.ErrInvalidCiphertext
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, qerrors.ErrInvalidCiphertext
		}
	}

	return data[:len(data)-padLen], nil
}
