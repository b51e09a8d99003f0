// aead.go implements the Modern envelope mode: authenticated encryption
// with AES-256-GCM or ChaCha20-Poly1305, for deployments that do not need
// wire compatibility with the legacy AES-128/ECB/PKCS5 envelope.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// ModernSuite selects the AEAD algorithm for SealModeModern.
type ModernSuite uint8

const (
	// ModernSuiteAES256GCM uses AES-256-GCM.
	ModernSuiteAES256GCM ModernSuite = iota
	// ModernSuiteChaCha20Poly1305 uses ChaCha20-Poly1305.
	ModernSuiteChaCha20Poly1305
)

// AEAD seals and opens messages under the Modern envelope mode. A fresh
// random nonce is generated per Seal call and prepended to the ciphertext.
type AEAD struct {
	cipher cipher.AEAD
	suite  ModernSuite
}

// NewAEAD constructs an AEAD for suite using a ModernKeySize-byte key.
func NewAEAD(suite ModernSuite, key []byte) (*AEAD, error) {
	if len(key) != constants.ModernKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	var aeadCipher cipher.AEAD

	switch suite {
	case ModernSuiteAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}
		aeadCipher, err = cipher.NewGCM(block)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	case ModernSuiteChaCha20Poly1305:
		var err error
		aeadCipher, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, qerrors.NewCryptoError("NewAEAD", err)
		}

	default:
		return nil, qerrors.NewCryptoError("NewAEAD", qerrors.ErrInvalidMessage)
	}

	return &AEAD{cipher: aeadCipher, suite: suite}, nil
}

// Seal encrypts and authenticates plaintext, returning nonce || ciphertext || tag.
func (a *AEAD) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce, err := SecureRandomBytes(constants.ModernNonceSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, constants.ModernNonceSize+len(plaintext)+a.cipher.Overhead())
	out = append(out, nonce...)
	out = a.cipher.Seal(out, nonce, plaintext, additionalData)

	return out, nil
}

// Open decrypts and verifies ciphertext produced by Seal.
func (a *AEAD) Open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < constants.ModernNonceSize+a.cipher.Overhead() {
		return nil, qerrors.ErrInvalidCiphertext
	}

	nonce := ciphertext[:constants.ModernNonceSize]
	sealed := ciphertext[constants.ModernNonceSize:]

	plaintext, err := a.cipher.Open(nil, nonce, sealed, additionalData)
	if err != nil {
		return nil, qerrors.ErrAuthenticationFailed
	}

	return plaintext, nil
}

// Suite returns the configured AEAD algorithm.
func (a *AEAD) Suite() ModernSuite { return a.suite }

// Overhead returns the number of bytes Seal adds beyond the plaintext
// (nonce plus authentication tag).
func (a *AEAD) Overhead() int {
	return constants.ModernNonceSize + a.cipher.Overhead()
}
