// publickey.go implements the single public-key hop named in the
// credential-distribution flow: an X25519 key pair for the service server,
// and an ECIES-style wrap/unwrap of a session key to that public key
// (ephemeral X25519 ECDH, SHAKE-256 derive, AEAD seal). This stands in for
// "RSA or equivalent" — no second hop or hybrid combination is added.
package crypto

import (
	"crypto/ecdh"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// KeyPair is an X25519 key pair.
type KeyPair struct {
	PublicKey  *ecdh.PublicKey
	PrivateKey *ecdh.PrivateKey
}

// GenerateKeyPair generates a new X25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	curve := ecdh.X25519()

	privateKey, err := curve.GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("GenerateKeyPair", err)
	}

	return &KeyPair{PublicKey: privateKey.PublicKey(), PrivateKey: privateKey}, nil
}

// NewKeyPairFromBytes reconstructs a key pair from an encoded private key.
func NewKeyPairFromBytes(privateKeyBytes []byte) (*KeyPair, error) {
	if len(privateKeyBytes) != constants.X25519PrivateKeySize {
		return nil, qerrors.ErrInvalidKeySize
	}

	curve := ecdh.X25519()
	privateKey, err := curve.NewPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, qerrors.NewCryptoError("NewKeyPairFromBytes", err)
	}

	return &KeyPair{PublicKey: privateKey.PublicKey(), PrivateKey: privateKey}, nil
}

// PublicKeyBytes returns the encoded public key.
func (kp *KeyPair) PublicKeyBytes() []byte { return kp.PublicKey.Bytes() }

// PrivateKeyBytes returns the encoded private key. Callers should Zeroize
// the result once it is no longer needed.
func (kp *KeyPair) PrivateKeyBytes() []byte { return kp.PrivateKey.Bytes() }

// Zeroize drops references to the key material.
func (kp *KeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}

// ParsePublicKey parses an X25519 public key from its encoded form.
func ParsePublicKey(data []byte) (*ecdh.PublicKey, error) {
	if len(data) != constants.X25519PublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	curve := ecdh.X25519()
	publicKey, err := curve.NewPublicKey(data)
	if err != nil {
		return nil, qerrors.NewCryptoError("ParsePublicKey", err)
	}

	return publicKey, nil
}

// WrapSessionKey wraps sessionKey to recipientPublic: it generates an
// ephemeral X25519 key pair, derives a wrap key from the ECDH shared
// secret, and seals sessionKey under AES-256-GCM. The returned bytes are
// ephemeralPublicKey || sealed, sufficient for UnwrapSessionKey to recover
// sessionKey given only the recipient's private key.
func WrapSessionKey(recipientPublic *ecdh.PublicKey, sessionKey []byte) ([]byte, error) {
	ephemeral, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	shared, err := ephemeral.PrivateKey.ECDH(recipientPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("WrapSessionKey", err)
	}

	wrapKey, err := DeriveKey(constants.DomainSeparatorKeyWrap, shared, constants.ModernKeySize)
	if err != nil {
		return nil, err
	}

	aead, err := NewAEAD(ModernSuiteAES256GCM, wrapKey)
	if err != nil {
		return nil, err
	}

	sealed, err := aead.Seal(sessionKey, ephemeral.PublicKeyBytes())
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(ephemeral.PublicKeyBytes())+len(sealed))
	out = append(out, ephemeral.PublicKeyBytes()...)
	out = append(out, sealed...)

	return out, nil
}

// UnwrapSessionKey reverses WrapSessionKey using the recipient's private key.
func UnwrapSessionKey(recipientPrivate *ecdh.PrivateKey, wrapped []byte) ([]byte, error) {
	if len(wrapped) < constants.X25519PublicKeySize {
		return nil, qerrors.ErrInvalidCiphertext
	}

	ephemeralPublicBytes := wrapped[:constants.X25519PublicKeySize]
	sealed := wrapped[constants.X25519PublicKeySize:]

	ephemeralPublic, err := ParsePublicKey(ephemeralPublicBytes)
	if err != nil {
		return nil, err
	}

	shared, err := recipientPrivate.ECDH(ephemeralPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("UnwrapSessionKey", err)
	}

	wrapKey, err := DeriveKey(constants.DomainSeparatorKeyWrap, shared, constants.ModernKeySize)
	if err != nil {
		return nil, err
	}

	aead, err := NewAEAD(ModernSuiteAES256GCM, wrapKey)
	if err != nil {
		return nil, err
	}

	return aead.Open(sealed, ephemeralPublicBytes)
}
