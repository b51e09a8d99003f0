package crypto_test

import (
	"bytes"
	"testing"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
	"github.com/pzverkov/kdcauth/pkg/crypto"
)

func TestSecureRandom(t *testing.T) {
	buf := make([]byte, 32)
	if err := crypto.SecureRandom(buf); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}

	allZeros := true
	for _, b := range buf {
		if b != 0 {
			allZeros = false
			break
		}
	}
	if allZeros {
		t.Error("SecureRandom returned all zeros")
	}
}

func TestSecureRandomBytes(t *testing.T) {
	for _, size := range []int{16, 32, 64, 128} {
		buf, err := crypto.SecureRandomBytes(size)
		if err != nil {
			t.Fatalf("SecureRandomBytes(%d) failed: %v", size, err)
		}
		if len(buf) != size {
			t.Errorf("SecureRandomBytes(%d) returned %d bytes", size, len(buf))
		}
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte("hello world")
	b := []byte("hello world")
	c := []byte("hello worle")
	d := []byte("hello")

	if !crypto.ConstantTimeCompare(a, b) {
		t.Error("equal slices should compare equal")
	}
	if crypto.ConstantTimeCompare(a, c) {
		t.Error("different slices should not compare equal")
	}
	if crypto.ConstantTimeCompare(a, d) {
		t.Error("different-length slices should not compare equal")
	}
}

func TestZeroize(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	crypto.Zeroize(buf)

	for i, b := range buf {
		if b != 0 {
			t.Errorf("Zeroize failed at index %d: got %d, want 0", i, b)
		}
	}
}

func TestSymmetricRoundTrip(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)
	plaintext := []byte("a short authenticator payload")

	ciphertext, err := crypto.EncryptSymmetric(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptSymmetric failed: %v", err)
	}
	if len(ciphertext)%constants.AESBlockSize != 0 {
		t.Errorf("ciphertext length %d not a multiple of block size", len(ciphertext))
	}

	decrypted, err := crypto.DecryptSymmetric(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSymmetric failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestSymmetricEmptyPlaintext(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)

	ciphertext, err := crypto.EncryptSymmetric(key, nil)
	if err != nil {
		t.Fatalf("EncryptSymmetric failed: %v", err)
	}

	decrypted, err := crypto.DecryptSymmetric(key, ciphertext)
	if err != nil {
		t.Fatalf("DecryptSymmetric failed: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("decrypted = %q, want empty", decrypted)
	}
}

func TestSymmetricWrongKey(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)
	wrongKey := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)

	ciphertext, err := crypto.EncryptSymmetric(key, []byte("authenticator"))
	if err != nil {
		t.Fatalf("EncryptSymmetric failed: %v", err)
	}

	// ECB has no MAC: decryption under the wrong key "succeeds" but yields
	// garbage, or fails padding validation. Either is acceptable; a crash
	// or silent success with the right plaintext is not.
	decrypted, err := crypto.DecryptSymmetric(wrongKey, ciphertext)
	if err == nil && bytes.Equal(decrypted, []byte("authenticator")) {
		t.Error("decryption under the wrong key should not recover the original plaintext")
	}
}

func TestSymmetricInvalidKeySize(t *testing.T) {
	_, err := crypto.EncryptSymmetric(make([]byte, 10), []byte("x"))
	if !qerrors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestSymmetricInvalidCiphertextLength(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)
	_, err := crypto.DecryptSymmetric(key, []byte("not a block multiple"))
	if !qerrors.Is(err, qerrors.ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestHashPassword(t *testing.T) {
	h1 := crypto.HashPassword("correct horse battery staple")
	h2 := crypto.HashPassword("correct horse battery staple")
	h3 := crypto.HashPassword("different password")

	if len(h1) != constants.LegacyHashSize {
		t.Errorf("hash length = %d, want %d", len(h1), constants.LegacyHashSize)
	}
	if !bytes.Equal(h1, h2) {
		t.Error("HashPassword should be deterministic")
	}
	if bytes.Equal(h1, h3) {
		t.Error("different passwords should hash differently")
	}
}

func TestStretchedHashPassword(t *testing.T) {
	h1, err := crypto.StretchedHashPassword("a password", constants.StretchedHashDefaultSize)
	if err != nil {
		t.Fatalf("StretchedHashPassword failed: %v", err)
	}
	h2, err := crypto.StretchedHashPassword("a password", constants.StretchedHashDefaultSize)
	if err != nil {
		t.Fatalf("StretchedHashPassword failed: %v", err)
	}
	if !bytes.Equal(h1, h2) {
		t.Error("StretchedHashPassword should be deterministic")
	}

	legacy := crypto.HashPassword("a password")
	if bytes.Equal(h1[:constants.LegacyHashSize], legacy) {
		t.Error("stretched hash should not collide with the legacy hash for the same password")
	}
}

func TestAEADAES256GCM(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.ModernKeySize)

	aead, err := crypto.NewAEAD(crypto.ModernSuiteAES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	plaintext := []byte("a session key wrapped under the Modern envelope")
	aad := []byte("ticket-id")

	ciphertext, err := aead.Seal(plaintext, aad)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	decrypted, err := aead.Open(ciphertext, aad)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Error("decrypted plaintext does not match original")
	}
}

func TestAEADChaCha20Poly1305(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.ModernKeySize)

	aead, err := crypto.NewAEAD(crypto.ModernSuiteChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	plaintext := []byte("another payload")
	ciphertext, err := aead.Seal(plaintext, nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	decrypted, err := aead.Open(ciphertext, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Error("decrypted plaintext does not match original")
	}
}

func TestAEADTamperedCiphertext(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.ModernKeySize)
	aead, err := crypto.NewAEAD(crypto.ModernSuiteAES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	ciphertext, err := aead.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := aead.Open(ciphertext, nil); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestAEADInvalidKeySize(t *testing.T) {
	_, err := crypto.NewAEAD(crypto.ModernSuiteAES256GCM, make([]byte, 16))
	if !qerrors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestAEADSealProducesUniqueOutputs(t *testing.T) {
	key := crypto.MustSecureRandomBytes(constants.ModernKeySize)
	aead, err := crypto.NewAEAD(crypto.ModernSuiteAES256GCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	a, _ := aead.Seal([]byte("same plaintext"), nil)
	b, _ := aead.Seal([]byte("same plaintext"), nil)
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext should not be identical (nonce must vary)")
	}
}

func TestKeyPairGenerationAndWrap(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if len(kp.PublicKeyBytes()) != constants.X25519PublicKeySize {
		t.Errorf("public key size = %d, want %d", len(kp.PublicKeyBytes()), constants.X25519PublicKeySize)
	}

	sessionKey := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)

	wrapped, err := crypto.WrapSessionKey(kp.PublicKey, sessionKey)
	if err != nil {
		t.Fatalf("WrapSessionKey failed: %v", err)
	}

	unwrapped, err := crypto.UnwrapSessionKey(kp.PrivateKey, wrapped)
	if err != nil {
		t.Fatalf("UnwrapSessionKey failed: %v", err)
	}
	if !bytes.Equal(unwrapped, sessionKey) {
		t.Error("unwrapped session key does not match the original")
	}
}

func TestUnwrapSessionKeyWrongRecipient(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	other, _ := crypto.GenerateKeyPair()
	sessionKey := crypto.MustSecureRandomBytes(constants.SymmetricKeySize)

	wrapped, err := crypto.WrapSessionKey(kp.PublicKey, sessionKey)
	if err != nil {
		t.Fatalf("WrapSessionKey failed: %v", err)
	}

	if _, err := crypto.UnwrapSessionKey(other.PrivateKey, wrapped); err == nil {
		t.Error("expected error unwrapping with the wrong private key")
	}
}

func TestKeyPairFromBytes(t *testing.T) {
	original, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	kp, err := crypto.NewKeyPairFromBytes(original.PrivateKeyBytes())
	if err != nil {
		t.Fatalf("NewKeyPairFromBytes failed: %v", err)
	}
	if !bytes.Equal(kp.PublicKeyBytes(), original.PublicKeyBytes()) {
		t.Error("key pair from bytes should have the same public key")
	}

	if _, err := crypto.NewKeyPairFromBytes([]byte("short")); !qerrors.Is(err, qerrors.ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestKeyPairZeroize(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	kp.Zeroize()
	if kp.PublicKey != nil || kp.PrivateKey != nil {
		t.Error("Zeroize should clear both key references")
	}
}

func TestDeriveKeyDeterministicAndDomainSeparated(t *testing.T) {
	input := []byte("shared secret material")

	k1, err := crypto.DeriveKey("domain-a", input, 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := crypto.DeriveKey("domain-a", input, 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey should be deterministic for identical inputs")
	}

	k3, err := crypto.DeriveKey("domain-b", input, 32)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("different domains should produce different output")
	}
}

func TestDeriveKeyMultiple(t *testing.T) {
	inputs := [][]byte{[]byte("a"), []byte("b"), []byte("c")}

	key, err := crypto.DeriveKeyMultiple("domain", inputs, 32)
	if err != nil {
		t.Fatalf("DeriveKeyMultiple failed: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}
}

func TestMustSecureRandom(t *testing.T) {
	buf := make([]byte, 32)
	crypto.MustSecureRandom(buf)

	allZeros := true
	for _, b := range buf {
		if b != 0 {
			allZeros = false
			break
		}
	}
	if allZeros {
		t.Error("MustSecureRandom returned all zeros")
	}
}
