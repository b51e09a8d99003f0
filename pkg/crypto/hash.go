// hash.go implements password-to-key derivation.
//
// HashPassword is the legacy derivation the wire format requires: a plain
// SHA-256 digest truncated to 16 bytes. It is intentionally weak — it
// exists for byte-exact compatibility with the system being reimplemented,
// not as a security recommendation. StretchedHashPassword is the named
// upgrade path for deployments that do not need that compatibility.
package crypto

import (
	"crypto/sha256"

	"github.com/pzverkov/kdcauth/internal/constants"
)

// HashPassword derives a symmetric key from a password using the legacy
// SHA-256-truncated-to-16-bytes scheme.
func HashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	key := make([]byte, constants.LegacyHashSize)
	copy(key, sum[:constants.LegacyHashSize])
	return key
}

// StretchedHashPassword derives a symmetric key from a password using
// SHAKE-256 with domain separation. outputLen bytes are produced; pass
// constants.StretchedHashDefaultSize unless a specific seal mode requires
// a different key size.
func StretchedHashPassword(password string, outputLen int) ([]byte, error) {
	return DeriveKey(constants.DomainSeparatorPasswordHash, []byte(password), outputLen)
}
