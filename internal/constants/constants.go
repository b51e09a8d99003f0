// Package constants defines security parameters and protocol constants for
// the ticket-granting authentication core.
package constants

import "time"

// Principal identifiers
const (
	// PrincipalSeparator joins a user name and a client host name into a
	// principal identifier, e.g. "alice@kitchen-hub".
	PrincipalSeparator = "@"
)

// Bootstrap entry identifiers
const (
	// TicketGrantingKeyID is the credential-store key under which the KDC's
	// long-lived ticket-granting secret key is stored.
	TicketGrantingKeyID = "TICKET_GRANTING_KEY"

	// ServiceServerSecretKeyID is the credential-store key under which the
	// TGS's long-lived service-server secret key is stored.
	ServiceServerSecretKeyID = "SERVICE_SERVER_SECRET_KEY"

	// ServiceServerPrincipalID is the credential-store key identifying the
	// service server's own principal entry.
	ServiceServerPrincipalID = "SERVICE_SERVER_ID"

	// BootstrapEntryCount is the number of entries the store holds
	// immediately after bootstrap, before any user registers. Used by the
	// legacy (brittle) bootstrap-detection check alongside the
	// authoritative Bootstrapped flag.
	BootstrapEntryCount = 3
)

// Symmetric key parameters
const (
	// SymmetricKeySize is the size in bytes of a generated session or
	// long-lived symmetric key.
	SymmetricKeySize = 16

	// AESBlockSize is the AES block size in bytes, used by the legacy
	// ECB/PKCS5 envelope.
	AESBlockSize = 16
)

// Modern envelope parameters (AES-256-GCM / ChaCha20-Poly1305)
const (
	// ModernKeySize is the size in bytes of a derived Modern-mode
	// symmetric key.
	ModernKeySize = 32

	// ModernNonceSize is the nonce size in bytes for the Modern envelope's
	// AEAD ciphers.
	ModernNonceSize = 12
)

// X25519 parameters (RFC 7748), used for the single-hop public-key wrap.
const (
	// X25519PublicKeySize is the size of an X25519 public key in bytes.
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of an X25519 private key in bytes.
	X25519PrivateKeySize = 32
)

// Password hashing parameters
const (
	// LegacyHashSize is the output size in bytes of the legacy
	// SHA-256-truncated password hash.
	LegacyHashSize = 16

	// StretchedHashDefaultSize is the default output size in bytes of the
	// SHAKE-256-based stretched password hash.
	StretchedHashDefaultSize = 32

	// DomainSeparatorPasswordHash tags the stretched password-derivation KDF call.
	DomainSeparatorPasswordHash = "kdcauth-password-hash-v1"

	// DomainSeparatorKeyWrap tags the ECIES session-key-wrap KDF call.
	DomainSeparatorKeyWrap = "kdcauth-keywrap-v1"
)

// Ticket and authenticator timing
const (
	// ClockSkewTolerance bounds how far an authenticator timestamp may
	// diverge from the verifying server's clock before the authenticator
	// is rejected as expired.
	ClockSkewTolerance = 2 * time.Minute

	// DefaultTicketGrantingTicketLifetime is how long a TGT issued by the
	// KDC remains valid.
	DefaultTicketGrantingTicketLifetime = 8 * time.Hour

	// DefaultClientServerTicketLifetime is how long a CST issued by the
	// TGS remains valid.
	DefaultClientServerTicketLifetime = 2 * time.Hour
)

// Bootstrap password parameters
const (
	// InitialPasswordLength is the length in characters of the random
	// initial administrator password generated at bootstrap.
	InitialPasswordLength = 15

	// InitialPasswordCharset is the alphabet the bootstrap password is
	// drawn from.
	InitialPasswordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// File names and permissions
const (
	// CredentialStoreFileName is the default file name for the persisted
	// credential store document.
	CredentialStoreFileName = "server_credential_store.json"

	// ServiceServerPrivateKeyFileName is the default file name for the
	// service server's persisted X25519 private key.
	ServiceServerPrivateKeyFileName = "service_server_private_key"

	// CredentialStoreFilePerm is the file permission the credential store
	// document is written with.
	CredentialStoreFilePerm = 0o600

	// PrivateKeyFilePerm is the file permission the service-server private
	// key is written with.
	PrivateKeyFilePerm = 0o600
)

// Message size limits
const (
	// MaxMessageSize is the maximum size in bytes of a single wire-encoded
	// protocol message.
	MaxMessageSize = 65536
)

// SealMode selects the envelope algorithm used to seal/open protocol
// messages and ticket contents.
type SealMode uint8

const (
	// SealModeLegacy uses AES-128/ECB/PKCS5, required for wire
	// compatibility with the legacy system this core reimplements.
	SealModeLegacy SealMode = iota

	// SealModeModern uses AES-256-GCM, an authenticated envelope, for
	// deployments that do not require wire compatibility.
	SealModeModern
)

// String returns a human-readable name for the seal mode.
func (m SealMode) String() string {
	switch m {
	case SealModeLegacy:
		return "legacy-ecb"
	case SealModeModern:
		return "modern-gcm"
	default:
		return "unknown"
	}
}

// IsValid reports whether m is a recognized seal mode.
func (m SealMode) IsValid() bool {
	return m == SealModeLegacy || m == SealModeModern
}
