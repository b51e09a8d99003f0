// Package errors defines the tagged error kinds the authentication core
// produces. Handler functions and the controller propagate these instead of
// relying on exceptions for control flow; the RPC boundary (out of scope
// here) maps them onto whatever transport-level status the caller expects.
//
// Crypto-layer errors never distinguish *why* a decrypt failed (padding vs.
// MAC vs. structural vs. type mismatch) beyond ErrRejected/ErrAuthFailed —
// that distinction would hand an attacker an oracle.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for low-level cryptographic operations.
var (
	// ErrInvalidKeySize indicates a key has an incorrect size for the operation.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidCiphertext indicates ciphertext is malformed (wrong length,
	// bad padding) in a way that is surfaced before the higher-level
	// Rejected mapping kicks in.
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")

	// ErrAuthenticationFailed indicates AEAD authentication/decryption failed.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrInvalidPublicKey indicates a public key is malformed.
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")

	// ErrInvalidPrivateKey indicates a private key is malformed.
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
)

// Sentinel errors for protocol message encode/decode.
var (
	// ErrInvalidMessage indicates a protocol message is malformed.
	ErrInvalidMessage = errors.New("protocol: invalid message")

	// ErrMessageTooLarge indicates a message exceeds the configured maximum size.
	ErrMessageTooLarge = errors.New("protocol: message too large")
)

// Sentinel errors for ticket/authenticator validation and authorization —
// the tagged error kinds named in the design (NotAvailable, Rejected,
// SessionExpired, PermissionDenied, CryptoFault).
var (
	// ErrNotAvailable indicates a principal is absent from the credential store.
	ErrNotAvailable = errors.New("auth: principal not available")

	// ErrRejected indicates an authenticator/ticket mismatch, unknown user
	// part, failed crypto, or an administrative precondition violation.
	ErrRejected = errors.New("auth: rejected")

	// ErrSessionExpired indicates an authenticator timestamp fell outside
	// the ticket's validity period or outside the server clock-skew window.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrPermissionDenied indicates an authorization check failed. Surfaced
	// to remote callers as ErrRejected; kept distinct here so it can be
	// logged distinctly.
	ErrPermissionDenied = errors.New("auth: permission denied")

	// ErrCryptoFault indicates an impossible algorithm/provider state
	// (e.g. CSPRNG failure). Always fatal; never leaks its cause to a
	// remote caller.
	ErrCryptoFault = errors.New("auth: crypto fault")
)

// Sentinel errors for the credential store.
var (
	// ErrEntryExists indicates add_credentials was called for an id that
	// already has an entry.
	ErrEntryExists = errors.New("store: entry already exists")

	// ErrEntryAbsent indicates set_credentials/remove_entry/set_admin was
	// called for an id with no entry.
	ErrEntryAbsent = errors.New("store: entry does not exist")

	// ErrStoreClosed indicates an operation was attempted after shutdown.
	ErrStoreClosed = errors.New("store: closed")
)

// Sentinel errors for the worker pool.
var (
	// ErrPoolClosed indicates the pool has been closed.
	ErrPoolClosed = errors.New("workerpool: closed")

	// ErrPoolTimeout indicates Submit could not enqueue before its context
	// deadline or the pool's configured submit timeout elapsed.
	ErrPoolTimeout = errors.New("workerpool: submit timed out")
)

// Sentinel errors for controller state transitions.
var (
	// ErrInvalidState indicates an operation was attempted while the
	// controller was in a state that does not permit it (e.g. a remote
	// call before Activate).
	ErrInvalidState = errors.New("controller: invalid state")

	// ErrBootstrapUnavailable indicates register was called in bootstrap
	// mode after the initial password was already cleared, or while the
	// store holds more than the three bootstrap entries.
	ErrBootstrapUnavailable = errors.New("controller: bootstrap no longer available")
)

// CryptoError wraps a cryptographic error with the failing operation name.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *CryptoError) Unwrap() error { return e.Err }

// NewCryptoError wraps err as a CryptoError tagged with op.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// RejectedError carries a human-readable reason alongside ErrRejected so
// callers can both log detail and match on the sentinel via errors.Is.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return fmt.Sprintf("auth: rejected: %s", e.Reason) }
func (e *RejectedError) Unwrap() error { return ErrRejected }

// Rejected constructs a RejectedError with the given human-readable reason.
func Rejected(reason string) error {
	return &RejectedError{Reason: reason}
}

// NotAvailableError identifies the absent principal.
type NotAvailableError struct {
	ID string
}

func (e *NotAvailableError) Error() string { return fmt.Sprintf("auth: not available: %s", e.ID) }
func (e *NotAvailableError) Unwrap() error { return ErrNotAvailable }

// NotAvailable constructs a NotAvailableError for the given principal id.
func NotAvailable(id string) error {
	return &NotAvailableError{ID: id}
}

// PermissionDeniedError carries a human-readable reason alongside
// ErrPermissionDenied. The controller returns this directly rather than
// remapping it to ErrRejected; an actual RPC boundary (out of scope here)
// would perform that remapping before the error reaches a remote caller.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("auth: permission denied: %s", e.Reason)
}
func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// PermissionDenied constructs a PermissionDeniedError with the given reason.
func PermissionDenied(reason string) error {
	return &PermissionDeniedError{Reason: reason}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }
