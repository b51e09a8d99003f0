// Package protocol defines the tagged record types exchanged by the
// ticket-granting authentication core: Ticket, Authenticator, the two
// wrapper records that carry them over the wire, AuthenticatedValue, and
// LoginCredentialsChange.
//
// All messages are length-prefixed with a 4-byte big-endian length field,
// in the teacher's wire-format convention. Sealed fields (Ticket,
// Authenticator) are opaque ciphertext byte strings produced by
// pkg/crypto; the codec never looks inside them.
package protocol

import (
	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
)

// MessageType identifies the tagged record a byte string decodes to. It is
// also the type tag decrypt_symmetric checks the sealed plaintext against.
type MessageType uint8

const (
	// MessageTypeTicket tags a canonical Ticket record.
	MessageTypeTicket MessageType = 0x01
	// MessageTypeAuthenticator tags a canonical Authenticator record.
	MessageTypeAuthenticator MessageType = 0x02
	// MessageTypeTicketAuthenticatorWrapper tags a TicketAuthenticatorWrapper.
	MessageTypeTicketAuthenticatorWrapper MessageType = 0x03
	// MessageTypeTicketSessionKeyWrapper tags a TicketSessionKeyWrapper.
	MessageTypeTicketSessionKeyWrapper MessageType = 0x04
	// MessageTypeAuthenticatedValue tags an AuthenticatedValue.
	MessageTypeAuthenticatedValue MessageType = 0x05
	// MessageTypeLoginCredentialsChange tags a LoginCredentialsChange.
	MessageTypeLoginCredentialsChange MessageType = 0x06
	// MessageTypeSessionKeyPlaintext tags a bare session key, the type a
	// wrapped session key decrypts to before a second wrap is applied.
	MessageTypeSessionKeyPlaintext MessageType = 0x07
)

// String returns a human-readable name for the message type.
func (mt MessageType) String() string {
	switch mt {
	case MessageTypeTicket:
		return "Ticket"
	case MessageTypeAuthenticator:
		return "Authenticator"
	case MessageTypeTicketAuthenticatorWrapper:
		return "TicketAuthenticatorWrapper"
	case MessageTypeTicketSessionKeyWrapper:
		return "TicketSessionKeyWrapper"
	case MessageTypeAuthenticatedValue:
		return "AuthenticatedValue"
	case MessageTypeLoginCredentialsChange:
		return "LoginCredentialsChange"
	case MessageTypeSessionKeyPlaintext:
		return "SessionKeyPlaintext"
	default:
		return "Unknown"
	}
}

// Interval is a half-open validity window, begin and end in nanoseconds
// since the Unix epoch.
type Interval struct {
	Begin int64
	End   int64
}

// Contains reports whether ts falls within the interval, inclusive.
func (iv Interval) Contains(ts int64) bool {
	return ts >= iv.Begin && ts <= iv.End
}

// Ticket is issued by the KDC or TGS and sealed under a long-lived server
// secret. client_ip is preserved on the wire even though nothing in this
// core currently populates it with anything but the empty string.
type Ticket struct {
	ClientID       string
	ClientIP       string
	ValidityPeriod Interval
	SessionKey     []byte
}

// Validate checks structural invariants of a Ticket prior to sealing or
// after unsealing.
func (t *Ticket) Validate() error {
	if t.ClientID == "" {
		return qerrors.ErrInvalidMessage
	}
	if len(t.SessionKey) != constants.SymmetricKeySize {
		return qerrors.ErrInvalidMessage
	}
	if t.ValidityPeriod.End < t.ValidityPeriod.Begin {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// Authenticator proves possession of a session key at a moment in time.
type Authenticator struct {
	ClientID  string
	Timestamp int64
}

// Validate checks structural invariants of an Authenticator.
func (a *Authenticator) Validate() error {
	if a.ClientID == "" {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// TicketAuthenticatorWrapper pairs a sealed Ticket with a sealed
// Authenticator. The ticket is sealed under a long-lived server secret;
// the authenticator is sealed under the ticket's session key.
type TicketAuthenticatorWrapper struct {
	Ticket        []byte
	Authenticator []byte
}

// Validate checks that both sealed fields are present.
func (w *TicketAuthenticatorWrapper) Validate() error {
	if len(w.Ticket) == 0 || len(w.Authenticator) == 0 {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// TicketSessionKeyWrapper pairs a sealed Ticket with a session key wrapped
// for the requesting caller.
type TicketSessionKeyWrapper struct {
	Ticket     []byte
	SessionKey []byte
}

// Validate checks that both fields are present.
func (w *TicketSessionKeyWrapper) Validate() error {
	if len(w.Ticket) == 0 || len(w.SessionKey) == 0 {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// AuthenticatedValue carries a re-sealed wrapper alongside a value sealed
// under the caller's session key (used to release the service-server
// secret key).
type AuthenticatedValue struct {
	Wrapper TicketAuthenticatorWrapper
	Value   []byte
}

// Validate checks the embedded wrapper and the sealed value.
func (v *AuthenticatedValue) Validate() error {
	if err := v.Wrapper.Validate(); err != nil {
		return err
	}
	if len(v.Value) == 0 {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// LoginCredentialsChange is the request body for changeCredentials,
// register, removeUser, and setAdministrator. Wrapper is nil for a
// bootstrap register call, which carries no authenticator.
type LoginCredentialsChange struct {
	ID             string
	OldCredentials []byte
	NewCredentials []byte
	Admin          bool
	Wrapper        *TicketAuthenticatorWrapper
}

// Validate checks that an id and new credentials are present.
func (c *LoginCredentialsChange) Validate() error {
	if c.ID == "" {
		return qerrors.ErrInvalidMessage
	}
	if len(c.NewCredentials) == 0 {
		return qerrors.ErrInvalidMessage
	}
	return nil
}

// HeaderSize is the size of the wire message header (type + length).
const HeaderSize = 5 // 1 byte type + 4 bytes big-endian length

// MaxMessageSize is the maximum size of a wire-encoded message.
const MaxMessageSize = constants.MaxMessageSize
