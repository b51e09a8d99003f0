// Package handler implements the pure ticket-granting protocol steps: the
// KDC, TGS, and SS request handlers and the ticket/authenticator validation
// they share. Every function here is a pure transform over its arguments —
// no handler reads or writes the credential store or any other shared
// state; pkg/controller owns that wiring.
//
// Sealing follows the same two-step shape in every handler: encode the
// record to its canonical tagged bytes (pkg/protocol), then seal those
// bytes under a symmetric key (pkg/crypto). Unsealing reverses both steps
// and never reports which one failed.
package handler

import (
	"time"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

var codec = protocol.NewCodec()

// sealTicket encodes and symmetrically seals a Ticket under key.
func sealTicket(key []byte, ticket *protocol.Ticket) ([]byte, error) {
	encoded, err := codec.EncodeTicket(ticket)
	if err != nil {
		return nil, qerrors.NewCryptoError("sealTicket", err)
	}
	sealed, err := crypto.EncryptSymmetric(key, encoded)
	if err != nil {
		return nil, qerrors.NewCryptoError("sealTicket", err)
	}
	return sealed, nil
}

// openTicket unseals and decodes a Ticket sealed by sealTicket. Any
// failure, whatever its cause, is reported as ErrRejected.
func openTicket(key, sealed []byte) (*protocol.Ticket, error) {
	encoded, err := crypto.DecryptSymmetric(key, sealed)
	if err != nil {
		return nil, qerrors.Rejected("ticket unseal failed")
	}
	ticket, err := codec.DecodeTicket(encoded)
	if err != nil {
		return nil, qerrors.Rejected("ticket decode failed")
	}
	return ticket, nil
}

// sealAuthenticator encodes and symmetrically seals an Authenticator under key.
func sealAuthenticator(key []byte, authenticator *protocol.Authenticator) ([]byte, error) {
	encoded, err := codec.EncodeAuthenticator(authenticator)
	if err != nil {
		return nil, qerrors.NewCryptoError("sealAuthenticator", err)
	}
	sealed, err := crypto.EncryptSymmetric(key, encoded)
	if err != nil {
		return nil, qerrors.NewCryptoError("sealAuthenticator", err)
	}
	return sealed, nil
}

// openAuthenticator unseals and decodes an Authenticator sealed by
// sealAuthenticator. Any failure is reported as ErrRejected.
func openAuthenticator(key, sealed []byte) (*protocol.Authenticator, error) {
	encoded, err := crypto.DecryptSymmetric(key, sealed)
	if err != nil {
		return nil, qerrors.Rejected("authenticator unseal failed")
	}
	authenticator, err := codec.DecodeAuthenticator(encoded)
	if err != nil {
		return nil, qerrors.Rejected("authenticator decode failed")
	}
	return authenticator, nil
}

// wrapSessionKeySymmetric wraps sessionKey under wrappingKey the same way
// encrypt_symmetric seals any other tagged record.
func wrapSessionKeySymmetric(wrappingKey, sessionKey []byte) ([]byte, error) {
	encoded, err := codec.EncodeSessionKey(sessionKey)
	if err != nil {
		return nil, qerrors.NewCryptoError("wrapSessionKeySymmetric", err)
	}
	return crypto.EncryptSymmetric(wrappingKey, encoded)
}

// ValidateTicket checks a ticket/authenticator pair for agreement and
// freshness. It returns ErrRejected if the two disagree on client_id or
// either lacks one, and ErrSessionExpired if the authenticator falls
// outside the ticket's validity window or too far from the server's clock.
func ValidateTicket(ticket *protocol.Ticket, authenticator *protocol.Authenticator, now time.Time) error {
	if ticket.ClientID == "" || authenticator.ClientID == "" {
		return qerrors.Rejected("missing client id")
	}
	if ticket.ClientID != authenticator.ClientID {
		return qerrors.Rejected("client id mismatch")
	}

	nowNanos := now.UnixNano()
	if !ticket.ValidityPeriod.Contains(authenticator.Timestamp) {
		return qerrors.ErrSessionExpired
	}

	skew := nowNanos - authenticator.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew) > constants.ClockSkewTolerance {
		return qerrors.ErrSessionExpired
	}

	return nil
}

// KDCRequest carries the key material the KDC needs to service a ticket
// request. Exactly one of UserKey/ClientKey being present is sufficient;
// both may be present.
type KDCRequest struct {
	ID                  string
	UserKey             []byte // nil if the user principal has no entry
	ClientPublicKey     []byte // nil if the client principal has no entry, else an X25519 public key
	ClientIP            string
	TicketGrantingKey   []byte
	ValidityPeriod      time.Duration
	Now                 time.Time
}

// HandleKDCRequest issues a fresh ticket-granting ticket for id, wrapping
// its session key under whichever of the user/client keys are present (user
// key first, symmetrically, then client key, asymmetrically, if both are
// supplied).
func HandleKDCRequest(req KDCRequest) (*protocol.TicketSessionKeyWrapper, error) {
	if len(req.UserKey) == 0 && len(req.ClientPublicKey) == 0 {
		return nil, qerrors.NotAvailable(req.ID)
	}

	sessionKey, err := crypto.SecureRandomBytes(constants.SymmetricKeySize)
	if err != nil {
		return nil, qerrors.NewCryptoError("HandleKDCRequest", err)
	}

	begin := req.Now.UnixNano()
	end := req.Now.Add(req.ValidityPeriod).UnixNano()

	ticket := &protocol.Ticket{
		ClientID:       req.ID,
		ClientIP:       req.ClientIP,
		ValidityPeriod: protocol.Interval{Begin: begin, End: end},
		SessionKey:     sessionKey,
	}

	sealedTicket, err := sealTicket(req.TicketGrantingKey, ticket)
	if err != nil {
		return nil, err
	}

	wrapped := sessionKey
	if len(req.UserKey) > 0 {
		wrapped, err = wrapSessionKeySymmetric(req.UserKey, wrapped)
		if err != nil {
			return nil, qerrors.NewCryptoError("HandleKDCRequest", err)
		}
	}
	if len(req.ClientPublicKey) > 0 {
		publicKey, err := crypto.ParsePublicKey(req.ClientPublicKey)
		if err != nil {
			return nil, qerrors.NewCryptoError("HandleKDCRequest", err)
		}
		wrapped, err = crypto.WrapSessionKey(publicKey, wrapped)
		if err != nil {
			return nil, qerrors.NewCryptoError("HandleKDCRequest", err)
		}
	}

	return &protocol.TicketSessionKeyWrapper{Ticket: sealedTicket, SessionKey: wrapped}, nil
}

// HandleTGSRequest validates a ticket-granting ticket and authenticator and
// issues a fresh client-server ticket sealed under the service server's
// secret key. The new session key is wrapped symmetrically under the old
// TGS session key so only the holder of the original ticket can read it.
func HandleTGSRequest(ticketGrantingKey, serviceServerKey []byte, wrapper *protocol.TicketAuthenticatorWrapper, validityPeriod time.Duration, now time.Time) (*protocol.TicketSessionKeyWrapper, error) {
	tgt, err := openTicket(ticketGrantingKey, wrapper.Ticket)
	if err != nil {
		return nil, err
	}

	authenticator, err := openAuthenticator(tgt.SessionKey, wrapper.Authenticator)
	if err != nil {
		return nil, err
	}

	if err := ValidateTicket(tgt, authenticator, now); err != nil {
		return nil, err
	}

	sessionKey, err := crypto.SecureRandomBytes(constants.SymmetricKeySize)
	if err != nil {
		return nil, qerrors.NewCryptoError("HandleTGSRequest", err)
	}

	begin := now.UnixNano()
	end := now.Add(validityPeriod).UnixNano()

	cst := &protocol.Ticket{
		ClientID:       tgt.ClientID,
		ClientIP:       tgt.ClientIP,
		ValidityPeriod: protocol.Interval{Begin: begin, End: end},
		SessionKey:     sessionKey,
	}

	sealedCST, err := sealTicket(serviceServerKey, cst)
	if err != nil {
		return nil, err
	}

	wrappedSessionKey, err := wrapSessionKeySymmetric(tgt.SessionKey, sessionKey)
	if err != nil {
		return nil, qerrors.NewCryptoError("HandleTGSRequest", err)
	}

	return &protocol.TicketSessionKeyWrapper{Ticket: sealedCST, SessionKey: wrappedSessionKey}, nil
}

// HandleSSRequest validates a client-server ticket and authenticator and
// returns a refreshed pair: a ticket with a new validity window (same
// session key) and an authenticator with its timestamp advanced by one
// nanosecond, proving the service server itself held the session key.
func HandleSSRequest(serviceServerKey []byte, wrapper *protocol.TicketAuthenticatorWrapper, validityPeriod time.Duration, now time.Time) (*protocol.TicketAuthenticatorWrapper, error) {
	cst, err := openTicket(serviceServerKey, wrapper.Ticket)
	if err != nil {
		return nil, err
	}

	authenticator, err := openAuthenticator(cst.SessionKey, wrapper.Authenticator)
	if err != nil {
		return nil, err
	}

	if err := ValidateTicket(cst, authenticator, now); err != nil {
		return nil, err
	}

	begin := now.UnixNano()
	end := now.Add(validityPeriod).UnixNano()

	refreshedCST := &protocol.Ticket{
		ClientID:       cst.ClientID,
		ClientIP:       cst.ClientIP,
		ValidityPeriod: protocol.Interval{Begin: begin, End: end},
		SessionKey:     cst.SessionKey,
	}

	refreshedAuthenticator := &protocol.Authenticator{
		ClientID:  authenticator.ClientID,
		Timestamp: authenticator.Timestamp + 1,
	}

	sealedCST, err := sealTicket(serviceServerKey, refreshedCST)
	if err != nil {
		return nil, err
	}
	sealedAuthenticator, err := sealAuthenticator(cst.SessionKey, refreshedAuthenticator)
	if err != nil {
		return nil, err
	}

	return &protocol.TicketAuthenticatorWrapper{Ticket: sealedCST, Authenticator: sealedAuthenticator}, nil
}

// OpenClientServerTicket unseals a client-server ticket and its
// authenticator under the service server's secret key, validating them in
// the same way HandleSSRequest does. Controller operations that need the
// ticket's session key (change_credentials, request_service_server_secret_key)
// call this instead of HandleSSRequest when they don't want a refreshed pair.
func OpenClientServerTicket(serviceServerKey []byte, wrapper *protocol.TicketAuthenticatorWrapper, now time.Time) (*protocol.Ticket, *protocol.Authenticator, error) {
	cst, err := openTicket(serviceServerKey, wrapper.Ticket)
	if err != nil {
		return nil, nil, err
	}

	authenticator, err := openAuthenticator(cst.SessionKey, wrapper.Authenticator)
	if err != nil {
		return nil, nil, err
	}

	if err := ValidateTicket(cst, authenticator, now); err != nil {
		return nil, nil, err
	}

	return cst, authenticator, nil
}

// SealUnderSessionKey encrypts plaintext under a ticket's session key, for
// callers (e.g. changeCredentials, requestServiceServerSecretKey) that need
// to hand the caller a value only the session-key holder can read.
func SealUnderSessionKey(sessionKey, plaintext []byte) ([]byte, error) {
	return crypto.EncryptSymmetric(sessionKey, plaintext)
}

// OpenUnderSessionKey decrypts a value sealed by SealUnderSessionKey.
func OpenUnderSessionKey(sessionKey, sealed []byte) ([]byte, error) {
	plaintext, err := crypto.DecryptSymmetric(sessionKey, sealed)
	if err != nil {
		return nil, qerrors.Rejected("value unseal failed")
	}
	return plaintext, nil
}
