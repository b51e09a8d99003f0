package main

import (
	"time"

	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/handler"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

// codec is shared by every subcommand that plays the role of a client
// speaking the wire protocol directly against a controller.
var codec = protocol.NewCodec()

// unwrapSymmetricSessionKey reverses the symmetric session-key wrap a KDC or
// TGS response carries: decrypt under wrappingKey, then decode the tagged
// session-key record.
func unwrapSymmetricSessionKey(wrappingKey, wrapped []byte) ([]byte, error) {
	encoded, err := crypto.DecryptSymmetric(wrappingKey, wrapped)
	if err != nil {
		return nil, err
	}
	return codec.DecodeSessionKey(encoded)
}

// sealAuthenticatorUnder builds and seals an Authenticator proving
// possession of sessionKey for clientID at the given time.
func sealAuthenticatorUnder(sessionKey []byte, clientID string, at time.Time) ([]byte, error) {
	authenticator := &protocol.Authenticator{ClientID: clientID, Timestamp: at.UnixNano()}
	encoded, err := codec.EncodeAuthenticator(authenticator)
	if err != nil {
		return nil, err
	}
	return crypto.EncryptSymmetric(sessionKey, encoded)
}

// bootstrapCredentials seals a brand-new credential key the way a client
// seals new credentials during bootstrap registration: directly under the
// hash of the initial administrator password, with no ticket session key
// involved yet.
func bootstrapCredentials(initialPassword string, newKey []byte) ([]byte, error) {
	return handler.SealUnderSessionKey(crypto.HashPassword(initialPassword), newKey)
}

// sealCredentialUnderSessionKey seals a credential key (old or new) under a
// client-server ticket's session key, the shape registerNormal and
// changeCredentials expect in LoginCredentialsChange.
func sealCredentialUnderSessionKey(sessionKey, key []byte) ([]byte, error) {
	return handler.SealUnderSessionKey(sessionKey, key)
}

// unwrapSealedValue reverses SealUnderSessionKey, the shape
// requestServiceServerSecretKey uses to hand back the SS secret key.
func unwrapSealedValue(sessionKey, sealed []byte) ([]byte, error) {
	return handler.OpenUnderSessionKey(sessionKey, sealed)
}
