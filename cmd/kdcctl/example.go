package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pzverkov/kdcauth/internal/constants"
	"github.com/pzverkov/kdcauth/pkg/controller"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

// narrate prints a numbered annotation followed by the code-level action it
// describes, mirroring the way the teacher's example command walks a reader
// through a protocol step before performing it.
func narrate(n int, title, detail string) {
	fmt.Printf("\n[%d] %s\n    %s\n", n, title, detail)
}

func runExample() {
	fmt.Println("kdcauth annotated walkthrough")
	fmt.Println("=============================")
	fmt.Println("This walks through the full ticket-granting protocol against a real")
	fmt.Println("controller and credential store, narrating each wire record exchanged.")

	dir, err := os.MkdirTemp("", "kdcauth-example-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ctrl, err := controller.New(controller.Config{CredentialsDir: dir})
	must(err)

	narrate(1, "Init", "loads or creates the credential store and generates the long-lived TGS and SS secret keys.")
	must(ctrl.Init())

	narrate(2, "Activate", "provisions the service server's X25519 key pair (private half written to the credentials directory) and, since the store holds only the three bootstrap entries, generates a one-time administrator password.")
	must(ctrl.Activate())

	password, ok := ctrl.GetInitialPassword()
	if !ok {
		fail("expected a live bootstrap password")
	}
	fmt.Printf("    bootstrap password: %s\n", password)

	ctx := context.Background()

	narrate(3, "Register (bootstrap)", "the administrator's new credentials are sealed directly under HashPassword(bootstrapPassword) -- no ticket exists yet, so there is nothing to wrap them under but the password itself.")
	adminKey := crypto.MustSecureRandomBytes(16)
	sealedAdmin, err := bootstrapCredentials(password, adminKey)
	must(err)
	_, err = ctrl.Register(ctx, &protocol.LoginCredentialsChange{ID: "admin", NewCredentials: sealedAdmin, Admin: true})
	must(err)
	fmt.Println("    admin registered; the bootstrap password is now cleared from the controller.")

	narrate(4, "KDC: RequestTicketGrantingTicket", `requests a ticket-granting ticket for "admin@console". The KDC looks up "admin" and "console" separately; only "admin" has an entry, so the session key is wrapped symmetrically under admin's credential key.`)
	adminTGTResp, err := ctrl.RequestTicketGrantingTicket(ctx, "admin@console")
	must(err)
	adminTGTKey, err := unwrapSymmetricSessionKey(adminKey, adminTGTResp.SessionKey)
	must(err)
	fmt.Printf("    sealed ticket-granting ticket: %d bytes; recovered session key: %d bytes\n",
		len(adminTGTResp.Ticket), len(adminTGTKey))

	narrate(5, "TGS: RequestClientServerTicket", "the client seals a fresh Authenticator under the TGT session key and presents both to the TGS, which validates the ticket/authenticator pair (matching client id, validity window, clock skew) before issuing a client-server ticket.")
	adminWrapper, err := authenticate(adminTGTResp.Ticket, adminTGTKey, "admin@console")
	must(err)
	adminCSTResp, err := ctrl.RequestClientServerTicket(ctx, adminWrapper)
	must(err)
	adminCSTKey, err := unwrapSymmetricSessionKey(adminTGTKey, adminCSTResp.SessionKey)
	must(err)
	fmt.Printf("    sealed client-server ticket: %d bytes; recovered session key: %d bytes\n",
		len(adminCSTResp.Ticket), len(adminCSTKey))

	narrate(6, "SS: ValidateClientServerTicket", "the service server itself validates the client-server ticket and authenticator and returns a refreshed pair, proving it held the SS secret key -- the same check every admin operation below performs internally before acting.")
	adminSSWrapper, err := authenticateCST(adminCSTResp.Ticket, adminCSTKey, "admin@console")
	must(err)
	refreshed, err := ctrl.ValidateClientServerTicket(ctx, adminSSWrapper)
	must(err)
	fmt.Printf("    refreshed ticket: %d bytes\n", len(refreshed.Ticket))

	narrate(7, "register (normal mode)", `admin registers "bob", a non-admin principal. Normal-mode register needs a fresh client-server ticket wrapper (bootstrap mode is only available while the store holds just the three bootstrap entries), and bob's new credentials are sealed under admin's session key.`)
	bobKey := crypto.MustSecureRandomBytes(16)
	adminSSWrapper2, err := authenticateCST(adminCSTResp.Ticket, adminCSTKey, "admin@console")
	must(err)
	sealedBob, err := sealCredentialUnderSessionKey(adminCSTKey, bobKey)
	must(err)
	_, err = ctrl.Register(ctx, &protocol.LoginCredentialsChange{
		ID:             "bob",
		NewCredentials: sealedBob,
		Wrapper:        adminSSWrapper2,
	})
	must(err)
	fmt.Println("    bob registered as a non-admin principal.")

	narrate(8, "changeCredentials", "bob authenticates for himself, then rotates his own credential key: old and new credentials are both sealed under his own client-server session key.")
	bobTGTResp, err := ctrl.RequestTicketGrantingTicket(ctx, "bob@console")
	must(err)
	bobTGTKey, err := unwrapSymmetricSessionKey(bobKey, bobTGTResp.SessionKey)
	must(err)
	bobWrapper, err := authenticate(bobTGTResp.Ticket, bobTGTKey, "bob@console")
	must(err)
	bobCSTResp, err := ctrl.RequestClientServerTicket(ctx, bobWrapper)
	must(err)
	bobCSTKey, err := unwrapSymmetricSessionKey(bobTGTKey, bobCSTResp.SessionKey)
	must(err)

	newBobKey := crypto.MustSecureRandomBytes(16)
	bobSSWrapper, err := authenticateCST(bobCSTResp.Ticket, bobCSTKey, "bob@console")
	must(err)
	sealedOld, err := sealCredentialUnderSessionKey(bobCSTKey, bobKey)
	must(err)
	sealedNewBob, err := sealCredentialUnderSessionKey(bobCSTKey, newBobKey)
	must(err)
	_, err = ctrl.ChangeCredentials(ctx, &protocol.LoginCredentialsChange{
		ID:             "bob",
		OldCredentials: sealedOld,
		NewCredentials: sealedNewBob,
		Wrapper:        bobSSWrapper,
	})
	must(err)
	fmt.Println("    bob's credential key rotated.")

	narrate(9, "setAdministrator / removeUser", "admin promotes bob, then removes him -- both operations authorize the caller as an admin and refuse to target the caller's own principal.")
	adminSSWrapper3, err := authenticateCST(adminCSTResp.Ticket, adminCSTKey, "admin@console")
	must(err)
	_, err = ctrl.SetAdministrator(ctx, &protocol.LoginCredentialsChange{ID: "bob", Admin: true, Wrapper: adminSSWrapper3})
	must(err)
	adminSSWrapper4, err := authenticateCST(adminCSTResp.Ticket, adminCSTKey, "admin@console")
	must(err)
	_, err = ctrl.RemoveUser(ctx, &protocol.LoginCredentialsChange{ID: "bob", Wrapper: adminSSWrapper4})
	must(err)
	fmt.Println("    bob promoted to admin, then removed.")

	narrate(10, "RequestServiceServerSecretKey (public-key path)", `the service server's own principal is "@SERVICE_SERVER_ID" -- an empty user half and the client half set to the well-known service-server id. Its credential entry holds an X25519 public key, so the KDC wraps the session key with WrapSessionKey instead of a symmetric seal, and only the holder of the private key written to disk at Activate can recover it.`)
	ssPrincipal := constants.PrincipalSeparator + constants.ServiceServerPrincipalID
	ssTGTResp, err := ctrl.RequestTicketGrantingTicket(ctx, ssPrincipal)
	must(err)
	privateKeyBytes, err := os.ReadFile(filepath.Join(dir, constants.ServiceServerPrivateKeyFileName))
	must(err)
	keyPair, err := crypto.NewKeyPairFromBytes(privateKeyBytes)
	must(err)
	ssTGTKey, err := crypto.UnwrapSessionKey(keyPair.PrivateKey, ssTGTResp.SessionKey)
	must(err)
	ssWrapper, err := authenticate(ssTGTResp.Ticket, ssTGTKey, ssPrincipal)
	must(err)
	ssCSTResp, err := ctrl.RequestClientServerTicket(ctx, ssWrapper)
	must(err)
	ssCSTKey, err := unwrapSymmetricSessionKey(ssTGTKey, ssCSTResp.SessionKey)
	must(err)
	ssAuthWrapper, err := authenticateCST(ssCSTResp.Ticket, ssCSTKey, ssPrincipal)
	must(err)
	authValue, err := ctrl.RequestServiceServerSecretKey(ctx, ssAuthWrapper)
	must(err)
	secretKey, err := unwrapSealedValue(ssCSTKey, authValue.Value)
	must(err)
	fmt.Printf("    recovered the %d-byte SS secret key under the service server's own session key.\n", len(secretKey))

	fmt.Println("\nWalkthrough complete.")
}

// authenticate seals a fresh Authenticator for principal under sessionKey
// and pairs it with sealedTicket, the shape every ticket-bearing request
// takes on the wire.
func authenticate(sealedTicket, sessionKey []byte, principal string) (*protocol.TicketAuthenticatorWrapper, error) {
	sealedAuth, err := sealAuthenticatorUnder(sessionKey, principal, time.Now())
	if err != nil {
		return nil, err
	}
	return &protocol.TicketAuthenticatorWrapper{Ticket: sealedTicket, Authenticator: sealedAuth}, nil
}

// authenticateCST is authenticate under a different name at the call sites
// above that re-authenticate against an already-held client-server ticket;
// the wire shape is identical.
func authenticateCST(sealedTicket, sessionKey []byte, principal string) (*protocol.TicketAuthenticatorWrapper, error) {
	return authenticate(sealedTicket, sessionKey, principal)
}

func must(err error) {
	if err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}
