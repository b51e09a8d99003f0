package controller

import (
	"context"
	"time"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/handler"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

func requireWrapper(w *protocol.TicketAuthenticatorWrapper) error {
	if w == nil {
		return qerrors.Rejected("missing ticket")
	}
	return nil
}

// run submits op to the controller's worker pool and blocks for its result,
// the shape every remote-callable operation shares: op runs as a cancelable
// future, and run reports its completion to the observer.
func run[T any](c *Controller, ctx context.Context, name string, op func() (T, error)) (T, error) {
	start := time.Now()
	result, err := c.pool.SubmitWait(ctx, func(context.Context) (any, error) {
		return op()
	})
	c.observer.OnOperation(name, time.Since(start), err)
	return typedResult[T](result, err)
}

// RequestTicketGrantingTicket splits id on "@", looks up the user and/or
// client key in the store, and issues a fresh ticket-granting ticket.
func (c *Controller) RequestTicketGrantingTicket(ctx context.Context, id string) (*protocol.TicketSessionKeyWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "requestTicketGrantingTicket", func() (*protocol.TicketSessionKeyWrapper, error) {
		return c.doRequestTicketGrantingTicket(id)
	})
}

func (c *Controller) doRequestTicketGrantingTicket(id string) (*protocol.TicketSessionKeyWrapper, error) {
	user, client := splitPrincipal(id)

	var userKey, clientKey []byte
	if user != "" {
		if key, err := c.store.GetCredentials(user); err == nil {
			userKey = key
		}
	}
	if client != "" {
		if key, err := c.store.GetCredentials(client); err == nil {
			clientKey = key
		}
	}
	if len(userKey) == 0 && len(clientKey) == 0 {
		return nil, qerrors.NotAvailable(id)
	}

	c.mu.Lock()
	tgsKey := c.tgsKey
	c.mu.Unlock()

	return handler.HandleKDCRequest(handler.KDCRequest{
		ID:                id,
		UserKey:           userKey,
		ClientPublicKey:   clientKey,
		ClientIP:          "",
		TicketGrantingKey: tgsKey,
		ValidityPeriod:    c.tgtLifetime,
		Now:               time.Now(),
	})
}

// RequestClientServerTicket exchanges a ticket-granting ticket for a
// client-server ticket.
func (c *Controller) RequestClientServerTicket(ctx context.Context, wrapper *protocol.TicketAuthenticatorWrapper) (*protocol.TicketSessionKeyWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "requestClientServerTicket", func() (*protocol.TicketSessionKeyWrapper, error) {
		if err := requireWrapper(wrapper); err != nil {
			return nil, err
		}
		c.mu.Lock()
		tgsKey, ssKey := c.tgsKey, c.ssKey
		c.mu.Unlock()
		return handler.HandleTGSRequest(tgsKey, ssKey, wrapper, c.cstLifetime, time.Now())
	})
}

// ValidateClientServerTicket validates a client-server ticket and returns a
// refreshed wrapper proving the service server itself holds the session key.
func (c *Controller) ValidateClientServerTicket(ctx context.Context, wrapper *protocol.TicketAuthenticatorWrapper) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "validateClientServerTicket", func() (*protocol.TicketAuthenticatorWrapper, error) {
		if err := requireWrapper(wrapper); err != nil {
			return nil, err
		}
		c.mu.Lock()
		ssKey := c.ssKey
		c.mu.Unlock()
		return handler.HandleSSRequest(ssKey, wrapper, c.cstLifetime, time.Now())
	})
}

// ChangeCredentials validates the embedded ticket, authorizes the caller
// against the target id, verifies the old credentials match, and replaces
// them with the new ones.
func (c *Controller) ChangeCredentials(ctx context.Context, change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "changeCredentials", func() (*protocol.TicketAuthenticatorWrapper, error) {
		return c.doChangeCredentials(change)
	})
}

func (c *Controller) doChangeCredentials(change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := requireWrapper(change.Wrapper); err != nil {
		return nil, err
	}
	now := time.Now()
	c.mu.Lock()
	ssKey := c.ssKey
	c.mu.Unlock()

	cst, authenticator, err := handler.OpenClientServerTicket(ssKey, change.Wrapper, now)
	if err != nil {
		return nil, err
	}

	authUser, _ := splitPrincipal(authenticator.ClientID)
	if authUser != change.ID && !c.store.IsAdmin(authUser) {
		return nil, qerrors.PermissionDenied("caller may only change its own credentials")
	}

	oldCredentials, err := handler.OpenUnderSessionKey(cst.SessionKey, change.OldCredentials)
	if err != nil {
		return nil, err
	}
	newCredentials, err := handler.OpenUnderSessionKey(cst.SessionKey, change.NewCredentials)
	if err != nil {
		return nil, err
	}

	stored, err := c.store.GetCredentials(change.ID)
	if err != nil {
		return nil, err
	}
	if !crypto.ConstantTimeCompare(oldCredentials, stored) {
		return nil, qerrors.Rejected("old credentials do not match")
	}

	if err := c.store.SetCredentials(change.ID, newCredentials); err != nil {
		return nil, err
	}

	return handler.HandleSSRequest(ssKey, change.Wrapper, c.cstLifetime, now)
}

// Register runs in bootstrap mode (no authenticator, against the live
// initial password) while the store holds only the three bootstrap entries,
// and in normal mode (SS-validated, authorized) afterward. Bootstrap
// success returns a nil wrapper.
func (c *Controller) Register(ctx context.Context, change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "register", func() (*protocol.TicketAuthenticatorWrapper, error) {
		return c.doRegister(change)
	})
}

func (c *Controller) doRegister(change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	c.mu.Lock()
	password := c.initialPassword
	c.mu.Unlock()

	if password != "" && c.store.HasOnlyBootstrapEntries() {
		return nil, c.registerBootstrap(change, password)
	}
	return c.registerNormal(change)
}

func (c *Controller) registerBootstrap(change *protocol.LoginCredentialsChange, password string) error {
	wrappingKey := crypto.HashPassword(password)
	key, err := handler.OpenUnderSessionKey(wrappingKey, change.NewCredentials)
	if err != nil {
		return err
	}
	if err := c.store.AddCredentials(change.ID, key, true); err != nil {
		return err
	}
	if err := c.store.MarkBootstrapped(); err != nil {
		return err
	}

	c.mu.Lock()
	c.initialPassword = ""
	c.mu.Unlock()
	return nil
}

func (c *Controller) registerNormal(change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := requireWrapper(change.Wrapper); err != nil {
		return nil, err
	}
	now := time.Now()
	c.mu.Lock()
	ssKey := c.ssKey
	c.mu.Unlock()

	cst, authenticator, err := handler.OpenClientServerTicket(ssKey, change.Wrapper, now)
	if err != nil {
		return nil, err
	}

	authUser, _ := splitPrincipal(authenticator.ClientID)
	if change.Admin && !c.store.IsAdmin(authUser) {
		return nil, qerrors.PermissionDenied("only an admin may register an admin principal")
	}
	if change.ID == authUser {
		return nil, qerrors.Rejected("cannot register over the calling principal")
	}
	if c.store.HasEntry(change.ID) {
		return nil, qerrors.Rejected("principal already exists")
	}

	key, err := handler.OpenUnderSessionKey(cst.SessionKey, change.NewCredentials)
	if err != nil {
		return nil, err
	}
	if err := c.store.AddCredentials(change.ID, key, change.Admin); err != nil {
		return nil, err
	}

	return handler.HandleSSRequest(ssKey, change.Wrapper, c.cstLifetime, now)
}

// RemoveUser authorizes the caller as an admin, refuses self-removal, and
// removes the target principal.
func (c *Controller) RemoveUser(ctx context.Context, change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "removeUser", func() (*protocol.TicketAuthenticatorWrapper, error) {
		return c.doRemoveUser(change)
	})
}

func (c *Controller) doRemoveUser(change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := requireWrapper(change.Wrapper); err != nil {
		return nil, err
	}
	now := time.Now()
	c.mu.Lock()
	ssKey := c.ssKey
	c.mu.Unlock()

	_, authenticator, err := handler.OpenClientServerTicket(ssKey, change.Wrapper, now)
	if err != nil {
		return nil, err
	}

	authUser, _ := splitPrincipal(authenticator.ClientID)
	if !c.store.IsAdmin(authUser) {
		return nil, qerrors.PermissionDenied("only an admin may remove a principal")
	}
	if change.ID == authUser {
		return nil, qerrors.Rejected("cannot remove the calling principal")
	}
	if !c.store.HasEntry(change.ID) {
		return nil, qerrors.NotAvailable(change.ID)
	}
	if err := c.store.RemoveEntry(change.ID); err != nil {
		return nil, err
	}

	return handler.HandleSSRequest(ssKey, change.Wrapper, c.cstLifetime, now)
}

// SetAdministrator authorizes the caller as an admin, refuses self-change,
// and sets the target principal's admin flag.
func (c *Controller) SetAdministrator(ctx context.Context, change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "setAdministrator", func() (*protocol.TicketAuthenticatorWrapper, error) {
		return c.doSetAdministrator(change)
	})
}

func (c *Controller) doSetAdministrator(change *protocol.LoginCredentialsChange) (*protocol.TicketAuthenticatorWrapper, error) {
	if err := requireWrapper(change.Wrapper); err != nil {
		return nil, err
	}
	now := time.Now()
	c.mu.Lock()
	ssKey := c.ssKey
	c.mu.Unlock()

	_, authenticator, err := handler.OpenClientServerTicket(ssKey, change.Wrapper, now)
	if err != nil {
		return nil, err
	}

	authUser, _ := splitPrincipal(authenticator.ClientID)
	if !c.store.IsAdmin(authUser) {
		return nil, qerrors.PermissionDenied("only an admin may change admin status")
	}
	if change.ID == authUser {
		return nil, qerrors.Rejected("cannot change the calling principal's admin status")
	}
	if !c.store.HasEntry(change.ID) {
		return nil, qerrors.NotAvailable(change.ID)
	}
	if err := c.store.SetAdmin(change.ID, change.Admin); err != nil {
		return nil, err
	}

	return handler.HandleSSRequest(ssKey, change.Wrapper, c.cstLifetime, now)
}

// RequestServiceServerSecretKey validates the caller's ticket, requires the
// caller be the service-server principal itself, and returns the SS secret
// key sealed under the caller's session key.
func (c *Controller) RequestServiceServerSecretKey(ctx context.Context, wrapper *protocol.TicketAuthenticatorWrapper) (*protocol.AuthenticatedValue, error) {
	if err := c.requireActive(); err != nil {
		return nil, err
	}
	return run(c, ctx, "requestServiceServerSecretKey", func() (*protocol.AuthenticatedValue, error) {
		return c.doRequestServiceServerSecretKey(wrapper)
	})
}

func (c *Controller) doRequestServiceServerSecretKey(wrapper *protocol.TicketAuthenticatorWrapper) (*protocol.AuthenticatedValue, error) {
	if err := requireWrapper(wrapper); err != nil {
		return nil, err
	}
	now := time.Now()
	c.mu.Lock()
	ssKey := c.ssKey
	c.mu.Unlock()

	cst, authenticator, err := handler.OpenClientServerTicket(ssKey, wrapper, now)
	if err != nil {
		return nil, err
	}

	expected := constants.PrincipalSeparator + constants.ServiceServerPrincipalID
	if authenticator.ClientID != expected {
		return nil, qerrors.Rejected("only the service server may request its secret key")
	}

	refreshed, err := handler.HandleSSRequest(ssKey, wrapper, c.cstLifetime, now)
	if err != nil {
		return nil, err
	}

	sealedKey, err := handler.SealUnderSessionKey(cst.SessionKey, ssKey)
	if err != nil {
		return nil, err
	}

	return &protocol.AuthenticatedValue{Wrapper: *refreshed, Value: sealedKey}, nil
}

// IsAdmin reports whether id is a registered admin principal.
func (c *Controller) IsAdmin(ctx context.Context, id string) (bool, error) {
	if err := c.requireActive(); err != nil {
		return false, err
	}
	return run(c, ctx, "isAdmin", func() (bool, error) {
		return c.store.IsAdmin(id), nil
	})
}

// HasUser reports whether id has an entry in the store.
func (c *Controller) HasUser(ctx context.Context, id string) (bool, error) {
	if err := c.requireActive(); err != nil {
		return false, err
	}
	return run(c, ctx, "hasUser", func() (bool, error) {
		return c.store.HasEntry(id), nil
	})
}
