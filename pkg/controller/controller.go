// Package controller implements the Authenticator Controller: the stateful
// façade wiring the credential store, the long-lived ticket-granting and
// service-server secrets, the pure protocol handlers, and the worker pool
// that runs every remote-callable operation as a cancelable future.
//
// The controller's lifecycle is a one-way state machine, adapted from the
// atomic-int32 session-state pattern the rest of this module uses for its
// other stateful types: Uninitialized -> Initialized -> Active -> Inactive.
// Init loads or creates the credential store and the TGS/SS secret keys;
// Activate provisions the service-server key pair on first run and, if the
// store still holds only the three bootstrap entries, generates the
// initial administrator password. Remote-callable operations only run
// while the controller is Active.
package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pzverkov/kdcauth/internal/constants"
	qerrors "github.com/pzverkov/kdcauth/internal/errors"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/store"
	"github.com/pzverkov/kdcauth/pkg/workerpool"
)

// Config configures a Controller.
type Config struct {
	// CredentialsDir is the directory holding the credential store document
	// and the service-server private key file.
	CredentialsDir string

	// SealMode selects the envelope algorithm the controller's handler
	// calls use. Zero value is constants.SealModeLegacy.
	SealMode constants.SealMode

	// TicketGrantingTicketLifetime is how long a TGT issued by the KDC
	// stays valid. Zero means constants.DefaultTicketGrantingTicketLifetime.
	TicketGrantingTicketLifetime time.Duration

	// ClientServerTicketLifetime is how long a CST issued by the TGS (or
	// refreshed by the SS) stays valid. Zero means
	// constants.DefaultClientServerTicketLifetime.
	ClientServerTicketLifetime time.Duration

	// Pool runs every remote-callable operation. A pool with
	// workerpool.DefaultConfig() is created if nil.
	Pool *workerpool.Pool

	// Observer receives lifecycle and operation events. Optional.
	Observer Observer
}

func (c *Config) applyDefaults() {
	if c.TicketGrantingTicketLifetime == 0 {
		c.TicketGrantingTicketLifetime = constants.DefaultTicketGrantingTicketLifetime
	}
	if c.ClientServerTicketLifetime == 0 {
		c.ClientServerTicketLifetime = constants.DefaultClientServerTicketLifetime
	}
	if c.Observer == nil {
		c.Observer = NoOpObserver{}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.CredentialsDir == "" {
		return errors.New("controller: CredentialsDir is required")
	}
	if !c.SealMode.IsValid() {
		return errors.New("controller: invalid SealMode")
	}
	return nil
}

// Controller is the Authenticator Controller.
type Controller struct {
	state atomic.Int32

	credentialsDir string
	sealMode       constants.SealMode
	tgtLifetime    time.Duration
	cstLifetime    time.Duration
	observer       Observer

	pool  *workerpool.Pool
	store *store.Store

	mu              sync.Mutex
	tgsKey          []byte
	ssKey           []byte
	ssKeyPair       *crypto.KeyPair
	initialPassword string
}

// New constructs a Controller in StateUninitialized. Call Init then
// Activate before using any remote-callable operation.
func New(config Config) (*Controller, error) {
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	pool := config.Pool
	if pool == nil {
		var err error
		pool, err = workerpool.New(workerpool.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	c := &Controller{
		credentialsDir: config.CredentialsDir,
		sealMode:       config.SealMode,
		tgtLifetime:    config.TicketGrantingTicketLifetime,
		cstLifetime:    config.ClientServerTicketLifetime,
		observer:       config.Observer,
		pool:           pool,
	}
	c.state.Store(int32(StateUninitialized))
	return c, nil
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) transition(from, to State) bool {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	c.observer.OnStateChange(from, to)
	return true
}

// Init loads or creates the credential store and ensures the ticket-granting
// and service-server secret keys exist, generating and persisting them on
// first run.
func (c *Controller) Init() error {
	if !c.transition(StateUninitialized, StateInitialized) {
		return qerrors.ErrInvalidState
	}

	st, err := store.New(c.credentialsDir)
	if err != nil {
		return err
	}
	c.store = st

	c.mu.Lock()
	defer c.mu.Unlock()

	tgsKey, err := c.ensureSymmetricSecret(constants.TicketGrantingKeyID)
	if err != nil {
		return err
	}
	c.tgsKey = tgsKey

	ssKey, err := c.ensureSymmetricSecret(constants.ServiceServerSecretKeyID)
	if err != nil {
		return err
	}
	c.ssKey = ssKey

	return nil
}

// ensureSymmetricSecret returns the stored key for id, generating and
// persisting a fresh one if absent. Must be called with c.mu held.
func (c *Controller) ensureSymmetricSecret(id string) ([]byte, error) {
	key, err := c.store.GetCredentials(id)
	if err == nil {
		return key, nil
	}
	if !qerrors.Is(err, qerrors.ErrNotAvailable) {
		return nil, err
	}

	key, err = crypto.SecureRandomBytes(constants.SymmetricKeySize)
	if err != nil {
		return nil, qerrors.NewCryptoError("ensureSymmetricSecret", err)
	}
	if err := c.store.AddCredentials(id, key, false); err != nil {
		return nil, err
	}
	return key, nil
}

// Activate provisions the service-server key pair on first run (writing the
// private half to the credentials directory) and generates the initial
// administrator password if the store still holds only the three bootstrap
// entries. Transitions the controller to StateActive.
func (c *Controller) Activate() error {
	if !c.transition(StateInitialized, StateActive) {
		return qerrors.ErrInvalidState
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.HasEntry(constants.ServiceServerPrincipalID) {
		keyPair, err := crypto.GenerateKeyPair()
		if err != nil {
			return qerrors.NewCryptoError("Activate", err)
		}
		keyPath := filepath.Join(c.credentialsDir, constants.ServiceServerPrivateKeyFileName)
		if err := os.WriteFile(keyPath, keyPair.PrivateKeyBytes(), constants.PrivateKeyFilePerm); err != nil {
			return err
		}
		if err := c.store.AddCredentials(constants.ServiceServerPrincipalID, keyPair.PublicKeyBytes(), false); err != nil {
			return err
		}
		c.ssKeyPair = keyPair
	}

	if c.initialPasswordRequired() {
		password, err := generateInitialPassword()
		if err != nil {
			return qerrors.NewCryptoError("Activate", err)
		}
		c.initialPassword = password
		fmt.Println(password)
		c.observer.OnBootstrapPasswordGenerated()
	}

	return nil
}

// initialPasswordRequired reports whether bootstrap is still pending: the
// store has never recorded a completed bootstrap and currently holds
// exactly the three bootstrap entries. Must be called with c.mu held (the
// lock guards initialPassword, not the store, but Activate always calls it
// under the lock it already holds).
func (c *Controller) initialPasswordRequired() bool {
	return !c.store.Bootstrapped() && c.store.HasOnlyBootstrapEntries()
}

func generateInitialPassword() (string, error) {
	raw, err := crypto.SecureRandomBytes(constants.InitialPasswordLength)
	if err != nil {
		return "", err
	}
	charset := constants.InitialPasswordCharset
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = charset[int(b)%len(charset)]
	}
	return string(out), nil
}

// GetInitialPassword returns the live bootstrap password, if any. It
// returns ("", false) once the first successful bootstrap register has
// cleared it.
func (c *Controller) GetInitialPassword() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialPassword == "" {
		return "", false
	}
	return c.initialPassword, true
}

// Shutdown stops accepting new operations, drains the worker pool, and
// flushes the credential store.
func (c *Controller) Shutdown() error {
	prev := c.State()
	if prev != StateActive && prev != StateInitialized {
		return qerrors.ErrInvalidState
	}
	if !c.transition(prev, StateInactive) {
		return qerrors.ErrInvalidState
	}

	if err := c.pool.Close(); err != nil {
		return err
	}
	if c.store != nil {
		if err := c.store.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) requireActive() error {
	if c.State() != StateActive {
		return qerrors.ErrInvalidState
	}
	return nil
}

// splitPrincipal splits a "user@client" principal identifier into its two
// halves. Either half may be empty; an identifier with no separator is
// treated as a pure user.
func splitPrincipal(id string) (user, client string) {
	idx := strings.Index(id, constants.PrincipalSeparator)
	if idx < 0 {
		return id, ""
	}
	return id[:idx], id[idx+len(constants.PrincipalSeparator):]
}

func typedResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, qerrors.ErrInvalidState
	}
	return typed, nil
}
