package controller

import "time"

// Observer receives controller lifecycle and operation events, for
// metrics/tracing hooks. Implementations should be lightweight; callbacks
// run on the hot path of every remote-callable operation.
type Observer interface {
	// OnStateChange is called after a successful state transition.
	OnStateChange(from, to State)

	// OnOperation is called when a remote-callable operation completes,
	// successfully or not.
	OnOperation(op string, duration time.Duration, err error)

	// OnBootstrapPasswordGenerated is called once, when Activate generates
	// the initial administrator password.
	OnBootstrapPasswordGenerated()
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

var _ Observer = (*NoOpObserver)(nil)

// OnStateChange implements Observer.
func (NoOpObserver) OnStateChange(State, State) {}

// OnOperation implements Observer.
func (NoOpObserver) OnOperation(string, time.Duration, error) {}

// OnBootstrapPasswordGenerated implements Observer.
func (NoOpObserver) OnBootstrapPasswordGenerated() {}
