package controller

// State is the lifecycle state of a Controller, stored as an atomic.Int32
// so State() can be read without holding the controller's secrets mutex.
type State int32

const (
	// StateUninitialized is the state of a freshly constructed Controller.
	StateUninitialized State = iota

	// StateInitialized indicates the credential store has been loaded and
	// the long-lived ticket-granting/service-server secrets exist.
	StateInitialized

	// StateActive indicates the service-server key pair exists and the
	// controller is ready to service remote-callable operations.
	StateActive

	// StateInactive indicates the controller has been shut down.
	StateInactive
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitialized:
		return "Initialized"
	case StateActive:
		return "Active"
	case StateInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}
