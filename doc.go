// Package kdcauth provides a Kerberos-style authentication core for a
// distributed home-automation platform: mutual authentication between
// users, client devices, and service servers via a three-party
// ticket-granting protocol with symmetric session keys.
//
// # Quick Start
//
// A server wires a credential store, a handler, and a controller, then
// drives it through its lifecycle:
//
//	import "github.com/pzverkov/kdcauth/pkg/controller"
//
//	ctrl, _ := controller.New(controller.Config{CredentialsDir: "./credentials"})
//	ctrl.Init()
//	ctrl.Activate() // prints the bootstrap administrator password once
//
//	tgt, _ := ctrl.RequestTicketGrantingTicket(ctx, "alice@laptop")
//
// # Package Structure
//
// The library is organized into several packages:
//
//   - pkg/crypto: symmetric/public-key envelope primitives and password hashing
//   - pkg/protocol: wire message definitions and tagged-record encoding
//   - pkg/store: persistent credential store
//   - pkg/handler: KDC/TGS/SS request handling and ticket validation
//   - pkg/controller: stateful façade exposing the remote-callable operations
//   - pkg/workerpool: the controller's task pool and observer hooks
//   - pkg/logging: structured logging
//   - pkg/metrics: metrics collection, Prometheus export, tracing, health checks
//   - internal/errors: tagged error kinds shared across the core
//
// # Security Properties
//
//   - Mutual authentication of user, client device, and service server
//   - Session keys never persisted; rotated per ticket-granting round trip
//   - Authenticator timestamps bound to a clock-skew window
//   - Administrator password cleared from the store exactly once, at
//     bootstrap completion
//
// # Testing
//
// Package-level tests exercise each module against its own public API;
// pkg/controller's tests additionally exercise the full bootstrap →
// register → KDC → TGS → SS flow end to end.
package kdcauth
