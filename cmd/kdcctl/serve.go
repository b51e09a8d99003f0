package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pzverkov/kdcauth/pkg/controller"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/logging"
	"github.com/pzverkov/kdcauth/pkg/metrics"
	"github.com/pzverkov/kdcauth/pkg/protocol"
)

func runServe(dir, principal string, verbose bool, obsAddr, logLevel, logFormat, tracing string) {
	fmt.Println("====================================================")
	fmt.Println(" kdcauth demo: bootstrap -> register -> KDC -> TGS -> SS")
	fmt.Println("====================================================")
	fmt.Println()

	if dir == "" {
		tmp, err := os.MkdirTemp("", "kdcauth-demo-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		dir = tmp
	}
	fmt.Printf("Credential store: %s\n", dir)

	logger := logging.NewLogger(
		logging.WithLevel(logging.ParseLevel(logLevel)),
		logging.WithFormat(parseLogFormat(logFormat)),
		logging.WithName("kdcctl"),
	)
	logging.SetLogger(logger)
	setupTracing(tracing)

	collector := metrics.NewCollector(nil)
	observer := metrics.NewControllerObserver(metrics.ControllerObserverConfig{
		Collector: collector,
		Logger:    logger,
	})

	var obsServer *metrics.Server
	if obsAddr != "" {
		obsServer = metrics.NewServer(metrics.ServerConfig{
			Collector:        collector,
			Version:          getVersion(),
			Namespace:        "kdcauth",
			EnablePrometheus: true,
			EnableHealth:     true,
		})
		go func() {
			fmt.Printf("Observability server listening on %s (/metrics, /health, /healthz, /readyz)\n", obsAddr)
			if err := obsServer.ListenAndServe(obsAddr); err != nil && err != http.ErrServerClosed {
				logger.Error("observability server stopped", logging.Fields{"error": err.Error()})
			}
		}()
	}

	ctrl, err := controller.New(controller.Config{CredentialsDir: dir, Observer: observer})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to construct controller: %v\n", err)
		os.Exit(1)
	}

	step(verbose, "Init", "loading/creating the credential store and the TGS/SS secret keys")
	if err := ctrl.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Init failed: %v\n", err)
		os.Exit(1)
	}

	step(verbose, "Activate", "provisioning the service-server key pair and the bootstrap password")
	if err := ctrl.Activate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Activate failed: %v\n", err)
		os.Exit(1)
	}

	password, ok := ctrl.GetInitialPassword()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: expected a fresh bootstrap password on a new store")
		os.Exit(1)
	}
	fmt.Printf("Bootstrap administrator password: %s\n", password)

	ctx := context.Background()
	user, _ := splitPrincipalDemo(principal)
	if user == "" {
		fmt.Fprintln(os.Stderr, "Error: --principal must include a user component, e.g. alice@laptop")
		os.Exit(1)
	}

	step(verbose, "Register (bootstrap)", fmt.Sprintf("registering %q as the administrator", user))
	userKey := crypto.MustSecureRandomBytes(16)
	sealedNew, err := bootstrapCredentials(password, userKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seal bootstrap credentials: %v\n", err)
		os.Exit(1)
	}
	if _, err := ctrl.Register(ctx, &protocol.LoginCredentialsChange{
		ID:             user,
		NewCredentials: sealedNew,
		Admin:          true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bootstrap register failed: %v\n", err)
		os.Exit(1)
	}

	step(verbose, "KDC", fmt.Sprintf("requesting a ticket-granting ticket for %q", principal))
	tgtResp, err := ctrl.RequestTicketGrantingTicket(ctx, principal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: RequestTicketGrantingTicket failed: %v\n", err)
		os.Exit(1)
	}
	tgtSessionKey, err := unwrapSymmetricSessionKey(userKey, tgtResp.SessionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to unwrap TGT session key: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("   sealed TGT: %d bytes, session key: %d bytes\n", len(tgtResp.Ticket), len(tgtSessionKey))
	}

	step(verbose, "TGS", fmt.Sprintf("exchanging the ticket-granting ticket for a client-server ticket"))
	tgtAuth, err := sealAuthenticatorUnder(tgtSessionKey, principal, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seal TGT authenticator: %v\n", err)
		os.Exit(1)
	}
	cstResp, err := ctrl.RequestClientServerTicket(ctx, &protocol.TicketAuthenticatorWrapper{
		Ticket:        tgtResp.Ticket,
		Authenticator: tgtAuth,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: RequestClientServerTicket failed: %v\n", err)
		os.Exit(1)
	}
	cstSessionKey, err := unwrapSymmetricSessionKey(tgtSessionKey, cstResp.SessionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to unwrap CST session key: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Printf("   sealed CST: %d bytes, session key: %d bytes\n", len(cstResp.Ticket), len(cstSessionKey))
	}

	step(verbose, "SS", "validating the client-server ticket and authenticator")
	cstAuth, err := sealAuthenticatorUnder(cstSessionKey, principal, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seal CST authenticator: %v\n", err)
		os.Exit(1)
	}
	refreshed, err := ctrl.ValidateClientServerTicket(ctx, &protocol.TicketAuthenticatorWrapper{
		Ticket:        cstResp.Ticket,
		Authenticator: cstAuth,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: ValidateClientServerTicket failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Demo loop completed: %q authenticated end to end.\n", principal)
	if verbose {
		fmt.Printf("  refreshed ticket: %d bytes, refreshed authenticator: %d bytes\n",
			len(refreshed.Ticket), len(refreshed.Authenticator))
	}

	if obsServer != nil {
		fmt.Println("Press Ctrl+C to stop the observability server.")
		select {}
	}
}

func step(verbose bool, name, detail string) {
	if verbose {
		fmt.Printf("-> %s: %s\n", name, detail)
	}
}

func splitPrincipalDemo(id string) (user, client string) {
	parts := strings.SplitN(id, "@", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return id, ""
}

func parseLogFormat(s string) logging.Format {
	if strings.EqualFold(s, "json") {
		return logging.FormatJSON
	}
	return logging.FormatConsole
}

func setupTracing(mode string) {
	switch strings.ToLower(mode) {
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		metrics.SetTracer(metrics.NewOTelTracer("kdcauth"))
	default:
		metrics.SetTracer(metrics.NoOpTracer{})
	}
}
