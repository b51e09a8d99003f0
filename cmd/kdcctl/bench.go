package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pzverkov/kdcauth/pkg/controller"
	"github.com/pzverkov/kdcauth/pkg/crypto"
	"github.com/pzverkov/kdcauth/pkg/protocol"
	"github.com/pzverkov/kdcauth/pkg/workerpool"
)

func runBench(rounds, workers int) {
	fmt.Println("====================================================")
	fmt.Println(" kdcauth bench: ticket-issuance throughput")
	fmt.Println("====================================================")
	fmt.Println()

	dir, err := os.MkdirTemp("", "kdcauth-bench-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	pool, err := workerpool.New(workerpool.Config{Workers: workers, QueueSize: rounds})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to construct worker pool: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = pool.Close() }()

	ctrl, err := controller.New(controller.Config{CredentialsDir: dir, Pool: pool})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to construct controller: %v\n", err)
		os.Exit(1)
	}
	if err := ctrl.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Init failed: %v\n", err)
		os.Exit(1)
	}
	if err := ctrl.Activate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Activate failed: %v\n", err)
		os.Exit(1)
	}

	password, _ := ctrl.GetInitialPassword()
	ctx := context.Background()

	const principal = "bench-admin"
	userKey := crypto.MustSecureRandomBytes(16)
	sealedNew, err := bootstrapCredentials(password, userKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to seal bootstrap credentials: %v\n", err)
		os.Exit(1)
	}
	if _, err := ctrl.Register(ctx, &protocol.LoginCredentialsChange{
		ID:             principal,
		NewCredentials: sealedNew,
		Admin:          true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bootstrap register failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Workers: %d, rounds: %d\n\n", workers, rounds)

	fmt.Println("Benchmarking RequestTicketGrantingTicket...")
	tgtStart := time.Now()
	var tgtFailures int
	for i := 0; i < rounds; i++ {
		if _, err := ctrl.RequestTicketGrantingTicket(ctx, principal); err != nil {
			tgtFailures++
		}
	}
	tgtElapsed := time.Since(tgtStart)
	reportRate("RequestTicketGrantingTicket", rounds, tgtFailures, tgtElapsed)

	fmt.Println()
	fmt.Println("Benchmarking full TGT -> TGS -> SS round trip...")
	fullStart := time.Now()
	var fullFailures int
	for i := 0; i < rounds; i++ {
		if err := fullRoundTrip(ctrl, ctx, principal, userKey); err != nil {
			fullFailures++
		}
	}
	fullElapsed := time.Since(fullStart)
	reportRate("full round trip", rounds, fullFailures, fullElapsed)

	stats := pool.Stats()
	fmt.Println()
	fmt.Printf("Worker pool stats: submitted=%d completed=%d failed=%d avg_queue_wait=%.2fms avg_run=%.2fms\n",
		stats.SubmittedTotal, stats.CompletedTotal, stats.FailedTotal, stats.AvgQueueWaitMs, stats.AvgRunMs)
}

func fullRoundTrip(ctrl *controller.Controller, ctx context.Context, principal string, userKey []byte) error {
	tgtResp, err := ctrl.RequestTicketGrantingTicket(ctx, principal)
	if err != nil {
		return err
	}
	tgtSessionKey, err := unwrapSymmetricSessionKey(userKey, tgtResp.SessionKey)
	if err != nil {
		return err
	}
	tgtAuth, err := sealAuthenticatorUnder(tgtSessionKey, principal, time.Now())
	if err != nil {
		return err
	}
	cstResp, err := ctrl.RequestClientServerTicket(ctx, &protocol.TicketAuthenticatorWrapper{
		Ticket:        tgtResp.Ticket,
		Authenticator: tgtAuth,
	})
	if err != nil {
		return err
	}
	cstSessionKey, err := unwrapSymmetricSessionKey(tgtSessionKey, cstResp.SessionKey)
	if err != nil {
		return err
	}
	cstAuth, err := sealAuthenticatorUnder(cstSessionKey, principal, time.Now())
	if err != nil {
		return err
	}
	_, err = ctrl.ValidateClientServerTicket(ctx, &protocol.TicketAuthenticatorWrapper{
		Ticket:        cstResp.Ticket,
		Authenticator: cstAuth,
	})
	return err
}

func reportRate(label string, rounds, failures int, elapsed time.Duration) {
	perSec := float64(rounds) / elapsed.Seconds()
	fmt.Printf("  %s: %d rounds in %s (%.0f/s), %d failures\n", label, rounds, elapsed, perSec, failures)
}
