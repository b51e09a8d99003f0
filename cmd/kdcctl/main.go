package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/pzverkov/kdcauth/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serveCommand()
	case "bench":
		benchCommand()
	case "example":
		exampleCommand()
	case "version":
		fmt.Printf("kdcctl version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`kdcctl - Ticket-Granting Authentication Core Demo & Benchmark Tool

USAGE:
    kdcctl <command> [options]

COMMANDS:
    serve     Run a demo KDC/TGS/SS loop in-process
    bench     Run ticket-issuance throughput benchmarks
    example   Show annotated example usage with explanations
    version   Print version information
    help      Show this help message

Run 'kdcctl <command> --help' for more information on a command.

EXAMPLES:
    # Run the demo loop against a fresh credential store
    kdcctl serve --dir /tmp/kdcauth-demo

    # Run the demo loop with an observability server
    kdcctl serve --dir /tmp/kdcauth-demo --obs-addr :9090

    # Benchmark ticket issuance
    kdcctl bench --rounds 1000

    # Show annotated examples
    kdcctl example

PROJECT:
    kdcauth - Kerberos-style authentication core for a distributed
    home-automation platform.

    Three-party ticket-granting protocol: KDC issues ticket-granting
    tickets, the TGS exchanges them for client-server tickets, and the SS
    validates client-server tickets and authenticators against a
    clock-skew window.`)
}

func serveCommand() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dir := fs.String("dir", "", "Credential store directory (temporary directory used if empty)")
	principal := fs.String("principal", "alice@laptop", "Principal to bootstrap, register, and authenticate as")
	verbose := fs.Bool("verbose", false, "Verbose output")
	obsAddr := fs.String("obs-addr", "", "Observability server address. Empty disables")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "console", "Log format: console or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")

	fs.Usage = func() {
		fmt.Println(`USAGE: kdcctl serve [options]

Run an in-process bootstrap -> register -> KDC -> TGS -> SS demo loop
against a real controller and credential store.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Run against a throwaway store
    kdcctl serve

    # Run against a persistent store with verbose narration
    kdcctl serve --dir ./creds --verbose

    # Expose /metrics and /health while running
    kdcctl serve --obs-addr :9090`)
	}

	_ = fs.Parse(os.Args[2:])

	runServe(*dir, *principal, *verbose, *obsAddr, *logLevel, *logFormat, *tracing)
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	rounds := fs.Int("rounds", 1000, "Number of ticket-issuance rounds to benchmark")
	workers := fs.Int("workers", 4, "Controller worker pool size")

	fs.Usage = func() {
		fmt.Println(`USAGE: kdcctl bench [options]

Benchmark ticket-granting-ticket and client-server-ticket issuance
throughput against a real controller.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Benchmark 1000 rounds of TGT+CST+validation
    kdcctl bench --rounds 1000

    # Benchmark with a larger worker pool
    kdcctl bench --rounds 5000 --workers 16`)
	}

	_ = fs.Parse(os.Args[2:])

	runBench(*rounds, *workers)
}

func exampleCommand() {
	if len(os.Args) > 2 && (os.Args[2] == "--help" || os.Args[2] == "-h") {
		fmt.Println(`USAGE: kdcctl example

Display an annotated walkthrough of the ticket-granting protocol, with
narration of every wire record exchanged between a client and the
controller.`)
		return
	}

	runExample()
}
