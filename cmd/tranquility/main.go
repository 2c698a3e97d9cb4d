// Command tranquility runs the Tranquility assistant: an HTTP backend, a
// terminal conversation, and a batch analyzer for saved messages and voice
// notes.
//
// Usage:
//
//	GEMINI_API_KEY=... tranquility serve   [--config tranquility.yaml]
//	GEMINI_API_KEY=... tranquility chat    [--config tranquility.yaml]
//	GEMINI_API_KEY=... tranquility analyze 'recordings/**/*.webm'
//
// Every setting can be overridden with a TRANQUILITY_ environment variable,
// e.g. TRANQUILITY_SERVER_PORT=8080.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tranquility: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
