// Package main provides the entry point for the csv2json4logs converter.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MadKrok/essais-python/pkg/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes configuration problems from row and I/O failures.
func exitCode(err error) int {
	var cfgErr *schema.ConfigError
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
