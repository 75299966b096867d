package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kula-app/qrgen/internal/generator"
	"github.com/kula-app/qrgen/internal/preview"
)

func main() {
	// Entry point: create a root context and run the application.
	ctx := context.Background()

	// Pass in the command line arguments, environment, and standard streams to
	// the run function so it can be tested without touching the real process.
	if err := run(ctx, os.Args, os.Getenv, os.Stdin, os.Stdout, os.Stderr, preview.NewSystem()); err != nil {
		// Invalid input was already reported on stdout
		if !errors.Is(err, generator.ErrInvalidURL) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}
