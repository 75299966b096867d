package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kula-app/qrgen/internal/config"
	"github.com/kula-app/qrgen/internal/generator"
	"github.com/kula-app/qrgen/internal/logging"
	"github.com/kula-app/qrgen/internal/preview"
)

// User facing messages
const (
	banner         = "=== QR Code Generator ==="
	promptFormat   = "Enter a URL [%s]: "
	invalidMessage = "Error: Please enter a valid http(s) URL, e.g., https://example.com"
	savedFormat    = "Saved QR code to: %s\n"
)

// The run function is like the main function, except that it takes in operating system fundamentals as arguments, and returns an error.
//
// If the run function finishes without an error, it means a QR code was written.
// If the run function returns an error wrapping generator.ErrInvalidURL, the input was rejected and nothing was written.
//
// The previewer is only used when previews are enabled; pass preview.Noop{} or a fake in tests.
//
// The logic of the run function must stay isolated so it can be tested in parallel.
func run(ctx context.Context, args []string, _ func(key string) string, stdin io.Reader, stdout, stderr io.Writer, previewer preview.Previewer) error {
	cfg := config.DefaultConfig()

	// Parse command-line flags
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [flags] [url]\n\n", flags.Name())
		flags.PrintDefaults()
	}
	flags.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Directory the PNG is written to (created if missing)")
	flags.IntVar(&cfg.ModuleSize, "module-size", cfg.ModuleSize, "Pixels per QR module")
	flags.IntVar(&cfg.Border, "border", cfg.Border, "Quiet zone width in modules")
	noPreview := flags.Bool("no-preview", false, "Do not open the image in the system viewer")
	flags.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Decode the written image and check it matches the URL")
	flags.BoolVar(&cfg.UniqueNames, "unique", cfg.UniqueNames, "Append a random suffix to the filename")
	verbose := flags.Bool("verbose", false, "Enable debug logging on stderr")
	if err := flags.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("expected at most one URL argument, got %d", flags.NArg())
	}
	cfg.Preview = !*noPreview

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Cancel on Ctrl+C. The prompt and the generator both check ctx, so an
	// interrupted run returns before anything is written.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(logging.NewTerminalHandler(stderr, level))

	logger.Debug("configuration loaded",
		"output_dir", cfg.OutputDir,
		"module_size", cfg.ModuleSize,
		"border", cfg.Border,
		"preview", cfg.Preview,
		"verify", cfg.Verify,
		"unique_names", cfg.UniqueNames)

	fmt.Fprintln(stdout, banner)

	// A URL argument skips the prompt; blank input falls back to the default either way
	var input string
	if flags.NArg() == 0 {
		var err error
		input, err = prompt(ctx, stdin, stdout, cfg.DefaultURL)
		if err != nil {
			return err
		}
	} else if input = strings.TrimSpace(flags.Arg(0)); input == "" {
		input = cfg.DefaultURL
	}

	if !cfg.Preview || previewer == nil {
		previewer = preview.Noop{}
	}
	gen := generator.NewGenerator(logger, cfg, previewer)

	res, err := gen.Generate(ctx, input)
	if err != nil {
		if errors.Is(err, generator.ErrInvalidURL) {
			fmt.Fprintln(stdout, invalidMessage)
		}
		return err
	}

	fmt.Fprintf(stdout, savedFormat, res.Path)
	return nil
}

type readResult struct {
	line string
	err  error
}

// prompt asks for a URL on stdout and reads one line from stdin.
// An empty line or EOF yields defaultURL; a cancelled ctx aborts the wait.
func prompt(ctx context.Context, stdin io.Reader, stdout io.Writer, defaultURL string) (string, error) {
	fmt.Fprintf(stdout, promptFormat, defaultURL)

	// The read can't be interrupted, so it runs on its own goroutine
	lines := make(chan readResult, 1)
	go func() {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		lines <- readResult{line: line, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(stdout)
		return "", fmt.Errorf("prompt aborted: %w", ctx.Err())
	case res = <-lines:
	}
	if res.err != nil && !errors.Is(res.err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", res.err)
	}

	input := strings.TrimSpace(res.line)
	if input == "" {
		return defaultURL, nil
	}
	return input, nil
}
