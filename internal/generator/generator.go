// Package generator runs the URL to QR code pipeline: validate, encode,
// save, optionally verify, then preview.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kula-app/qrgen/internal/config"
	"github.com/kula-app/qrgen/internal/output"
	"github.com/kula-app/qrgen/internal/preview"
	"github.com/kula-app/qrgen/internal/qr"
	"github.com/kula-app/qrgen/internal/urlcheck"
)

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL
	ErrInvalidURL = errors.New("invalid URL: expected an absolute http(s) URL")

	// ErrVerification is returned when the written image does not decode to the input
	ErrVerification = errors.New("verification failed")
)

// Result describes a generated QR code
type Result struct {
	URL     string
	Path    string
	Version int
	Modules int
	Pixels  int
}

// Generator produces QR code images for URLs
type Generator struct {
	logger    *slog.Logger
	config    *config.Config
	writer    *output.Writer
	previewer preview.Previewer
	now       func() time.Time
	suffix    func() string
}

// Option customizes a Generator
type Option func(*Generator)

// WithClock overrides the time source used for filenames
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithSuffix overrides the random filename suffix used when UniqueNames is set
func WithSuffix(suffix func() string) Option {
	return func(g *Generator) {
		g.suffix = suffix
	}
}

// NewGenerator creates a new generator writing to cfg.OutputDir
func NewGenerator(logger *slog.Logger, cfg *config.Config, previewer preview.Previewer, opts ...Option) *Generator {
	if previewer == nil {
		previewer = preview.Noop{}
	}

	g := &Generator{
		logger:    logger,
		config:    cfg,
		writer:    output.NewWriter(cfg.OutputDir),
		previewer: previewer,
		now:       time.Now,
		suffix:    output.RandomSuffix,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate encodes rawURL and writes it as a PNG into the output directory.
//
// Invalid input returns ErrInvalidURL before anything touches the file system.
// Preview failures are logged and otherwise ignored.
func (g *Generator) Generate(ctx context.Context, rawURL string) (*Result, error) {
	startTime := time.Now()
	url := strings.TrimSpace(rawURL)

	// 1. Validate
	if !urlcheck.IsValid(url) {
		g.logger.Debug("rejected input", "input", rawURL)
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}

	// 2. Encode
	code, err := qr.Encode(url, qr.Options{
		ModuleSize: g.config.ModuleSize,
		Border:     g.config.Border,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	g.logger.Debug("qr code encoded",
		"version", code.Version,
		"modules", code.Modules,
		"module_size", code.ModuleSize,
		"border", code.Border,
		"pixels", code.Size())

	// 3. Name the file
	suffix := ""
	if g.config.UniqueNames {
		suffix = g.suffix()
	}
	name := output.Filename(g.now(), suffix)

	// 4. Save, unless the run was interrupted meanwhile
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generation aborted: %w", err)
	}
	path, err := g.writer.Save(code.Image, name)
	if err != nil {
		return nil, fmt.Errorf("failed to save QR code: %w", err)
	}

	g.logger.Info("qr code saved", "path", path, "url", url)

	// 5. Verify
	if g.config.Verify {
		if err := g.verify(path, url); err != nil {
			return nil, err
		}
	}

	// 6. Preview (best-effort)
	if g.config.Preview {
		if err := g.previewer.Open(ctx, path); err != nil {
			g.logger.Debug("preview unavailable", "path", path, "error", err)
		}
	}

	g.logger.Debug("generation completed", "duration", time.Since(startTime))

	return &Result{
		URL:     url,
		Path:    path,
		Version: code.Version,
		Modules: code.Modules,
		Pixels:  code.Size(),
	}, nil
}

// verify decodes the file at path and compares the text with want
func (g *Generator) verify(path, want string) error {
	got, err := qr.DecodeFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrVerification, path, err)
	}
	if got != want {
		return fmt.Errorf("%w: %s decodes to %q, want %q", ErrVerification, path, got, want)
	}

	g.logger.Debug("qr code verified", "path", path)
	return nil
}
