package config

import (
	"errors"
	"fmt"

	"github.com/kula-app/qrgen/internal/qr"
)

// Defaults used when no flag overrides them
const (
	// DefaultURL is encoded when the user submits an empty line
	DefaultURL = "https://www.bioxsystems.com"

	// DefaultOutputDir is relative to the working directory
	DefaultOutputDir = "output"
)

// ErrEmptyOutputDir is returned by Validate when no output directory is set.
// Size and border errors are the qr package sentinels.
var ErrEmptyOutputDir = errors.New("output directory must not be empty")

// Config represents the generator configuration
type Config struct {
	// DefaultURL is used when the user input is empty
	DefaultURL string `json:"defaultUrl"`

	// OutputDir is the directory generated images are written to (created on demand)
	OutputDir string `json:"outputDir" validate:"required"`

	// ModuleSize is the edge length of one QR module in pixels
	ModuleSize int `json:"moduleSize" validate:"required,min=1"`

	// Border is the width of the white quiet zone, measured in modules
	Border int `json:"border" validate:"min=0"`

	// Preview opens the saved image in the system viewer (best-effort)
	Preview bool `json:"preview"`

	// Verify decodes the written image and compares it with the input
	Verify bool `json:"verify"`

	// UniqueNames appends a random suffix so runs within the same second don't overwrite each other
	UniqueNames bool `json:"uniqueNames"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultURL:  DefaultURL,
		OutputDir:   DefaultOutputDir,
		ModuleSize:  qr.DefaultModuleSize,
		Border:      qr.DefaultBorder,
		Preview:     true,
		Verify:      false,
		UniqueNames: false,
	}
}

// Validate checks the configuration for values the encoder or writer can't work with
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}
	if c.ModuleSize < 1 {
		return fmt.Errorf("%w: got %d", qr.ErrInvalidModuleSize, c.ModuleSize)
	}
	if c.Border < 0 {
		return fmt.Errorf("%w: got %d", qr.ErrInvalidBorder, c.Border)
	}
	return nil
}
