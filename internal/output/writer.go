// Package output persists generated images under a configurable directory.
package output

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File naming
const (
	FilePrefix      = "qr_"
	FileExtension   = ".png"
	TimestampLayout = "20060102-150405"
	SuffixLength    = 8
)

// File permissions
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// Writer saves PNG images into a single directory
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir; the directory is created lazily
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the directory images are written to
func (w *Writer) Dir() string {
	return w.dir
}

// EnsureDir creates the output directory and any missing parents.
// An existing directory is not an error.
func (w *Writer) EnsureDir() error {
	if err := os.MkdirAll(w.dir, DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.dir, err)
	}
	return nil
}

// Filename returns qr_<YYYYMMDD-HHMMSS>.png for t, with "-<suffix>" inserted
// before the extension when suffix is not empty
func Filename(t time.Time, suffix string) string {
	var b strings.Builder
	b.WriteString(FilePrefix)
	b.WriteString(t.Format(TimestampLayout))
	if suffix != "" {
		b.WriteByte('-')
		b.WriteString(suffix)
	}
	b.WriteString(FileExtension)
	return b.String()
}

// RandomSuffix returns a short random hex string for collision free filenames
func RandomSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:SuffixLength]
}

// Save encodes img as PNG and writes it to name inside the output directory,
// creating the directory first. The image is fully encoded before the file is
// created, so a failed encode never leaves a partial file behind.
func (w *Writer) Save(img image.Image, name string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	if err := w.EnsureDir(); err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
