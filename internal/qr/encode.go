// Package qr turns text into QR code raster images and reads them back.
//
// Symbol construction (version selection, Reed-Solomon coding, masking) is
// delegated to github.com/skip2/go-qrcode at the highest error correction
// level. This package only owns rasterization, so module size and quiet zone
// width are fully configurable.
package qr

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// Palette indices of the rendered image
const (
	IndexBackground = 0
	IndexForeground = 1
)

// Defaults for Options
const (
	DefaultModuleSize = 10
	DefaultBorder     = 4
)

var (
	ErrEmptyContent      = errors.New("qr: content is empty")
	ErrInvalidModuleSize = errors.New("qr: module size must be at least 1")
	ErrInvalidBorder     = errors.New("qr: border must not be negative")
)

// Palette is the two colour palette used for every image: white background, black modules
var Palette = color.Palette{
	color.White,
	color.Black,
}

// Options controls rasterization
type Options struct {
	// ModuleSize is the edge length of a single module in pixels
	ModuleSize int

	// Border is the quiet zone width in modules
	Border int
}

// DefaultOptions returns a module size of 10 pixels and a 4 module border
func DefaultOptions() Options {
	return Options{
		ModuleSize: DefaultModuleSize,
		Border:     DefaultBorder,
	}
}

func (o Options) validate() error {
	if o.ModuleSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidModuleSize, o.ModuleSize)
	}
	if o.Border < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBorder, o.Border)
	}
	return nil
}

// Code is an encoded and rasterized QR symbol
type Code struct {
	Content    string
	Version    int
	Modules    int // symbol width in modules, quiet zone excluded
	ModuleSize int
	Border     int
	Image      *image.Paletted
}

// Size returns the width (and height) of the image in pixels
func (c *Code) Size() int {
	return (c.Modules + 2*c.Border) * c.ModuleSize
}

// Encode builds a QR symbol for content with the highest error correction
// level (~30% recovery) and renders it with black modules on white.
func Encode(content string, opts Options) (*Code, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	q, err := qrcode.New(content, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	// The quiet zone is drawn by render so its width can be configured
	q.DisableBorder = true

	bitmap := q.Bitmap()

	return &Code{
		Content:    content,
		Version:    q.VersionNumber,
		Modules:    len(bitmap),
		ModuleSize: opts.ModuleSize,
		Border:     opts.Border,
		Image:      render(bitmap, opts),
	}, nil
}

// render scales every dark module to a ModuleSize square and offsets the
// symbol by Border modules on each side
func render(bitmap [][]bool, opts Options) *image.Paletted {
	scale := opts.ModuleSize
	dim := (len(bitmap) + 2*opts.Border) * scale

	img := image.NewPaletted(image.Rect(0, 0, dim, dim), Palette)
	// NewPaletted zeroes Pix, which is IndexBackground

	for r, row := range bitmap {
		for c, dark := range row {
			if !dark {
				continue
			}
			startX := (c + opts.Border) * scale
			startY := (r + opts.Border) * scale
			for y := startY; y < startY+scale; y++ {
				line := img.Pix[y*img.Stride+startX : y*img.Stride+startX+scale]
				for x := range line {
					line[x] = IndexForeground
				}
			}
		}
	}

	return img
}
