// Package preview opens generated images in whatever viewer the host provides.
package preview

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
	OSFreeBSD = "freebsd"
	OSOpenBSD = "openbsd"
	OSNetBSD  = "netbsd"
)

// Command constants
const (
	OpenCommand    = "open"
	XDGOpenCommand = "xdg-open"
	CmdCommand     = "cmd"
	StartCommand   = "start"
	WindowsCmdFlag = "/c"
)

// ErrUnavailable is returned when no viewer can be launched in this environment
var ErrUnavailable = errors.New("preview: no image viewer available")

// Previewer displays an image file to the user
type Previewer interface {
	Open(ctx context.Context, path string) error
}

// Func adapts a plain function to the Previewer interface
type Func func(ctx context.Context, path string) error

// Open calls f(ctx, path)
func (f Func) Open(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Noop is a Previewer that does nothing
type Noop struct{}

// Open implements Previewer
func (Noop) Open(context.Context, string) error { return nil }

// System opens files with the default application of the host OS
type System struct {
	goos     string
	lookPath func(file string) (string, error)
	start    func(cmd *exec.Cmd) error
}

// NewSystem returns a previewer for the running operating system
func NewSystem() *System {
	return &System{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Open launches the default viewer for path. The viewer is started but not
// waited for, so a long-lived viewer window does not block the caller.
func (s *System) Open(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	name, args, err := s.command(absPath)
	if err != nil {
		return err
	}

	bin, err := s.lookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s not found: %v", ErrUnavailable, name, err)
	}

	// Not bound to ctx: the viewer must outlive this process
	cmd := exec.Command(bin, args...)
	if err := s.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// command returns the launcher and its arguments for the configured OS
func (s *System) command(path string) (string, []string, error) {
	switch s.goos {
	case OSDarwin:
		return OpenCommand, []string{path}, nil
	case OSWindows:
		// The empty argument is the window title consumed by start
		return CmdCommand, []string{WindowsCmdFlag, StartCommand, "", path}, nil
	case OSLinux, OSFreeBSD, OSOpenBSD, OSNetBSD:
		return XDGOpenCommand, []string{path}, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported operating system: %s", ErrUnavailable, s.goos)
	}
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
