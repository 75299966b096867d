package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kula-app/qrgen/internal/generator"
	"github.com/kula-app/qrgen/internal/preview"
	"github.com/kula-app/qrgen/internal/qr"
)

var savedLine = regexp.MustCompile(`Saved QR code to: (\S+qr_\d{8}-\d{6}(-[0-9a-f]{8})?\.png)\n$`)

func noEnv(string) string { return "" }

// runCLI runs the command with stdin and returns stdout, stderr and the error
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	argv := append([]string{"qrgen"}, args...)
	err := run(context.Background(), argv, noEnv, strings.NewReader(stdin), &stdout, &stderr, preview.Noop{})
	return stdout.String(), stderr.String(), err
}

// savedPath extracts the written path from stdout
func savedPath(t *testing.T, stdout string) string {
	t.Helper()

	m := savedLine.FindStringSubmatch(stdout)
	require.NotNil(t, m, "stdout does not end with the saved line: %q", stdout)
	return m[1]
}

func TestRun_EmptyInputUsesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "\n", "-output", dir, "-no-preview")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "=== QR Code Generator ===\nEnter a URL [https://www.bioxsystems.com]: "), stdout)

	path := savedPath(t, stdout)
	assert.Equal(t, dir, filepath.Dir(path))

	decoded, err := qr.DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.bioxsystems.com", decoded)
}

func TestRun_EOFUsesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "", "-output", dir, "-no-preview")
	require.NoError(t, err)

	decoded, err := qr.DecodeFile(savedPath(t, stdout))
	require.NoError(t, err)
	assert.Equal(t, "https://www.bioxsystems.com", decoded)
}

func TestRun_InvalidURL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "ftp://example.com\n", "-output", dir, "-no-preview")
	require.ErrorIs(t, err, generator.ErrInvalidURL)

	assert.True(t, strings.HasSuffix(stdout, "Error: Please enter a valid http(s) URL, e.g., https://example.com\n"), stdout)
	assert.NotContains(t, stdout, "Saved QR code")

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no directory may be created for invalid input")
}

func TestRun_QueryStringIsPreserved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "  https://example.com/path?x=1  \n", "-output", dir, "-no-preview")
	require.NoError(t, err)

	decoded, err := qr.DecodeFile(savedPath(t, stdout))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path?x=1", decoded)
}

func TestRun_URLArgumentSkipsPrompt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "https://ignored.example\n", "-output", dir, "-no-preview", "-verify", "https://example.com/arg")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Enter a URL")

	decoded, err := qr.DecodeFile(savedPath(t, stdout))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/arg", decoded)
}

func TestRun_UniqueAndSizing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "", "-output", dir, "-no-preview", "-unique", "-module-size", "4", "-border", "2", "https://example.com")
	require.NoError(t, err)

	path := savedPath(t, stdout)
	assert.Regexp(t, `qr_\d{8}-\d{6}-[0-9a-f]{8}\.png$`, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	// "https://example.com" is a version 3 symbol of 29 modules
	assert.Equal(t, (29+2*2)*4, cfg.Width)
	assert.Equal(t, (29+2*2)*4, cfg.Height)
}

func TestRun_PreviewFailureIsNotFatal(t *testing.T) {
	var opened string
	p := preview.Func(func(_ context.Context, path string) error {
		opened = path
		return preview.ErrUnavailable
	})

	dir := filepath.Join(t.TempDir(), "output")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"qrgen", "-output", dir}, noEnv, strings.NewReader("https://example.com\n"), &stdout, &stderr, p)
	require.NoError(t, err)

	path := savedPath(t, stdout.String())
	assert.Equal(t, path, opened)
	assert.FileExists(t, path)
}

func TestRun_NoPreviewFlagSkipsPreviewer(t *testing.T) {
	opened := false
	p := preview.Func(func(context.Context, string) error {
		opened = true
		return nil
	})

	dir := filepath.Join(t.TempDir(), "output")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"qrgen", "-output", dir, "-no-preview", "https://example.com"}, noEnv, strings.NewReader(""), &stdout, &stderr, p)
	require.NoError(t, err)
	assert.False(t, opened)
}

func TestRun_CancelDuringPromptWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	// stdin stays open, so the prompt blocks until ctx is cancelled
	stdinR, stdinW := io.Pipe()
	t.Cleanup(func() { stdinW.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"qrgen", "-output", dir, "-no-preview"}, noEnv, stdinR, &stdout, &stderr, preview.Noop{})
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run still blocked on the prompt after cancellation")
	}

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, stdout.String(), "Enter a URL")
	assert.NotContains(t, stdout.String(), "Saved QR code")

	// A late Enter must not resume the run
	_, _ = stdinW.Write([]byte("\n"))

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "no directory may be created after cancellation")
}

func TestRun_BlankArgumentUsesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, _, err := runCLI(t, "", "-output", dir, "-no-preview", "   ")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Enter a URL")

	decoded, err := qr.DecodeFile(savedPath(t, stdout))
	require.NoError(t, err)
	assert.Equal(t, "https://www.bioxsystems.com", decoded)
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "zero module size", args: []string{"-module-size", "0"}, errContains: "module size must be at least 1"},
		{name: "negative border", args: []string{"-border", "-1"}, errContains: "border must not be negative"},
		{name: "unknown flag", args: []string{"-nope"}, errContains: "failed to parse flags"},
		{name: "two urls", args: []string{"https://a.example", "https://b.example"}, errContains: "at most one URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "output")
			args := append([]string{"-output", dir, "-no-preview"}, tt.args...)

			stdout, _, err := runCLI(t, "", args...)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.errContains)
			assert.Empty(t, stdout, "nothing is printed before flags are valid")

			_, statErr := os.Stat(dir)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestRun_Help(t *testing.T) {
	stdout, stderr, err := runCLI(t, "", "-h")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage: qrgen [flags] [url]")
	assert.Contains(t, stderr, "-module-size")
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")

	stdout, stderr, err := runCLI(t, "", "-output", dir, "-no-preview", "-verbose", "https://example.com")
	require.NoError(t, err)

	assert.Contains(t, stderr, "qr code saved")
	assert.NotContains(t, stdout, "qr code saved")
}
