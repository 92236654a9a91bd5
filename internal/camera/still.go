package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/owlbox/owlcap/pkg/logger"
)

// ErrNoCameraTool means neither libcamera still binary is installed.
var ErrNoCameraTool = errors.New("no camera tool found: install rpicam-still or libcamera-still")

// stillBinaries are tried in order; rpicam-still is the current name,
// libcamera-still the pre-Bookworm one.
var stillBinaries = []string{"rpicam-still", "libcamera-still"}

// StillCommand drives the Raspberry Pi camera through the libcamera
// still tool, one process per capture.
type StillCommand struct {
	binary   string
	settings Settings
}

// NewStillCommand locates the still tool on PATH. A missing tool is a
// fatal configuration problem for the process, surfaced before any
// capture is attempted.
func NewStillCommand(settings Settings) (*StillCommand, error) {
	for _, name := range stillBinaries {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("Using camera tool", "binary", path)
			return &StillCommand{binary: path, settings: settings}, nil
		}
	}
	return nil, ErrNoCameraTool
}

// Start is a no-op: the libcamera tool opens and closes the pipeline
// per shot. The session's settle delay still applies before the first
// capture so the sensor's first auto-exposure pass isn't rushed.
func (c *StillCommand) Start(context.Context) error { return nil }

// Capture writes one still image to path.
func (c *StillCommand) Capture(ctx context.Context, path string) error {
	args := []string{"--nopreview", "--immediate", "-o", path}
	if c.settings.Width > 0 && c.settings.Height > 0 {
		args = append(args,
			"--width", strconv.Itoa(c.settings.Width),
			"--height", strconv.Itoa(c.settings.Height),
		)
	}

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", c.binary, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// Stop is a no-op for the per-shot tool.
func (c *StillCommand) Stop() error { return nil }

// Close is a no-op for the per-shot tool.
func (c *StillCommand) Close() error { return nil }
