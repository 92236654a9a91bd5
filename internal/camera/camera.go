// Package camera abstracts the capture hardware. The pipeline only
// needs "write a still image to this path"; everything else about the
// sensor stays behind the Driver interface.
package camera

import (
	"context"
)

// Settings holds the requested capture geometry. Zero values mean the
// driver's default resolution.
type Settings struct {
	Width  int
	Height int
}

// Driver produces image files on request.
//
// Start is called once before the first capture; the session then
// waits a settle delay so auto-exposure and gain can stabilize before
// Capture is first invoked. Stop and Close release the hardware at
// session teardown.
type Driver interface {
	Start(ctx context.Context) error
	Capture(ctx context.Context, path string) error
	Stop() error
	Close() error
}
