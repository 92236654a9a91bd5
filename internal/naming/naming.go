// Package naming derives the on-disk filenames for captured images.
//
// Names are timestamp-based at second granularity, matching the clock
// resolution the capture hardware can realistically sustain. Two
// captures inside the same second in single or button mode would
// collide; series captures carry a zero-padded sequence number that
// rules this out. Callers that need sub-second safety must slow the
// trigger, not this package.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultPrefix is used for single-shot captures.
	DefaultPrefix = "image"
	// ButtonPrefix is used for hardware-triggered captures.
	ButtonPrefix = "btn"
	// SeriesBase is the stem for timelapse frame prefixes (img0000, img0001, ...).
	SeriesBase = "img"
	// DefaultExt is the capture file extension.
	DefaultExt = "jpg"

	timeLayout = "20060102_150405"
)

// Timestamped returns <outdir>/<prefix>_<YYYYMMDD_HHMMSS>.<ext> for t.
func Timestamped(outdir, prefix, ext string, t time.Time) string {
	return filepath.Join(outdir, fmt.Sprintf("%s_%s.%s", prefix, t.Format(timeLayout), ext))
}

// Series returns the path for frame seq of a timelapse series. The
// sequence number is zero-padded into the prefix (img0007_...), so
// series filenames stay unique even when frames land in the same
// second and sort in capture order.
func Series(outdir string, seq int, ext string, t time.Time) string {
	return Timestamped(outdir, fmt.Sprintf("%s%04d", SeriesBase, seq), ext, t)
}

// EnsureDir creates the output directory if it does not exist.
// Safe to call repeatedly.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", path, err)
	}
	return nil
}
