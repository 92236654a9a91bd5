// Package annotate stamps a human-readable timestamp onto captured
// images, overwriting the file in place. A failed stamp must never
// cost the capture: callers log the error and keep the raw file.
package annotate

// Annotator writes a text overlay onto the image at path. The file is
// modified in place; the raw bytes are not retained.
//
// Stamping the same file twice is safe but stacks the overlay
// visually. The pipeline applies it once per capture.
type Annotator interface {
	Stamp(path, text string) error
}

// Noop is the annotator selected when annotation is disabled. It
// leaves files untouched and never fails, so the rest of the pipeline
// does not branch on whether annotation is on.
type Noop struct{}

// Stamp does nothing.
func (Noop) Stamp(string, string) error { return nil }

// Options configures a Stamper.
type Options struct {
	// FontPath is an optional TTF to try first. When empty or
	// unusable, the stamper falls back to a known system font and
	// finally to a built-in bitmap face.
	FontPath string
	// Rotate applies a fixed rotation (90, 180 or 270 degrees
	// counter-clockwise) before stamping. 0 means no rotation.
	Rotate int
}

// New returns the annotator for the session: a Stamper when annotation
// is enabled, Noop otherwise.
func New(enabled bool, opts Options) Annotator {
	if !enabled {
		return Noop{}
	}
	return NewStamper(opts)
}
