// Package trigger delivers external capture events to the session.
// The session consumes events one at a time; a debounce guard drops
// electrical bounce before it ever reaches the pipeline.
package trigger

import "time"

// Source emits one value per accepted trigger firing. Close releases
// the underlying hardware and closes the channel.
type Source interface {
	Events() <-chan time.Time
	Close() error
}
