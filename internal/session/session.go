// Package session orchestrates one capture run: trigger mode, per-frame
// annotate/publish, and the finalize pass that rebuilds the index,
// resynchronizes the remote directory and publishes the latest-capture
// thumbnail. A session is single-use per process invocation.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cheggaaa/pb"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/owlbox/owlcap/internal/annotate"
	"github.com/owlbox/owlcap/internal/camera"
	"github.com/owlbox/owlcap/internal/config"
	"github.com/owlbox/owlcap/internal/mirror"
	"github.com/owlbox/owlcap/internal/naming"
	"github.com/owlbox/owlcap/internal/trigger"
	"github.com/owlbox/owlcap/internal/webindex"
	"github.com/owlbox/owlcap/pkg/logger"
)

// Mode selects how capture requests are produced.
type Mode int

const (
	// ModeSingle takes exactly one capture.
	ModeSingle Mode = iota
	// ModeTimelapse captures on a fixed interval.
	ModeTimelapse
	// ModeButton captures on external trigger events.
	ModeButton
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeTimelapse:
		return "timelapse"
	case ModeButton:
		return "button"
	default:
		return "unknown"
	}
}

// State is the session lifecycle phase. States only move forward:
// Idle → Capturing → Finalizing → Stopped.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
	StateStopped
)

// overlayLayout is the human-readable timestamp drawn onto captures.
const overlayLayout = "2006-01-02 15:04:05"

// thumbnailWidth is the downscale width for the published thumbnail.
const thumbnailWidth = 480

// ErrSessionUsed is returned when Run is called on a finished session.
var ErrSessionUsed = errors.New("session already ran; create a new one")

// Session runs the capture-annotate-publish pipeline for one mode.
type Session struct {
	cfg       *config.Config
	mode      Mode
	driver    camera.Driver
	annotator annotate.Annotator
	publisher mirror.Publisher // nil when remote publish is disabled
	events    trigger.Source   // set for ModeButton only

	log   *log.Logger
	state State

	captured      int
	lastPath      string
	publishFailed bool
}

// New assembles a session. publisher may be nil (local-only run);
// events is required for ModeButton.
func New(cfg *config.Config, mode Mode, driver camera.Driver, annotator annotate.Annotator, publisher mirror.Publisher, events trigger.Source) *Session {
	id := uuid.New().String()[:8]
	return &Session{
		cfg:       cfg,
		mode:      mode,
		driver:    driver,
		annotator: annotator,
		publisher: publisher,
		events:    events,
		log:       logger.With("session", id, "mode", mode.String()),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Captured returns how many frames this session has taken.
func (s *Session) Captured() int { return s.captured }

// Run executes the session to completion. Cancellation of ctx is not
// an error: the session moves to Finalizing and tears down cleanly.
// The returned error reflects capture problems only; publish and index
// failures are logged and absorbed.
func (s *Session) Run(ctx context.Context) error {
	if s.state != StateIdle {
		return ErrSessionUsed
	}

	if err := naming.EnsureDir(s.cfg.Capture.OutDir); err != nil {
		return err
	}

	if err := s.driver.Start(ctx); err != nil {
		return fmt.Errorf("capture driver failed to start: %w", err)
	}

	// Let auto-exposure and gain settle before the first frame.
	if s.cfg.Capture.SettleDelay > 0 {
		s.log.Debug("Waiting for sensor to settle", "delay", s.cfg.Capture.SettleDelay)
		sleepCtx(ctx, s.cfg.Capture.SettleDelay)
	}

	s.state = StateCapturing
	s.log.Info("Capture started", "outdir", s.cfg.Capture.OutDir)

	var runErr error
	switch s.mode {
	case ModeSingle:
		runErr = s.runSingle(ctx)
	case ModeTimelapse:
		runErr = s.runTimelapse(ctx)
	case ModeButton:
		runErr = s.runButton(ctx)
	default:
		runErr = fmt.Errorf("unknown capture mode %d", int(s.mode))
	}
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		s.log.Info("Capture interrupted by user")
		runErr = nil
	}

	// Finalize runs even after a mid-capture failure or cancellation;
	// whatever landed on disk is kept and indexed.
	s.state = StateFinalizing
	s.finalize(context.WithoutCancel(ctx))

	s.stop()
	return runErr
}

func (s *Session) runSingle(ctx context.Context) error {
	path := naming.Timestamped(s.cfg.Capture.OutDir, s.cfg.Capture.Prefix, naming.DefaultExt, time.Now())
	if err := s.captureOne(ctx, path); err != nil {
		return err
	}
	s.publish(ctx, path)
	return nil
}

func (s *Session) runTimelapse(ctx context.Context) error {
	count := s.cfg.Timelapse.Count
	for i := 0; count == 0 || i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := naming.Series(s.cfg.Capture.OutDir, i, naming.DefaultExt, time.Now())
		if err := s.captureOne(ctx, path); err != nil {
			return err
		}
		s.log.Info(fmt.Sprintf("[%d] Saved", i+1), "file", filepath.Base(path))

		// Per-frame remote publish is deliberately skipped: the
		// finalize pass uploads the whole directory in one batch.
		if s.cfg.Index.Enabled {
			if _, err := webindex.Build(s.cfg.Capture.OutDir, s.cfg.Index.Title); err != nil {
				s.log.Warn("Index rebuild failed", "error", err)
			}
		}

		if count != 0 && i == count-1 {
			break
		}
		if !sleepCtx(ctx, s.cfg.Timelapse.Interval) {
			return ctx.Err()
		}
	}
	return nil
}

func (s *Session) runButton(ctx context.Context) error {
	if s.events == nil {
		return errors.New("button mode needs a trigger source")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts, ok := <-s.events.Events():
			if !ok {
				return nil
			}
			path := naming.Timestamped(s.cfg.Capture.OutDir, naming.ButtonPrefix, naming.DefaultExt, ts)
			if err := s.captureOne(ctx, path); err != nil {
				// One bad frame must not end the watch.
				s.log.Error("Capture failed", "error", err)
				continue
			}
			s.log.Info("Button pressed, saved", "file", filepath.Base(path))
			s.publish(ctx, path)
			if s.cfg.Index.Enabled {
				s.buildAndPublishIndex(ctx)
			}
		}
	}
}

// captureOne takes one frame and stamps it. Annotation failure keeps
// the raw capture: a frame without an overlay is still a frame.
func (s *Session) captureOne(ctx context.Context, path string) error {
	if err := s.driver.Capture(ctx, path); err != nil {
		return fmt.Errorf("capture to %s failed: %w", path, err)
	}
	s.captured++
	s.lastPath = path

	text := time.Now().Format(overlayLayout)
	if err := s.annotator.Stamp(path, text); err != nil {
		s.log.Warn("Annotation failed, keeping raw capture", "file", filepath.Base(path), "error", err)
	} else {
		s.log.Debug("Annotated", "file", filepath.Base(path), "text", text)
	}
	return nil
}

// publish uploads one file when a remote target is configured. All
// failures are absorbed here: local capture never blocks on the link.
func (s *Session) publish(ctx context.Context, path string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, path); err != nil {
		s.publishFailed = true
		s.log.Error("Remote publish failed", "file", filepath.Base(path), "error", err)
	}
}

func (s *Session) buildAndPublishIndex(ctx context.Context) {
	indexPath, err := webindex.Build(s.cfg.Capture.OutDir, s.cfg.Index.Title)
	if err != nil {
		s.log.Warn("Index build failed", "error", err)
		return
	}
	s.publish(ctx, indexPath)
}

// finalize is the teardown pass: thumbnail of the newest capture,
// index rebuild and publish, then remote resynchronization. The full
// directory re-upload is conditional: it runs for timelapse sessions,
// whose frames were held back from per-frame publish, and for any
// session that saw a publish failure. An all-green single or button
// run uploads just the fresh thumbnail here, so each capture transfers
// exactly once. Everything in this pass is best-effort.
func (s *Session) finalize(ctx context.Context) {
	s.log.Debug("Finalizing")

	thumbPath := s.makeThumbnail()

	if s.cfg.Index.Enabled {
		s.buildAndPublishIndex(ctx)
	}

	if s.publisher != nil {
		if s.mode == ModeTimelapse || s.publishFailed {
			s.republishAll(ctx)
		} else if thumbPath != "" {
			s.publish(ctx, thumbPath)
		}
	}
}

// republishAll re-uploads every recognized media file in the output
// directory, newest first. Uploads are overwrite-idempotent, so files
// that already made it are merely refreshed; files whose earlier
// publish was skipped or failed get their retry here.
func (s *Session) republishAll(ctx context.Context) {
	entries := webindex.Scan(s.cfg.Capture.OutDir)
	if len(entries) == 0 {
		return
	}

	s.log.Info("Republishing output directory", "files", len(entries))
	bar := pb.StartNew(len(entries))
	for _, entry := range entries {
		s.publish(ctx, filepath.Join(s.cfg.Capture.OutDir, entry.Name))
		bar.Increment()
	}
	bar.Finish()
}

// makeThumbnail downscales the most recent capture to the fixed
// well-known thumbnail name. Returns "" when there is nothing to
// thumbnail or the conversion fails.
func (s *Session) makeThumbnail() string {
	src := s.lastPath
	if src == "" {
		// Nothing captured this run; fall back to the newest file on
		// disk so a finalize-only run still refreshes the thumbnail.
		for _, entry := range webindex.Scan(s.cfg.Capture.OutDir) {
			if entry.Name != webindex.ThumbnailFileName {
				src = filepath.Join(s.cfg.Capture.OutDir, entry.Name)
				break
			}
		}
	}
	if src == "" {
		return ""
	}

	img, err := imaging.Open(src)
	if err != nil {
		s.log.Warn("Thumbnail source unreadable", "file", src, "error", err)
		return ""
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	thumbPath := filepath.Join(s.cfg.Capture.OutDir, webindex.ThumbnailFileName)
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(85)); err != nil {
		s.log.Warn("Thumbnail write failed", "path", thumbPath, "error", err)
		return ""
	}
	s.log.Debug("Thumbnail updated", "source", filepath.Base(src))
	return thumbPath
}

// stop releases the driver and waits the teardown grace period so the
// camera stack finishes flushing before process exit.
func (s *Session) stop() {
	s.state = StateStopped

	if err := s.driver.Stop(); err != nil {
		s.log.Warn("Driver stop failed", "error", err)
	}
	if err := s.driver.Close(); err != nil {
		s.log.Warn("Driver close failed", "error", err)
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			s.log.Warn("Trigger close failed", "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.log.Warn("Publisher close failed", "error", err)
		}
	}

	if s.cfg.Capture.GraceDelay > 0 {
		s.log.Debug("Hardware teardown grace period", "delay", s.cfg.Capture.GraceDelay)
		time.Sleep(s.cfg.Capture.GraceDelay)
	}
	s.log.Info("Session stopped", "captured", s.captured)
}

// sleepCtx sleeps for d unless ctx is cancelled first. Reports whether
// the full sleep elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
