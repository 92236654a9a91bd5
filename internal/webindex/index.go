// Package webindex builds the static browse page for an output
// directory. The page is a full re-derivation of directory contents on
// every build: no incremental state, so a rebuild after a crash or a
// missed upload always produces a correct listing.
package webindex

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/owlbox/owlcap/pkg/logger"
)

//go:embed index.gohtml
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "index.gohtml"))

// IndexFileName is the name of the generated page inside the output directory.
const IndexFileName = "index.html"

// ThumbnailFileName is the fixed well-known name for the latest-capture thumbnail.
const ThumbnailFileName = "thumbnail.jpg"

// mediaExts is the recognized media set. Anything else in the output
// directory (the index page itself, stray files) is ignored.
var mediaExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".mp4":  true,
}

// Entry is one media file found in the output directory. Derived fresh
// from the filesystem on every scan, never persisted.
type Entry struct {
	Name    string
	ModTime time.Time
	SizeKB  int64
}

// When returns the modification time formatted for the page.
func (e Entry) When() string {
	return e.ModTime.Format("2006-01-02 15:04:05")
}

// IsVideo reports whether the entry should render as a video tag.
func (e Entry) IsVideo() bool {
	return strings.EqualFold(filepath.Ext(e.Name), ".mp4")
}

// IsMedia reports whether name has a recognized media extension.
func IsMedia(name string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(name))]
}

// Scan lists the recognized media files in outdir, newest first.
// An unreadable directory yields an empty listing, not an error: the
// index must always be buildable.
func Scan(outdir string) []Entry {
	dirEntries, err := os.ReadDir(outdir)
	if err != nil {
		logger.Warn("Could not read output directory, indexing as empty", "outdir", outdir, "error", err)
		return nil
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !IsMedia(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			logger.Warn("Skipping unstatable file", "file", de.Name(), "error", err)
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			ModTime: info.ModTime(),
			SizeKB:  info.Size() / 1024,
		})
	}

	// Newest first; stable so equal mtimes keep directory order and
	// two scans of an unchanged directory agree byte for byte.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})

	return entries
}

type pageData struct {
	Title        string
	HasThumbnail bool
	Entries      []Entry
}

// Build writes <outdir>/index.html listing every recognized media file,
// newest first, and returns the path of the written page. A directory
// with no media still gets a valid empty-grid page.
func Build(outdir, title string) (string, error) {
	entries := Scan(outdir)

	_, thumbErr := os.Stat(filepath.Join(outdir, ThumbnailFileName))

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, pageData{
		Title:        title,
		HasThumbnail: thumbErr == nil,
		Entries:      entries,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render index template: %w", err)
	}

	indexPath := filepath.Join(outdir, IndexFileName)
	if err := os.WriteFile(indexPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", indexPath, err)
	}

	logger.Info("Built index", "path", indexPath, "entries", len(entries))
	return indexPath, nil
}
