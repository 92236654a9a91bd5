package webindex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestBuild_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	indexPath, err := Build(dir, "Empty Box")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, IndexFileName), indexPath)

	page, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Empty Box</title>")
	assert.Contains(t, string(page), "class='grid'")
	assert.NotContains(t, string(page), "class='card'")
}

func TestBuild_MissingDirectoryStillProducesPage(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "never-created")

	// A missing directory means zero entries, but the page itself
	// cannot be written there, so Build reports the write failure.
	_, err := Build(dir, "Missing")
	require.Error(t, err)

	// Scan on its own treats the unreadable directory as empty.
	assert.Empty(t, Scan(dir))
}

func TestScan_FiltersAndSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeFile(t, dir, "old.jpg", 2048, base)
	writeFile(t, dir, "newer.png", 1024, base.Add(10*time.Minute))
	writeFile(t, dir, "newest.mp4", 4096, base.Add(20*time.Minute))
	writeFile(t, dir, "notes.txt", 100, base.Add(30*time.Minute))
	writeFile(t, dir, "index.html", 100, base.Add(30*time.Minute))

	entries := Scan(dir)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest.mp4", entries[0].Name)
	assert.Equal(t, "newer.png", entries[1].Name)
	assert.Equal(t, "old.jpg", entries[2].Name)
}

func TestScan_SizeKBTruncates(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeFile(t, dir, "a.jpg", 1024, now)
	writeFile(t, dir, "b.jpg", 2047, now.Add(-time.Second))
	writeFile(t, dir, "c.jpg", 100, now.Add(-2*time.Second))

	entries := Scan(dir)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1), entries[0].SizeKB)
	assert.Equal(t, int64(1), entries[1].SizeKB)
	assert.Equal(t, int64(0), entries[2].SizeKB)
}

func TestBuild_Deterministic(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	// Same mtime on purpose: the tie must break the same way twice.
	writeFile(t, dir, "a.jpg", 1000, base)
	writeFile(t, dir, "b.jpg", 1000, base)
	writeFile(t, dir, "c.jpg", 1000, base.Add(time.Minute))

	indexPath, err := Build(dir, "Determinism")
	require.NoError(t, err)
	first, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	_, err = Build(dir, "Determinism")
	require.NoError(t, err)
	second, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBuild_PageContents(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)

	writeFile(t, dir, "image_20250314_150926.jpg", 3*1024, mtime)
	writeFile(t, dir, "clip.mp4", 10*1024, mtime.Add(-time.Minute))

	indexPath, err := Build(dir, "Owl Box <Cam>")
	require.NoError(t, err)
	page, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	html := string(page)

	// Title is escaped, every media file gets a card with meta line.
	assert.Contains(t, html, "Owl Box &lt;Cam&gt;")
	assert.Contains(t, html, "image_20250314_150926.jpg")
	assert.Contains(t, html, "2025-03-14 15:09:26")
	assert.Contains(t, html, "3 KB")
	assert.Contains(t, html, "<video src='clip.mp4'")
	assert.NotContains(t, html, "thumbnail.jpg")
}

func TestBuild_ThumbnailCard(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, dir, ThumbnailFileName, 1024, now)

	indexPath, err := Build(dir, "Thumb")
	require.NoError(t, err)
	page, err := os.ReadFile(indexPath)
	require.NoError(t, err)

	// The fixed timelapse card appears once thumbnail.jpg exists, and
	// the thumbnail also shows up as a regular media entry.
	assert.Equal(t, 2, strings.Count(string(page), "thumbnail.jpg"))
	assert.Contains(t, string(page), "timelapse.mp4")
}

func TestIsMedia(t *testing.T) {
	assert.True(t, IsMedia("a.jpg"))
	assert.True(t, IsMedia("a.JPG"))
	assert.True(t, IsMedia("a.jpeg"))
	assert.True(t, IsMedia("a.webp"))
	assert.True(t, IsMedia("a.mp4"))
	assert.False(t, IsMedia("a.txt"))
	assert.False(t, IsMedia("index.html"))
	assert.False(t, IsMedia("noext"))
}
