package downloader

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// FilesDir is the archive subdirectory holding downloaded media.
const FilesDir = "files"

// Task is one media file to fetch: its source URL and the archive-relative
// destination path.
type Task struct {
	URL  string
	Dest string
}

// NewTask maps a source URL onto its archive location. The URL's path is
// mirrored verbatim under files/, so the archive layout matches the site's,
// for example files/wp-content/uploads/2024/01/photo.jpg.
func NewTask(sourceURL string) (Task, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return Task{}, fmt.Errorf("unparseable source URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Task{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	rel := strings.TrimPrefix(u.Path, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		return Task{}, fmt.Errorf("source URL %q has no file path", sourceURL)
	}

	return Task{
		URL:  sourceURL,
		Dest: path.Join(FilesDir, rel),
	}, nil
}
