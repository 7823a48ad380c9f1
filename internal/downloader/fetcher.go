package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	errs "wparchive/pkg/errors"
	"wparchive/pkg/storage"
	"wparchive/pkg/wordpress"
)

// Fetcher retrieves one media file and lands it at the task's destination.
type Fetcher interface {
	Fetch(ctx context.Context, task Task) error
}

// HTTPFetcher downloads media over the archive's own HTTP client, inheriting
// its timeout, user agent, and TLS settings.
type HTTPFetcher struct {
	client *wordpress.Client
	store  *storage.Manager
}

// NewHTTPFetcher creates the built-in fetcher.
func NewHTTPFetcher(client *wordpress.Client, store *storage.Manager) *HTTPFetcher {
	return &HTTPFetcher{client: client, store: store}
}

// Fetch streams the body straight into the store's atomic save, so even
// large media never sits whole in memory. A failed transfer surfaces through
// the pipe and aborts the save, leaving no partial file behind.
func (f *HTTPFetcher) Fetch(ctx context.Context, task Task) error {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(f.client.Download(ctx, task.URL, pw))
	}()

	return f.store.Save(task.Dest, pr)
}

// Aria2Fetcher delegates each download to an external aria2c process, for
// users who want its segmented transfers on large media libraries. The URL
// and paths travel as discrete argv entries, never through a shell.
type Aria2Fetcher struct {
	binary  string
	store   *storage.Manager
	timeout time.Duration
}

// NewAria2Fetcher creates a fetcher shelling out to the given aria2c binary.
// Each invocation is bounded by the given timeout, matching the per-request
// timeout the HTTP fetcher inherits from its client.
func NewAria2Fetcher(binary string, store *storage.Manager, timeout time.Duration) *Aria2Fetcher {
	return &Aria2Fetcher{binary: binary, store: store, timeout: timeout}
}

func (f *Aria2Fetcher) Fetch(ctx context.Context, task Task) error {
	target := f.store.Path(task.Dest)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errs.NewDownload(task.URL, fmt.Sprintf("failed to create directory: %v", err))
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.binary,
		"--retry-wait=10",
		"-d", filepath.Dir(target),
		"--out", filepath.Base(target),
		task.URL,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		return errs.NewDownload(task.URL, fmt.Sprintf("aria2c failed: %v: %s", err, bytes.TrimSpace(output)))
	}
	return nil
}
