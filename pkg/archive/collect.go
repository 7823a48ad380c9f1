package archive

import (
	"context"

	"wparchive/internal/downloader"
	"wparchive/pkg/checkpoint"
	"wparchive/pkg/storage"
)

// CollectFiles downloads every media file listed in the archive's manifest.
// Dump must have run first; a missing manifest is a typed error saying so.
func (a *Archiver) CollectFiles(ctx context.Context) (*downloader.Stats, error) {
	policy := fetchRobotsPolicy(ctx, a.client, a.baseURL, a.cfg.HTTP.UserAgent, a.log)
	limiter := sessionLimiter(a.cfg.HTTP.RequestsPerMinute, policy)

	store, err := storage.NewManager(a.ArchiveDir())
	if err != nil {
		return nil, err
	}

	var fetcher downloader.Fetcher
	if a.cfg.Download.UseAria2 {
		fetcher = downloader.NewAria2Fetcher(a.cfg.Download.Aria2Path, store, a.cfg.HTTP.Timeout)
	} else {
		fetcher = downloader.NewHTTPFetcher(a.client, store)
	}

	session := downloader.NewSession(
		store,
		fetcher,
		checkpoint.NewManager(store.Root(), a.log),
		limiter,
		downloader.Options{
			Workers: a.cfg.Download.Workers,
			Resume:  a.cfg.Download.Resume,
		},
		a.log,
	)

	return session.Run(ctx)
}
