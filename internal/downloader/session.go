package downloader

import (
	"context"

	"wparchive/pkg/checkpoint"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/ratelimit"
	"wparchive/pkg/storage"
)

// Options configure a download session.
type Options struct {
	// Workers is the number of concurrent downloads.
	Workers int
	// Resume skips files recorded in the checkpoint or already on disk.
	// When false the checkpoint is ignored, though files on disk still
	// count as satisfied.
	Resume bool
}

// Stats summarizes a finished session.
type Stats struct {
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
}

// Session runs one media download pass: read the manifest, partition out
// already-satisfied files, fan the rest out to the pool, and persist the
// checkpoint once when everything has settled.
type Session struct {
	store   *storage.Manager
	fetcher Fetcher
	cpm     *checkpoint.Manager
	limiter ratelimit.Limiter
	opts    Options
	log     logger.Logger
}

// NewSession creates a download session.
func NewSession(store *storage.Manager, fetcher Fetcher, cpm *checkpoint.Manager, limiter ratelimit.Limiter, opts Options, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Session{
		store:   store,
		fetcher: fetcher,
		cpm:     cpm,
		limiter: limiter,
		opts:    opts,
		log:     log,
	}
}

// Run executes the session. Failed downloads do not stop the run and stay
// out of the checkpoint, so the next session retries them. Cancellation
// returns the stats gathered so far alongside a cancellation error; progress
// made before the interrupt is still checkpointed.
func (s *Session) Run(ctx context.Context) (*Stats, error) {
	urls, err := ReadManifest(s.store, s.log)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}

	var tasks []Task
	for _, url := range urls {
		task, err := NewTask(url)
		if err != nil {
			s.log.WarnWithFields("skipping undownloadable manifest entry", map[string]interface{}{
				"url":   url,
				"error": err.Error(),
			})
			continue
		}
		tasks = append(tasks, task)
	}
	stats.Total = len(tasks)

	if len(tasks) == 0 {
		s.log.Info("manifest holds no downloadable files")
		return stats, nil
	}

	cp := s.loadCheckpoint()

	// Files already satisfied never reach the pool. Disk hits are folded
	// into the checkpoint so it converges on the truth.
	var pending []Task
	for _, task := range tasks {
		if cp.Contains(task.Dest) || s.store.Exists(task.Dest) {
			cp.Add(task.Dest)
			stats.Skipped++
			continue
		}
		pending = append(pending, task)
	}

	s.log.InfoWithFields("starting download session", map[string]interface{}{
		"total":   stats.Total,
		"skipped": stats.Skipped,
		"pending": len(pending),
		"workers": s.opts.Workers,
	})

	if len(pending) > 0 {
		s.runPool(ctx, pending, cp, stats)
	}

	if err := s.cpm.Save(cp); err != nil {
		s.log.ErrorWithFields("failed to save checkpoint", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if ctx.Err() != nil {
		return stats, errs.NewCancelled("download session")
	}

	s.log.InfoWithFields("download session finished", map[string]interface{}{
		"downloaded": stats.Downloaded,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
	})

	return stats, nil
}

func (s *Session) runPool(ctx context.Context, pending []Task, cp *checkpoint.Checkpoint, stats *Stats) {
	pool := NewPool(s.opts.Workers, s.fetcher, s.store, cp, s.limiter, s.log)
	pool.Start(ctx)

	go func() {
		for _, task := range pending {
			if !pool.Submit(ctx, task) {
				break
			}
		}
		pool.Stop()
	}()

	for result := range pool.Results() {
		switch {
		case result.Skipped:
			stats.Skipped++
		case result.Err != nil:
			stats.Failed++
		default:
			stats.Downloaded++
		}
	}
}

// loadCheckpoint returns the stored checkpoint, or a fresh one when resume
// is off. Either way the session writes an up-to-date checkpoint on exit.
func (s *Session) loadCheckpoint() *checkpoint.Checkpoint {
	if s.opts.Resume {
		return s.cpm.Load()
	}

	s.log.Debug("resume disabled, ignoring existing checkpoint")
	return checkpoint.New()
}
