package dump

import (
	"context"
	"fmt"
	"net/http"

	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/ratelimit"
	"wparchive/pkg/storage"
	"wparchive/pkg/wordpress"
)

// Singleton dumps routes that return one JSON document rather than a
// paginated collection. The server's body is persisted verbatim.
type Singleton struct {
	client  *wordpress.Client
	store   *storage.Manager
	limiter ratelimit.Limiter
	log     logger.Logger
}

// NewSingleton creates a singleton dumper writing through the given storage
// manager.
func NewSingleton(client *wordpress.Client, store *storage.Manager, limiter ratelimit.Limiter, log logger.Logger) *Singleton {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Singleton{client: client, store: store, limiter: limiter, log: log}
}

// Dump fetches the route once and writes the 200 body to data/<route>.json.
// There is no retry budget here: a singleton route that fails once is cheap
// to revisit on the next run, unlike a half-paged collection.
func (s *Singleton) Dump(ctx context.Context, route, selfURL string) (*Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errs.NewCancelled("request to " + selfURL)
	}

	resp, err := s.client.Get(ctx, selfURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewAPI(selfURL, resp.StatusCode, "unexpected status for singleton route")
	}

	result := &Result{
		Route:   route,
		File:    RouteFilePath(route, ".json"),
		Records: 1,
		Pages:   1,
	}

	if err := s.store.SaveBytes(result.File, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", result.File, err)
	}

	s.log.InfoWithFields("route dumped", map[string]interface{}{
		"route": route,
		"file":  result.File,
	})

	return result, nil
}
