package archive

import (
	"context"
	"time"

	"wparchive/pkg/dump"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/storage"
	"wparchive/pkg/wordpress"
)

// rootDocFile is where the raw discovery document is persisted, always,
// even when every route ends up skipped.
const rootDocFile = "data/wp-json.json"

// DumpStats summarizes a dump session. Every discovered route lands in
// exactly one of Processed or Skipped.
type DumpStats struct {
	Total     int
	Processed int
	Skipped   int
	Elapsed   time.Duration
}

// Dump archives the site's route content: the raw discovery document plus
// one file per dumpable route, iterated in the order the server listed them.
// A single route's failure is logged and counted as skipped; only
// cancellation stops the session.
func (a *Archiver) Dump(ctx context.Context) (*DumpStats, error) {
	start := time.Now()

	policy := fetchRobotsPolicy(ctx, a.client, a.baseURL, a.cfg.HTTP.UserAgent, a.log)
	limiter := sessionLimiter(a.cfg.HTTP.RequestsPerMinute, policy)

	root, rawRoot, err := a.fetchRoot(ctx)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewManager(a.ArchiveDir())
	if err != nil {
		return nil, err
	}

	if err := store.SaveBytes(rootDocFile, rawRoot); err != nil {
		return nil, err
	}

	pager := dump.NewPager(a.client, store, limiter, dump.PagerOptions{
		PageSize:   a.cfg.Dump.PageSize,
		RetryCount: a.cfg.Dump.RetryCount,
		MaxPages:   a.cfg.Dump.MaxPages,
	}, a.log)
	singleton := dump.NewSingleton(a.client, store, limiter, a.log)

	stats := &DumpStats{Total: len(root.Order)}

	for _, route := range root.Order {
		if ctx.Err() != nil {
			stats.Elapsed = time.Since(start)
			return stats, errs.NewCancelled("dump session")
		}

		desc := root.Routes[route]
		if a.dumpRoute(ctx, route, &desc, pager, singleton) {
			stats.Processed++
		} else {
			stats.Skipped++
		}
	}

	stats.Elapsed = time.Since(start)

	a.log.InfoWithFields("dump session finished", map[string]interface{}{
		"domain":    a.domain,
		"total":     stats.Total,
		"processed": stats.Processed,
		"skipped":   stats.Skipped,
		"elapsed":   FormatDuration(stats.Elapsed),
	})

	return stats, nil
}

// dumpRoute dispatches one route to the right dumper and reports whether it
// was processed. Routes the table marks protected or useless are skipped
// without a request.
func (a *Archiver) dumpRoute(ctx context.Context, route string, desc *wordpress.RouteDescriptor, pager *dump.Pager, singleton *dump.Singleton) bool {
	category := a.known.Lookup(route)

	usePager := false
	switch category {
	case wordpress.CategoryPublicList:
		usePager = true
	case wordpress.CategoryPublicDict:
		usePager = false
	case wordpress.CategoryProtected, wordpress.CategoryUseless:
		a.log.DebugWithFields("skipping route", map[string]interface{}{
			"route":    route,
			"category": string(category),
		})
		return false
	default:
		if wordpress.HasPattern(route) || !a.cfg.Dump.IncludeUnknown {
			a.log.DebugWithFields("skipping unknown route", map[string]interface{}{
				"route": route,
			})
			return false
		}
		// An unknown route without endpoints gives nothing to classify by,
		// so it is skipped without a request.
		if len(desc.Endpoints) == 0 {
			a.log.DebugWithFields("skipping unknown route without endpoints", map[string]interface{}{
				"route": route,
			})
			return false
		}
		// Opted in to unknown routes: the declared pagination args decide
		// which dumper fits.
		args := desc.Endpoints[0].Args
		usePager = args.Has("page") && args.Has("per_page")
	}

	selfURL, ok := desc.SelfURL()
	if !ok {
		a.log.WarnWithFields("route has no self link, skipping", map[string]interface{}{
			"route": route,
		})
		return false
	}

	var err error
	if usePager {
		_, err = pager.Dump(ctx, route, selfURL)
	} else {
		_, err = singleton.Dump(ctx, route, selfURL)
	}
	if err != nil {
		a.log.ErrorWithFields("route dump failed", map[string]interface{}{
			"route": route,
			"error": err.Error(),
		})
		return false
	}

	return true
}
