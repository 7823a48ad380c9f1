package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
	"wparchive/pkg/ratelimit"
	"wparchive/pkg/retry"
	"wparchive/pkg/storage"
	"wparchive/pkg/wordpress"
)

// PagerOptions tune the paginated dump loop.
type PagerOptions struct {
	// PageSize is the per_page value sent with every request.
	PageSize int
	// RetryCount is the total attempt budget per page.
	RetryCount int
	// MaxPages bounds the loop against servers that never return an empty
	// page. Hitting the bound truncates the dump but is not an error.
	MaxPages int
}

// Pager walks a paginated route page by page and writes every record it
// collects as one compact JSON line. Records are held in memory until the
// route completes, so a mid-route failure discards the partial dump instead
// of leaving a file that looks finished.
type Pager struct {
	client  *wordpress.Client
	store   *storage.Manager
	limiter ratelimit.Limiter
	opts    PagerOptions
	log     logger.Logger
}

// NewPager creates a pager writing through the given storage manager.
func NewPager(client *wordpress.Client, store *storage.Manager, limiter ratelimit.Limiter, opts PagerOptions, log logger.Logger) *Pager {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Pager{client: client, store: store, limiter: limiter, opts: opts, log: log}
}

// Result summarizes one dumped route.
type Result struct {
	Route     string
	File      string
	Records   int
	Pages     int
	Truncated bool
}

// Dump fetches the route's pages in ascending ID order until the server
// returns an empty list, a non-list body, or the page bound is hit, then
// writes the collected records to data/<route>.jsonl. A route that yields
// zero records still gets an empty file: its absence from the archive would
// be indistinguishable from a route never dumped.
func (p *Pager) Dump(ctx context.Context, route, selfURL string) (*Result, error) {
	result := &Result{
		Route: route,
		File:  RouteFilePath(route, ".jsonl"),
	}

	var buf bytes.Buffer
	totalPages := 0

	for page := 1; ; page++ {
		if p.opts.MaxPages > 0 && page > p.opts.MaxPages {
			p.log.WarnWithFields("page bound reached, truncating route", map[string]interface{}{
				"route":     route,
				"max_pages": p.opts.MaxPages,
			})
			result.Truncated = true
			break
		}

		pageURL, err := p.pageURL(selfURL, page)
		if err != nil {
			return nil, errs.NewParsing(selfURL, fmt.Sprintf("invalid route URL: %v", err))
		}

		resp, err := p.fetchPage(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		if page == 1 {
			totalPages = p.paginationHints(route, resp.Header)
		}

		records, isList, parseErr := parseRecords(resp.Body)
		if parseErr != nil {
			p.log.WarnWithFields("route returned an unparseable body, stopping", map[string]interface{}{
				"route": route,
				"page":  page,
				"error": parseErr.Error(),
			})
			break
		}
		if !isList {
			p.log.DebugWithFields("route returned a non-list body, end of pagination", map[string]interface{}{
				"route": route,
				"page":  page,
			})
			break
		}
		if len(records) == 0 {
			break
		}

		for _, record := range records {
			if err := json.Compact(&buf, record); err != nil {
				return nil, errs.NewParsing(pageURL, fmt.Sprintf("record on page %d is not valid JSON: %v", page, err))
			}
			buf.WriteByte('\n')
		}

		result.Records += len(records)
		result.Pages = page

		// The server has told us how many pages there are; trust it once
		// the last one is in hand instead of fetching one extra empty page.
		if totalPages > 0 && page >= totalPages {
			break
		}
	}

	if err := p.store.Save(result.File, &buf); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", result.File, err)
	}

	p.log.InfoWithFields("route dumped", map[string]interface{}{
		"route":   route,
		"records": result.Records,
		"pages":   result.Pages,
		"file":    result.File,
	})

	return result, nil
}

// fetchPage retrieves one page within the per-page retry budget. Any non-200
// status counts as a failure; exhausting the budget aborts the whole route.
func (p *Pager) fetchPage(ctx context.Context, pageURL string) (*wordpress.Response, error) {
	var resp *wordpress.Response

	op := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return errs.NewCancelled("request to " + pageURL)
		}

		r, err := p.client.Get(ctx, pageURL)
		if err != nil {
			return err
		}
		if r.StatusCode != http.StatusOK {
			return errs.NewAPI(pageURL, r.StatusCode, "unexpected status while paging")
		}

		resp = r
		return nil
	}

	cfg := &retry.Config{
		MaxAttempts: p.opts.RetryCount,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      p.log,
	}

	if err := retry.Do(op, cfg); err != nil {
		return nil, err
	}
	return resp, nil
}

// pageURL appends the pagination query to the route's self link. Ascending
// ID order keeps page contents stable while the site receives new posts
// mid-dump.
func (p *Pager) pageURL(selfURL string, page int) (string, error) {
	u, err := url.Parse(selfURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("order", "asc")
	q.Set("orderby", "id")
	q.Set("per_page", strconv.Itoa(p.opts.PageSize))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// paginationHints reads the server's totals from the first page and returns
// the total page count, or 0 when absent or malformed. An empty page still
// ends the loop regardless of what the header claimed.
func (p *Pager) paginationHints(route string, header http.Header) int {
	fields := map[string]interface{}{"route": route}
	totalPages := 0

	for headerName, field := range map[string]string{
		"X-WP-TotalPages": "total_pages",
		"X-WP-Total":      "total_records",
	} {
		raw := header.Get(headerName)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			p.log.DebugWithFields("ignoring malformed pagination header", map[string]interface{}{
				"route":  route,
				"header": headerName,
				"value":  raw,
			})
			continue
		}
		fields[field] = n
		if headerName == "X-WP-TotalPages" {
			totalPages = n
		}
	}

	if len(fields) > 1 {
		p.log.InfoWithFields("server reported totals", fields)
	}

	return totalPages
}

// parseRecords splits a JSON array body into raw elements. A valid non-array
// body reports isList=false with no error; a body that is not JSON at all
// reports the parse error so the caller can tell the two stops apart.
func parseRecords(body []byte) (records []json.RawMessage, isList bool, err error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, false, err
		}
		return records, true, nil
	}
	if !json.Valid(trimmed) {
		return nil, false, fmt.Errorf("body is not valid JSON")
	}
	return nil, false, nil
}
