package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"wparchive/pkg/logger"
)

// Classifier resolves routes absent from the reference table by live probing.
// The table cannot be exhaustive: every plugin registers its own routes.
type Classifier struct {
	client *Client
	log    logger.Logger
}

// NewClassifier creates a classifier probing through the given client.
func NewClassifier(client *Client, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Classifier{client: client, log: log}
}

// Classify infers a category for a single route by probing its self link.
// It returns CategoryUnknown when no probe was conclusive; when finalizing a
// table update the caller defaults unresolved routes to useless, the
// conservative choice.
func (c *Classifier) Classify(ctx context.Context, route string, desc *RouteDescriptor) Category {
	if HasPattern(route) {
		return CategoryUseless
	}

	if len(desc.Endpoints) == 0 {
		return CategoryUnknown
	}

	args := desc.Endpoints[0].Args
	paginated := args.Has("page") && args.Has("per_page")
	selfURL, hasSelf := desc.SelfURL()

	if paginated && hasSelf {
		if cat, ok := c.probePaginated(ctx, selfURL); ok {
			return cat
		}
	}

	if !hasSelf {
		return fallbackFromArgs(args)
	}

	resp, err := c.client.Get(ctx, selfURL)
	if err != nil {
		c.log.DebugWithFields("probe failed, falling back to declared args", map[string]interface{}{
			"route": route,
			"error": err.Error(),
		})
		return fallbackFromArgs(args)
	}

	if isProtectedStatus(resp.StatusCode) {
		return CategoryProtected
	}

	if resp.StatusCode != http.StatusOK {
		return CategoryUnknown
	}

	var body interface{}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return CategoryUnknown
	}

	if obj, ok := body.(map[string]interface{}); ok {
		if _, hasID := obj["id"]; hasID && looksLikePerItemRoute(route) {
			return CategoryUseless
		}
	}

	switch body.(type) {
	case []interface{}:
		return CategoryPublicList
	case map[string]interface{}:
		return CategoryPublicDict
	}

	return CategoryUnknown
}

// probePaginated hits the route with per_page=1&page=1 to confirm a
// paginated list without pulling real data volume.
func (c *Classifier) probePaginated(ctx context.Context, selfURL string) (Category, bool) {
	resp, err := c.client.Get(ctx, selfURL+"?per_page=1&page=1")
	if err != nil {
		return CategoryUnknown, false
	}

	if isProtectedStatus(resp.StatusCode) {
		return CategoryProtected, true
	}

	if resp.StatusCode == http.StatusOK {
		var body interface{}
		if err := json.Unmarshal(resp.Body, &body); err == nil {
			if _, isList := body.([]interface{}); isList {
				return CategoryPublicList, true
			}
		}
	}

	return CategoryUnknown, false
}

// ClassifyAll probes a set of unknown routes and groups them by category.
// Unresolved routes default to useless so the rendered table update is
// complete. Cancellation stops probing early with whatever was gathered.
func (c *Classifier) ClassifyAll(ctx context.Context, routes []string, root *RootDocument) map[Category][]string {
	categorized := make(map[Category][]string)

	for _, route := range routes {
		if ctx.Err() != nil {
			break
		}

		desc, ok := root.Routes[route]
		if !ok {
			continue
		}

		cat := c.Classify(ctx, route, &desc)
		if cat == CategoryUnknown {
			cat = CategoryUseless
		}
		categorized[cat] = append(categorized[cat], route)

		c.log.DebugWithFields("classified route", map[string]interface{}{
			"route":    route,
			"category": string(cat),
		})
	}

	return categorized
}

// RenderTable renders categorized routes in the known-routes file shape:
// one category heading per line, routes as a sorted bulleted list, empty
// categories omitted. The output is the human-actionable diff for updating
// the reference table.
func RenderTable(categorized map[Category][]string) string {
	var b strings.Builder

	for _, cat := range lookupOrder {
		routes := categorized[cat]
		if len(routes) == 0 {
			continue
		}

		sorted := make([]string, len(routes))
		copy(sorted, routes)
		sort.Strings(sorted)

		b.WriteString(string(cat) + ":\n")
		for _, route := range sorted {
			b.WriteString("- " + route + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func isProtectedStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// looksLikePerItemRoute flags numeric-ID suffixed paths deep enough to be
// per-item endpoints. Tuned empirically against real WordPress installs;
// a heuristic, not a rule.
func looksLikePerItemRoute(route string) bool {
	segments := strings.Split(route, "/")
	if len(segments) <= 3 {
		return false
	}
	return strings.ContainsAny(segments[len(segments)-1], "0123456789")
}

// fallbackFromArgs guesses a category from declared arguments when no probe
// could reach the route: page+per_page smells like a list, any other args
// like a dict, nothing stays unresolved.
func fallbackFromArgs(args ArgSet) Category {
	if args.Has("page") && args.Has("per_page") {
		return CategoryPublicList
	}
	if len(args) > 0 {
		return CategoryPublicDict
	}
	return CategoryUnknown
}
