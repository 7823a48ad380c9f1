package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wparchive/pkg/config"
	errs "wparchive/pkg/errors"
	"wparchive/pkg/wordpress"
)

// newWordPressServer fakes a small WordPress install: a discovery document
// with a mix of categories plus the routes it advertises.
func newWordPressServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	rootDoc := fmt.Sprintf(`{
		"name": "Example",
		"routes": {
			"/wp/v2/posts": {
				"namespace": "wp/v2",
				"endpoints": [{"methods": ["GET"], "args": {"page": {}, "per_page": {}}}],
				"_links": {"self": [{"href": %q}]}
			},
			"/wp/v2/posts/(?P<id>[\\d]+)": {
				"namespace": "wp/v2",
				"endpoints": [{"methods": ["GET"], "args": {"id": {}}}]
			},
			"/wp/v2/types": {
				"namespace": "wp/v2",
				"endpoints": [{"methods": ["GET"], "args": {"context": {}}}],
				"_links": {"self": [{"href": %q}]}
			},
			"/wp/v2/settings": {
				"namespace": "wp/v2",
				"endpoints": [{"methods": ["GET"], "args": {}}],
				"_links": {"self": [{"href": %q}]}
			},
			"/custom/v1/thing": {
				"namespace": "custom/v1",
				"endpoints": [{"methods": ["GET"], "args": {}}],
				"_links": {"self": [{"href": %q}]}
			}
		}
	}`,
		server.URL+"/wp-json/wp/v2/posts",
		server.URL+"/wp-json/wp/v2/types",
		server.URL+"/wp-json/wp/v2/settings",
		server.URL+"/wp-json/custom/v1/thing",
	)

	mux.HandleFunc("/wp-json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rootDoc))
	})
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-TotalPages", "1")
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`[{"id": 1, "title": "hello"}, {"id": 2, "title": "world"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/wp-json/wp/v2/types", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"post": {"name": "Posts"}}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/settings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/wp-json/custom/v1/thing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"enabled": true}`))
	})

	return server
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.ForceHTTPS = false
	cfg.HTTP.RequestsPerMinute = 0
	cfg.Dump.RetryCount = 2
	cfg.Dump.MaxPages = 10
	cfg.Output = t.TempDir()
	return cfg
}

func serverDomain(server *httptest.Server) string {
	return strings.TrimPrefix(server.URL, "http://")
}

func TestPing(t *testing.T) {
	server := newWordPressServer(t)

	archiver, err := New(serverDomain(server), testConfig(t), nil)
	require.NoError(t, err)

	result, err := archiver.Ping(context.Background())
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/wp-json/", result.URL)
	assert.Equal(t, 5, result.Routes)
	assert.Contains(t, result.Names, "/wp/v2/posts")
}

func TestPingNonWordPressSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an API</html>"))
	}))
	defer server.Close()

	archiver, err := New(serverDomain(server), testConfig(t), nil)
	require.NoError(t, err)

	_, err = archiver.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeParsing))
}

func TestDumpSession(t *testing.T) {
	server := newWordPressServer(t)
	cfg := testConfig(t)

	archiver, err := New(serverDomain(server), cfg, nil)
	require.NoError(t, err)

	stats, err := archiver.Dump(context.Background())
	require.NoError(t, err)

	// posts (list), types (dict), and the opted-in unknown route are
	// processed; the protected and regex routes are skipped.
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)

	root := archiver.ArchiveDir()

	rawRoot, err := os.ReadFile(filepath.Join(root, "data", "wp-json.json"))
	require.NoError(t, err)
	assert.Contains(t, string(rawRoot), `"/wp/v2/posts"`)

	posts, err := os.ReadFile(filepath.Join(root, "data", "wp_v2_posts.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(posts), "\n"), "\n")
	assert.Len(t, lines, 2)

	types, err := os.ReadFile(filepath.Join(root, "data", "wp_v2_types.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"post": {"name": "Posts"}}`, string(types))

	_, err = os.Stat(filepath.Join(root, "data", "wp_v2_settings.json"))
	assert.True(t, os.IsNotExist(err), "protected routes must not be dumped")
}

func TestDumpSkipsUnknownWithoutOptIn(t *testing.T) {
	server := newWordPressServer(t)
	cfg := testConfig(t)
	cfg.Dump.IncludeUnknown = false

	archiver, err := New(serverDomain(server), cfg, nil)
	require.NoError(t, err)

	stats, err := archiver.Dump(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 3, stats.Skipped)

	_, err = os.Stat(filepath.Join(archiver.ArchiveDir(), "data", "custom_v1_thing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestDumpWithCustomKnownRoutes(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	rootDoc := fmt.Sprintf(`{
		"routes": {
			"/wp/v2/posts": {
				"namespace": "wp/v2",
				"endpoints": [{"methods": ["GET"], "args": {"page": {}, "per_page": {}}}],
				"_links": {"self": [{"href": %q}]}
			}
		}
	}`, server.URL+"/wp-json/wp/v2/posts")

	mux.HandleFunc("/wp-json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rootDoc))
	})
	mux.HandleFunc("/wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`[{"id": 1}]`))
			return
		}
		w.Write([]byte(`[]`))
	})

	known := filepath.Join(t.TempDir(), "routes.yml")
	require.NoError(t, os.WriteFile(known, []byte("public-list:\n- /wp/v2/posts\n"), 0o644))

	cfg := testConfig(t)
	cfg.Dump.KnownRoutes = known
	cfg.Dump.IncludeUnknown = false

	archiver, err := New(serverDomain(server), cfg, nil)
	require.NoError(t, err)

	stats, err := archiver.Dump(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.Skipped)
}

func TestDumpSkipsUnknownRouteWithoutEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	rootDoc := fmt.Sprintf(`{
		"routes": {
			"/custom/v1/bare": {
				"namespace": "custom/v1",
				"endpoints": [],
				"_links": {"self": [{"href": %q}]}
			}
		}
	}`, server.URL+"/wp-json/custom/v1/bare")

	mux.HandleFunc("/wp-json/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rootDoc))
	})
	var hits int
	mux.HandleFunc("/wp-json/custom/v1/bare", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"enabled": true}`))
	})

	cfg := testConfig(t)
	cfg.Dump.IncludeUnknown = true

	archiver, err := New(serverDomain(server), cfg, nil)
	require.NoError(t, err)

	stats, err := archiver.Dump(context.Background())
	require.NoError(t, err)

	// Nothing declares endpoints, so there is nothing to classify by and
	// the route is skipped without a request.
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, hits)

	_, err = os.Stat(filepath.Join(archiver.ArchiveDir(), "data", "custom_v1_bare.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyze(t *testing.T) {
	server := newWordPressServer(t)

	archiver, err := New(serverDomain(server), testConfig(t), nil)
	require.NoError(t, err)

	analysis, err := archiver.Analyze(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 5, analysis.Total)
	assert.Equal(t, wordpress.CategoryPublicList, analysis.Categories["/wp/v2/posts"])
	assert.Equal(t, wordpress.CategoryProtected, analysis.Categories["/wp/v2/settings"])
	assert.ElementsMatch(t, []string{"/custom/v1/thing", `/wp/v2/posts/(?P<id>[\d]+)`}, analysis.Unknown)
	assert.Equal(t, 2, analysis.Counts[wordpress.CategoryUnknown])
	assert.Empty(t, analysis.Rendered)
}

func TestAnalyzeWithProbe(t *testing.T) {
	server := newWordPressServer(t)

	archiver, err := New(serverDomain(server), testConfig(t), nil)
	require.NoError(t, err)

	analysis, err := archiver.Analyze(context.Background(), true)
	require.NoError(t, err)

	// The regex route resolves to useless without a probe; the custom
	// route probes to a dict.
	assert.Contains(t, analysis.Rendered, "public-dict:\n- /custom/v1/thing")
	assert.Contains(t, analysis.Rendered, "useless:")
}
