package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptorWithSelf(selfURL string, argNames ...string) *RouteDescriptor {
	args := make(map[string]json.RawMessage, len(argNames))
	for _, name := range argNames {
		args[name] = json.RawMessage(`{}`)
	}
	return &RouteDescriptor{
		Endpoints: []Endpoint{{Methods: []string{"GET"}, Args: args}},
		Links:     RouteLinks{Self: json.RawMessage(fmt.Sprintf(`{"href": %q}`, selfURL))},
	}
}

func newTestClassifier() *Classifier {
	return NewClassifier(testClient(5*time.Second), nil)
}

func TestClassifyProtected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	// 403 wins regardless of declared args.
	desc := descriptorWithSelf(server.URL, "page", "per_page")
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/secrets", desc)
	assert.Equal(t, CategoryProtected, cat)

	desc = descriptorWithSelf(server.URL)
	cat = newTestClassifier().Classify(context.Background(), "/acme/v1/secrets", desc)
	assert.Equal(t, CategoryProtected, cat)
}

func TestClassifyPublicListViaPaginationProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[{"id": 1}]`))
	}))
	defer server.Close()

	desc := descriptorWithSelf(server.URL, "page", "per_page")
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/things", desc)
	assert.Equal(t, CategoryPublicList, cat)
}

func TestClassifyPublicDict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version": "1.0"}`))
	}))
	defer server.Close()

	desc := descriptorWithSelf(server.URL, "context")
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/info", desc)
	assert.Equal(t, CategoryPublicDict, cat)
}

func TestClassifyPerItemHeuristic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 17, "title": "one post"}`))
	}))
	defer server.Close()

	// Numeric suffix, more than 3 segments, object with id field.
	desc := descriptorWithSelf(server.URL)
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/things/17", desc)
	assert.Equal(t, CategoryUseless, cat)

	// Shallow path does not trip the heuristic; object stays a dict.
	cat = newTestClassifier().Classify(context.Background(), "/acme/17", desc)
	assert.Equal(t, CategoryPublicDict, cat)
}

func TestClassifyRegexPatternSkipsProbe(t *testing.T) {
	probed := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = true
	}))
	defer server.Close()

	desc := descriptorWithSelf(server.URL, "page", "per_page")
	cat := newTestClassifier().Classify(context.Background(), `/acme/v1/things/(?P<id>[\d]+)`, desc)
	assert.Equal(t, CategoryUseless, cat)
	assert.False(t, probed, "regex-pattern routes are never probed")
}

func TestClassifyNoEndpointsUnresolved(t *testing.T) {
	desc := &RouteDescriptor{}
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/empty", desc)
	assert.Equal(t, CategoryUnknown, cat)
}

func TestClassifyTransportErrorFallsBackToArgs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	tests := []struct {
		name string
		args []string
		want Category
	}{
		{"paginated args fall back to list", []string{"page", "per_page"}, CategoryPublicList},
		{"other args fall back to dict", []string{"context"}, CategoryPublicDict},
		{"no args stays unresolved", nil, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := descriptorWithSelf(deadURL, tt.args...)
			cat := newTestClassifier().Classify(context.Background(), "/acme/v1/things", desc)
			assert.Equal(t, tt.want, cat)
		})
	}
}

func TestClassifyNoSelfLinkFallsBackToArgs(t *testing.T) {
	desc := &RouteDescriptor{
		Endpoints: []Endpoint{{Args: ArgSet{
			"page":     json.RawMessage(`{}`),
			"per_page": json.RawMessage(`{}`),
		}}},
	}
	cat := newTestClassifier().Classify(context.Background(), "/acme/v1/things", desc)
	assert.Equal(t, CategoryPublicList, cat)
}

func TestClassifyAllDefaultsUnresolvedToUseless(t *testing.T) {
	root := &RootDocument{
		Routes: map[string]RouteDescriptor{
			"/acme/v1/empty": {},
		},
	}

	categorized := newTestClassifier().ClassifyAll(context.Background(), []string{"/acme/v1/empty", "/not/in/root"}, root)
	assert.Equal(t, []string{"/acme/v1/empty"}, categorized[CategoryUseless])
}

func TestRenderTable(t *testing.T) {
	rendered := RenderTable(map[Category][]string{
		CategoryPublicList: {"/wp/v2/zzz", "/wp/v2/aaa"},
		CategoryProtected:  {"/wp/v2/secret"},
		CategoryUseless:    {},
	})

	assert.Equal(t, "protected:\n- /wp/v2/secret\npublic-list:\n- /wp/v2/aaa\n- /wp/v2/zzz", rendered)
}
