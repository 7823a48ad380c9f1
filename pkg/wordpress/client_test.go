package wordpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wparchive/pkg/errors"
)

func testClient(timeout time.Duration) *Client {
	return NewClient(ClientOptions{
		Timeout:   timeout,
		VerifyTLS: true,
		UserAgent: "wparchive-test",
	}, nil)
}

func TestGetReturnsBodyStatusAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wparchive-test", r.Header.Get("User-Agent"))
		w.Header().Set("X-WP-Total", "42")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"id": 1}]`))
	}))
	defer server.Close()

	resp, err := testClient(5 * time.Second).Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get("X-WP-Total"))
	assert.JSONEq(t, `[{"id": 1}]`, string(resp.Body))
}

func TestGetReturnsNon200WithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	resp, err := testClient(5 * time.Second).Get(context.Background(), server.URL)
	require.NoError(t, err, "status codes are data, not transport errors")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetTransportError(t *testing.T) {
	// Closed server: connection refused.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := testClient(time.Second).Get(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNetwork))
}

func TestGetCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := testClient(5 * time.Second).Get(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeCancelled), "cancellation is distinct from generic failure: %v", err)
}

func TestGetTLSVerificationFailure(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	// Verifying client must reject the self-signed certificate.
	_, err := testClient(5 * time.Second).Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeTLSVerification), "got %v", err)

	// Non-verifying client accepts it.
	insecure := NewClient(ClientOptions{Timeout: 5 * time.Second, VerifyTLS: false, UserAgent: "t"}, nil)
	resp, err := insecure.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"name": "site"}`))
		case "/bad-json":
			w.Write([]byte(`{"name": `))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(5 * time.Second)

	var target struct {
		Name string `json:"name"`
	}
	require.NoError(t, client.GetJSON(context.Background(), server.URL+"/ok", &target))
	assert.Equal(t, "site", target.Name)

	err := client.GetJSON(context.Background(), server.URL+"/bad-json", &target)
	assert.True(t, errs.IsType(err, errs.TypeParsing), "got %v", err)

	err = client.GetJSON(context.Background(), server.URL+"/missing", &target)
	assert.True(t, errs.IsType(err, errs.TypeAPI), "got %v", err)
	assert.Equal(t, http.StatusNotFound, errs.StatusOf(err))
}
