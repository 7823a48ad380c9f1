package dump

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wparchive/pkg/errors"
)

func TestSingletonSavesBodyVerbatim(t *testing.T) {
	body := `{
  "description": "Just another WordPress site",
  "name": "Example"
}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	store := testStore(t)
	singleton := NewSingleton(testClient(), store, nil, nil)

	result, err := singleton.Dump(context.Background(), "/wp/v2/types", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "data/wp_v2_types.json", result.File)

	content, err := os.ReadFile(store.Path(result.File))
	require.NoError(t, err)
	assert.Equal(t, body, string(content))
}

func TestSingletonNon200IsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := testStore(t)
	singleton := NewSingleton(testClient(), store, nil, nil)

	_, err := singleton.Dump(context.Background(), "/wp/v2/types", server.URL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeAPI))
	assert.Equal(t, http.StatusInternalServerError, errs.StatusOf(err))
	assert.False(t, store.Exists("data/wp_v2_types.json"))
}

func TestSingletonTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	singleton := NewSingleton(testClient(), testStore(t), nil, nil)

	_, err := singleton.Dump(context.Background(), "/wp/v2/types", deadURL)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.TypeNetwork))
}
