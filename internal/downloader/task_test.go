package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskMirrorsURLPath(t *testing.T) {
	task, err := NewTask("https://example.com/wp-content/uploads/2024/01/photo.jpg?w=300")
	require.NoError(t, err)

	assert.Equal(t, "files/wp-content/uploads/2024/01/photo.jpg", task.Dest)
	assert.Equal(t, "https://example.com/wp-content/uploads/2024/01/photo.jpg?w=300", task.URL)
}

func TestNewTaskRejectsUnusableURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no path", "https://example.com"},
		{"directory path", "https://example.com/uploads/"},
		{"wrong scheme", "ftp://example.com/file.jpg"},
		{"unparseable", "https://exa mple.com/file.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.url)
			assert.Error(t, err)
		})
	}
}
