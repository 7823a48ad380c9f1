package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.5s", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "42.0s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h1m5s", FormatDuration(time.Hour+65*time.Second))
}
