package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "wparchive/pkg/errors"
)

func testConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, testConfig(3))

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.NewNetwork("http://x", "connection refused")
		}
		return nil
	}, testConfig(5))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.NewNetwork("http://x", "timeout")
	}, testConfig(4))

	assert.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.NewAPI("http://x", 403, "forbidden")
	}, testConfig(5))

	assert.Error(t, err)
	assert.Equal(t, 1, calls, "403 is not retried")
}

func TestDoAbortsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig(10)
	cfg.Context = ctx
	cfg.Backoff = &ConstantBackoff{Delay: time.Second}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			calls++
			return errs.NewNetwork("http://x", "timeout")
		}, cfg)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation during backoff prevents further attempts")
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(errs.NewTLSVerification("http://x", "bad cert")))
	assert.False(t, DefaultRetryIf(errs.NewAPI("http://x", 404, "gone")))
	assert.True(t, DefaultRetryIf(errs.NewAPI("http://x", 503, "unavailable")))
	assert.True(t, DefaultRetryIf(errs.NewNetwork("http://x", "refused")))
	assert.True(t, DefaultRetryIf(errors.New("opaque")))
}
