package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledForNonPositiveRate(t *testing.T) {
	assert.Nil(t, New(0))
	assert.Nil(t, New(-1))

	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
	l.Backoff(time.Second)
	assert.False(t, l.CoolingDown())
}

func TestLimiter_WaitWithinBurst(t *testing.T) {
	l := New(5)
	require.NotNil(t, l)

	ctx := context.Background()
	for range 5 {
		require.NoError(t, l.Wait(ctx))
	}
}

func TestLimiter_BackoffBlocksUntilCancelled(t *testing.T) {
	l := New(10)
	l.Backoff(time.Hour)
	assert.True(t, l.CoolingDown())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiter_BackoffNeverShortens(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1)
	l.now = func() time.Time { return base }

	l.Backoff(time.Minute)
	l.Backoff(time.Second)

	assert.Equal(t, base.Add(time.Minute), l.retryAt)
}

func TestLimiter_DefaultBackoff(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1)
	l.now = func() time.Time { return base }

	l.Backoff(0)
	assert.Equal(t, base.Add(DefaultBackoff), l.retryAt)
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"12", 12 * time.Second},
		{"0", 0},
		{"-3", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryAfter(tt.header))
		})
	}
}
