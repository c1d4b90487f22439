package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 手動推進的時鐘，sleep 直接前進時間而不真正等待
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(limit int, window, minInterval time.Duration) (*ProviderLimiter, *fakeClock) {
	clock := newFakeClock()
	l := NewProviderLimiter(limit, window, minInterval)
	l.now = clock.Now
	l.sleep = clock.Sleep
	return l, clock
}

func TestAcquireUnderLimitDoesNotBlock(t *testing.T) {
	l, clock := newTestLimiter(3, time.Hour, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
	assert.Zero(t, clock.sleeps)
	assert.Equal(t, 3, l.Pending())
}

func TestAcquireBlocksUntilOldestExpires(t *testing.T) {
	l, clock := newTestLimiter(2, time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	clock.now = clock.now.Add(10 * time.Minute)
	require.NoError(t, l.Acquire(ctx))

	// 額度用盡，第三次要等到第一筆滾出視窗
	require.NoError(t, l.Acquire(ctx))
	require.NotEmpty(t, clock.slept)
	assert.Equal(t, 50*time.Minute, clock.slept[0])
	assert.Equal(t, 2, l.Pending())
}

func TestAcquireEnforcesMinInterval(t *testing.T) {
	l, clock := newTestLimiter(100, time.Hour, 2*time.Second)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	require.NotEmpty(t, clock.slept)
	assert.Equal(t, 2*time.Second, clock.slept[0])
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	l, _ := newTestLimiter(1, time.Hour, 0)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Acquire(ctx))
	cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
