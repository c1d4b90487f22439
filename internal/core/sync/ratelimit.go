package sync

import (
	"context"
	"sync"
	"time"
)

// ProviderLimiter 對名稱查詢供應商的節流器：
// 滾動一小時視窗內最多 limit 次請求，且連續請求間隔不小於 minInterval。
// 額度用盡時 Acquire 阻塞到視窗內最舊的請求過期為止。
type ProviderLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	minInterval time.Duration
	calls       []time.Time // 視窗內的請求時間，由舊到新
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewProviderLimiter 創建供應商節流器
func NewProviderLimiter(limit int, window, minInterval time.Duration) *ProviderLimiter {
	return &ProviderLimiter{
		limit:       limit,
		window:      window,
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire 取得一次請求許可，必要時阻塞等待；ctx 取消時立即回傳
func (l *ProviderLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)

		var wait time.Duration
		if len(l.calls) >= l.limit {
			// 等到視窗內最舊的請求過期
			wait = l.calls[0].Add(l.window).Sub(now)
		} else if n := len(l.calls); n > 0 {
			if gap := now.Sub(l.calls[n-1]); gap < l.minInterval {
				wait = l.minInterval - gap
			}
		}

		if wait <= 0 {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// evict 移除滾出視窗的請求紀錄，caller 需持有鎖
func (l *ProviderLimiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

// Pending 回傳視窗內已用的額度，供觀測使用
func (l *ProviderLimiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.calls)
}
