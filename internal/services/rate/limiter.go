package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

const (
	ActionSwipe   = "swipe"
	ActionMessage = "message"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limits caps one action per user in a one-minute and a ten-second window.
// A zero cap disables that window.
type Limits struct {
	PerMinute int
	Per10Sec  int
}

type Limiter struct {
	store  WindowStore
	limits map[string]Limits
}

func NewLimiter(store WindowStore, limits map[string]Limits) *Limiter {
	normalized := make(map[string]Limits, len(limits))
	for action, l := range limits {
		if l.PerMinute < 0 {
			l.PerMinute = 0
		}
		if l.Per10Sec < 0 {
			l.Per10Sec = 0
		}
		normalized[strings.ToLower(strings.TrimSpace(action))] = l
	}

	return &Limiter{
		store:  store,
		limits: normalized,
	}
}

// Allow counts one action and reports whether it fits both windows. When it
// does not, the returned value is the number of seconds until it would.
func (l *Limiter) Allow(ctx context.Context, action string, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	action = strings.ToLower(strings.TrimSpace(action))
	limits, ok := l.limits[action]
	if !ok {
		return 0, true, nil
	}

	retryAfterSec := int64(0)

	if limits.PerMinute > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, minuteKey(action, userID), minuteWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(limits.PerMinute) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl), 1)
		}
	}

	if limits.Per10Sec > 0 {
		count, ttl, err := l.store.IncrementWindow(ctx, tenSecKey(action, userID), tenSecWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(limits.Per10Sec) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl), 1)
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

// RetryAfter reads the windows without counting.
func (l *Limiter) RetryAfter(ctx context.Context, action string, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, fmt.Errorf("rate limiter store is nil")
	}

	action = strings.ToLower(strings.TrimSpace(action))
	limits, ok := l.limits[action]
	if !ok {
		return 0, nil
	}

	retryAfterSec := int64(0)

	if limits.PerMinute > 0 {
		count, ttl, err := l.store.WindowState(ctx, minuteKey(action, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(limits.PerMinute) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if limits.Per10Sec > 0 {
		count, ttl, err := l.store.WindowState(ctx, tenSecKey(action, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(limits.Per10Sec) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	return retryAfterSec, nil
}

// TooFastError is returned by services when the limiter rejects an action.
type TooFastError struct {
	Action        string
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast: " + e.Action
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func minuteKey(action string, userID int64) string {
	return "rate:" + action + ":min:" + strconv.FormatInt(userID, 10)
}

func tenSecKey(action string, userID int64) string {
	return "rate:" + action + ":10s:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
