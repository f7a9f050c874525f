package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	ActionLike   = "likes"
	ActionUpload = "uploads"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Rule allows at most Max hits per fixed Window. A non-positive Max disables
// the rule.
type Rule struct {
	Window time.Duration
	Max    int
}

type Limiter struct {
	store  WindowStore
	action string
	rules  []Rule
}

func NewLimiter(store WindowStore, action string, rules ...Rule) *Limiter {
	active := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Max <= 0 || rule.Window <= 0 {
			continue
		}
		active = append(active, rule)
	}

	return &Limiter{
		store:  store,
		action: action,
		rules:  active,
	}
}

// LikeRules builds the per-second, per-10-seconds and per-minute like windows.
func LikeRules(perSec, per10Sec, perMinute int) []Rule {
	return []Rule{
		{Window: time.Second, Max: perSec},
		{Window: 10 * time.Second, Max: per10Sec},
		{Window: time.Minute, Max: perMinute},
	}
}

// Allow counts one action for chatID in every window. When any window is over
// its limit it returns the seconds until the longest blocking window resets.
func (l *Limiter) Allow(ctx context.Context, chatID int64) (int64, bool, error) {
	if chatID <= 0 {
		return 0, false, fmt.Errorf("invalid chat id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)
	for _, rule := range l.rules {
		count, ttl, err := l.store.IncrementWindow(ctx, l.key(rule, chatID), rule.Window)
		if err != nil {
			return 0, false, err
		}
		if count > int64(rule.Max) {
			retryAfterSec = maxInt64(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func (l *Limiter) key(rule Rule, chatID int64) string {
	return "rate:" + l.action + ":" + rule.Window.String() + ":" + strconv.FormatInt(chatID, 10)
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

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}
