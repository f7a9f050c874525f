package rate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redrepo "github.com/Sardor018/Dating-bot-backend/internal/repo/redis"
)

func TestLimiterBlocksOn10SecondWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	limiter := NewLimiter(repo, ActionLike, LikeRules(0, 2, 100)...)

	ctx := context.Background()
	chatID := int64(42)

	for i := 0; i < 2; i++ {
		retryAfter, allowed, err := limiter.Allow(ctx, chatID)
		if err != nil {
			t.Fatalf("allow like #%d: %v", i+1, err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unexpected result on allow #%d: allowed=%v retry_after=%d", i+1, allowed, retryAfter)
		}
	}

	retryAfter, allowed, err := limiter.Allow(ctx, chatID)
	if err != nil {
		t.Fatalf("allow like #3: %v", err)
	}
	if allowed {
		t.Fatalf("expected limiter block on third action in 10s window")
	}
	if retryAfter <= 0 || retryAfter > 10 {
		t.Fatalf("expected retry_after within the 10s window, got %d", retryAfter)
	}

	mr.FastForward(11 * time.Second)

	retryAfter, allowed, err = limiter.Allow(ctx, chatID)
	if err != nil {
		t.Fatalf("allow like after 10s window: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after fast forward: allowed=%v retry_after=%d", allowed, retryAfter)
	}
}

func TestLimiterKeepsActionsAndUsersApart(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := redrepo.NewRateRepo(client)
	likes := NewLimiter(repo, ActionLike, Rule{Window: time.Minute, Max: 1})
	uploads := NewLimiter(repo, ActionUpload, Rule{Window: time.Minute, Max: 1})
	ctx := context.Background()

	if _, allowed, err := likes.Allow(ctx, 1); err != nil || !allowed {
		t.Fatalf("first like should pass: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := uploads.Allow(ctx, 1); err != nil || !allowed {
		t.Fatalf("upload must not share the like bucket: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := likes.Allow(ctx, 2); err != nil || !allowed {
		t.Fatalf("another user must not share the bucket: allowed=%v err=%v", allowed, err)
	}
	if _, allowed, err := likes.Allow(ctx, 1); err != nil || allowed {
		t.Fatalf("second like in the minute should be blocked: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterWithoutRulesAlwaysAllows(t *testing.T) {
	limiter := NewLimiter(stubStore{}, ActionLike, LikeRules(0, 0, 0)...)
	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.Allow(context.Background(), 7); err != nil || !allowed {
			t.Fatalf("disabled limiter must allow: allowed=%v err=%v", allowed, err)
		}
	}
}

func TestCeilSeconds(t *testing.T) {
	cases := map[time.Duration]int64{
		0:                       0,
		300 * time.Millisecond:  1,
		time.Second:             1,
		1500 * time.Millisecond: 2,
	}
	for in, want := range cases {
		if got := ceilSeconds(in); got != want {
			t.Fatalf("ceilSeconds(%s) = %d, want %d", in, got, want)
		}
	}
}

type stubStore struct{}

func (stubStore) IncrementWindow(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 1000, time.Minute, nil
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}

func TestIsTooFastUnwraps(t *testing.T) {
	err := fmt.Errorf("record like: %w", TooFastError{RetryAfterSec: 0})
	tf, ok := IsTooFast(err)
	if !ok {
		t.Fatalf("expected wrapped TooFastError to be detected")
	}
	if tf.RetryAfter() != 1 {
		t.Fatalf("retry_after must be at least 1, got %d", tf.RetryAfter())
	}
}
