package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultUpdateTTL = 24 * time.Hour

// UpdateRepo remembers Telegram update ids so that a webhook redelivery is
// dispatched only once.
type UpdateRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUpdateRepo(client *goredis.Client, ttl time.Duration) *UpdateRepo {
	if ttl <= 0 {
		ttl = defaultUpdateTTL
	}
	return &UpdateRepo{client: client, ttl: ttl}
}

// MarkSeen reports true the first time an update id is observed.
func (r *UpdateRepo) MarkSeen(ctx context.Context, updateID int) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	ok, err := r.client.SetNX(ctx, updateKey(updateID), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark telegram update seen: %w", err)
	}
	return ok, nil
}

func updateKey(updateID int) string {
	return "tg:update:" + strconv.Itoa(updateID)
}
