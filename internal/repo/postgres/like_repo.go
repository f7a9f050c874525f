package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

func (r *LikeRepo) UsersExist(ctx context.Context, a, b int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var found int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM users
WHERE chat_id IN ($1, $2)
`, a, b).Scan(&found); err != nil {
		return false, fmt.Errorf("count like users: %w", err)
	}

	want := 2
	if a == b {
		want = 1
	}
	return found == want, nil
}

// RecordLike is an idempotent set-add keyed by (from, to). Both user rows are
// locked in chat_id order before the insert, which serialises likes within a
// pair: of two concurrent reciprocal likes the later one sees the earlier.
func (r *LikeRepo) RecordLike(ctx context.Context, fromChatID, toChatID int64) (matchingsvc.LikeOutcome, error) {
	if fromChatID <= 0 || toChatID <= 0 || fromChatID == toChatID {
		return matchingsvc.LikeOutcome{}, fmt.Errorf("invalid like payload")
	}

	var outcome matchingsvc.LikeOutcome
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockPair(ctx, tx, fromChatID, toChatID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `
INSERT INTO likes (from_chat_id, to_chat_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (from_chat_id, to_chat_id) DO NOTHING
`, fromChatID, toChatID)
		if err != nil {
			if isPgCode(err, pgForeignKeyViolation) {
				return matchingsvc.ErrUserNotFound
			}
			return fmt.Errorf("insert like: %w", err)
		}
		outcome.Inserted = result.RowsAffected() > 0

		if err := tx.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM likes
	WHERE from_chat_id = $1 AND to_chat_id = $2
)
`, toChatID, fromChatID).Scan(&outcome.Mutual); err != nil {
			return fmt.Errorf("lookup reverse like: %w", err)
		}

		return nil
	})
	if err != nil {
		return matchingsvc.LikeOutcome{}, err
	}

	return outcome, nil
}

func lockPair(ctx context.Context, tx pgx.Tx, a, b int64) error {
	rows, err := tx.Query(ctx, `
SELECT chat_id
FROM users
WHERE chat_id IN ($1, $2)
ORDER BY chat_id
FOR NO KEY UPDATE
`, a, b)
	if err != nil {
		return fmt.Errorf("lock like pair: %w", err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		found++
	}
	if rows.Err() != nil {
		return fmt.Errorf("lock like pair: %w", rows.Err())
	}
	if found != 2 {
		return matchingsvc.ErrUserNotFound
	}

	return nil
}
