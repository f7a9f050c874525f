package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
)

type CandidateRepo struct {
	pool *pgxpool.Pool
}

func NewCandidateRepo(pool *pgxpool.Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

func (r *CandidateRepo) ProfileComplete(ctx context.Context, chatID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var complete bool
	err := r.pool.QueryRow(ctx, `
SELECT is_profile_complete
FROM users
WHERE chat_id = $1
`, chatID).Scan(&complete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, matchingsvc.ErrUserNotFound
		}
		return false, fmt.Errorf("get profile completeness: %w", err)
	}

	return complete, nil
}

// ListCandidates returns complete profiles except the viewer and anyone the
// viewer already liked. The first photo by position represents each user.
func (r *CandidateRepo) ListCandidates(ctx context.Context, q matchingsvc.CandidateQuery) ([]model.Candidate, error) {
	if q.ViewerChatID <= 0 {
		return nil, fmt.Errorf("invalid viewer chat id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var limit any
	if q.Limit > 0 {
		limit = q.Limit
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	u.chat_id,
	u.name,
	u.bio,
	COALESCE(ph.object_key, '')
FROM users u
LEFT JOIN LATERAL (
	SELECT p.object_key
	FROM photos p
	WHERE p.chat_id = u.chat_id
	ORDER BY p.position ASC
	LIMIT 1
) ph ON TRUE
WHERE
	u.is_profile_complete = TRUE
	AND u.chat_id <> $1
	AND u.chat_id > $2
	AND NOT EXISTS (
		SELECT 1
		FROM likes l
		WHERE l.from_chat_id = $1
			AND l.to_chat_id = u.chat_id
	)
ORDER BY u.chat_id ASC
LIMIT $3
`, q.ViewerChatID, q.AfterChatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return collectCandidates(rows)
}

func collectCandidates(rows pgx.Rows) ([]model.Candidate, error) {
	defer rows.Close()

	items := make([]model.Candidate, 0)
	for rows.Next() {
		var item model.Candidate
		if err := rows.Scan(&item.ChatID, &item.Name, &item.Bio, &item.PhotoKey); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate candidates: %w", rows.Err())
	}

	return items, nil
}
