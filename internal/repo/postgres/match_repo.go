package postgres

import (
	"context"
	"fmt"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
)

// ListMatches returns users that chatID likes and that like chatID back.
func (r *CandidateRepo) ListMatches(ctx context.Context, chatID int64) ([]model.Candidate, error) {
	if chatID <= 0 {
		return nil, fmt.Errorf("invalid chat id")
	}
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	u.chat_id,
	u.name,
	u.bio,
	COALESCE(ph.object_key, '')
FROM likes mine
JOIN likes theirs
	ON theirs.from_chat_id = mine.to_chat_id
	AND theirs.to_chat_id = mine.from_chat_id
JOIN users u ON u.chat_id = mine.to_chat_id
LEFT JOIN LATERAL (
	SELECT p.object_key
	FROM photos p
	WHERE p.chat_id = u.chat_id
	ORDER BY p.position ASC
	LIMIT 1
) ph ON TRUE
WHERE mine.from_chat_id = $1
ORDER BY u.chat_id ASC
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return collectCandidates(rows)
}
