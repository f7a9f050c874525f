package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	mediasvc "github.com/Sardor018/Dating-bot-backend/internal/services/media"
)

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

// AddPhotos inserts the photo rows, records the agreement and refreshes the
// derived flags in a single transaction. The user row lock serialises
// concurrent uploads so the limit cannot be overshot.
func (r *MediaRepo) AddPhotos(ctx context.Context, chatID int64, objects []model.StoredObject, limit int, acceptAgreement bool, at time.Time) (model.User, []model.Photo, error) {
	if chatID <= 0 || len(objects) == 0 {
		return model.User{}, nil, mediasvc.ErrValidation
	}

	var (
		user   model.User
		photos []model.Photo
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := lockUser(ctx, tx, chatID, mediasvc.ErrUserNotFound)
		if err != nil {
			return err
		}

		occupied, err := photoPositions(ctx, tx, chatID)
		if err != nil {
			return err
		}
		if len(occupied)+len(objects) > limit {
			return mediasvc.ErrPhotoLimitReached
		}

		photos = make([]model.Photo, 0, len(objects))
		for _, obj := range objects {
			position := nextPosition(occupied, limit)
			if position == 0 {
				return mediasvc.ErrPhotoLimitReached
			}

			photo := model.Photo{ChatID: chatID, ObjectKey: obj.ObjectKey, ContentType: obj.ContentType}
			err := tx.QueryRow(ctx, `
INSERT INTO photos (chat_id, position, object_key, content_type, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, position, created_at
`, chatID, position, obj.ObjectKey, obj.ContentType).Scan(&photo.ID, &photo.Position, &photo.CreatedAt)
			if err != nil {
				if isPgCode(err, pgUniqueViolation) {
					return mediasvc.ErrPhotoLimitReached
				}
				return fmt.Errorf("insert photo: %w", err)
			}

			occupied[position] = struct{}{}
			photos = append(photos, photo)
		}

		locked.PhotoCount = len(occupied)
		if acceptAgreement && !locked.AgreementAccepted {
			acceptedAt := at.UTC()
			locked.AgreementAccepted = true
			locked.AgreementAcceptedAt = &acceptedAt
		}
		if err := saveUser(ctx, tx, &locked); err != nil {
			return err
		}

		user = locked
		return nil
	})
	if err != nil {
		return model.User{}, nil, err
	}

	return user, photos, nil
}

// SetSelfie stores the verification selfie. A user has at most one.
func (r *MediaRepo) SetSelfie(ctx context.Context, chatID int64, objectKey string) (model.User, error) {
	if chatID <= 0 || objectKey == "" {
		return model.User{}, mediasvc.ErrValidation
	}

	var user model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := lockUser(ctx, tx, chatID, mediasvc.ErrUserNotFound)
		if err != nil {
			return err
		}
		if locked.SelfieKey != "" {
			return mediasvc.ErrAlreadyVerified
		}

		locked.SelfieKey = objectKey
		locked.IsVerified = true
		if err := saveUser(ctx, tx, &locked); err != nil {
			return err
		}

		user = locked
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (r *MediaRepo) ListPhotos(ctx context.Context, chatID int64) ([]model.Photo, error) {
	return listPhotos(ctx, r.pool, chatID)
}

func listPhotos(ctx context.Context, pool *pgxpool.Pool, chatID int64) ([]model.Photo, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := pool.Query(ctx, `
SELECT id, chat_id, position, object_key, content_type, created_at
FROM photos
WHERE chat_id = $1
ORDER BY position ASC, id ASC
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	photos := make([]model.Photo, 0)
	for rows.Next() {
		var photo model.Photo
		if err := rows.Scan(&photo.ID, &photo.ChatID, &photo.Position, &photo.ObjectKey, &photo.ContentType, &photo.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate photos: %w", rows.Err())
	}

	return photos, nil
}

func photoPositions(ctx context.Context, tx pgx.Tx, chatID int64) (map[int]struct{}, error) {
	rows, err := tx.Query(ctx, `
SELECT position
FROM photos
WHERE chat_id = $1
ORDER BY position
`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query photo positions: %w", err)
	}
	defer rows.Close()

	positions := map[int]struct{}{}
	for rows.Next() {
		var position int
		if err := rows.Scan(&position); err != nil {
			return nil, fmt.Errorf("scan photo position: %w", err)
		}
		positions[position] = struct{}{}
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate photo positions: %w", rows.Err())
	}

	return positions, nil
}

func nextPosition(occupied map[int]struct{}, limit int) int {
	for i := 1; i <= limit; i++ {
		if _, ok := occupied[i]; !ok {
			return i
		}
	}
	return 0
}
