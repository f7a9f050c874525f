package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/enums"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	usersvc "github.com/Sardor018/Dating-bot-backend/internal/services/users"
)

const userColumns = `
	u.chat_id,
	u.language,
	u.name,
	u.instagram,
	u.bio,
	u.country,
	u.city,
	u.birth_date,
	u.gender,
	u.min_partner_age,
	u.is_profile_complete,
	u.is_verified,
	u.agreement_accepted,
	u.agreement_accepted_at,
	u.selfie_object_key,
	u.created_at,
	u.updated_at,
	(SELECT COUNT(*) FROM photos p WHERE p.chat_id = u.chat_id)`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Get(ctx context.Context, chatID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if chatID <= 0 {
		return model.User{}, fmt.Errorf("invalid chat_id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+`
FROM users u
WHERE u.chat_id = $1
`, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, usersvc.ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// Mutate locks the user row, lets fn edit it and writes it back in one
// transaction. With create set the row is inserted first when missing.
func (r *UserRepo) Mutate(ctx context.Context, chatID int64, create bool, fn func(*model.User) error) (model.User, error) {
	if chatID <= 0 {
		return model.User{}, fmt.Errorf("invalid chat_id")
	}

	var out model.User
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if create {
			if _, err := tx.Exec(ctx, `
INSERT INTO users (chat_id, created_at, updated_at)
VALUES ($1, NOW(), NOW())
ON CONFLICT (chat_id) DO NOTHING
`, chatID); err != nil {
				return fmt.Errorf("insert user: %w", err)
			}
		}

		user, err := lockUser(ctx, tx, chatID, usersvc.ErrNotFound)
		if err != nil {
			return err
		}
		if err := fn(&user); err != nil {
			return err
		}
		if err := saveUser(ctx, tx, &user); err != nil {
			return err
		}

		out = user
		return nil
	})
	if err != nil {
		return model.User{}, err
	}

	return out, nil
}

func (r *UserRepo) ListPhotos(ctx context.Context, chatID int64) ([]model.Photo, error) {
	return listPhotos(ctx, r.pool, chatID)
}

// lockUser reads the row FOR UPDATE. notFound is returned when the row is
// missing so each caller can surface its own sentinel.
func lockUser(ctx context.Context, tx pgx.Tx, chatID int64, notFound error) (model.User, error) {
	user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+`
FROM users u
WHERE u.chat_id = $1
FOR UPDATE OF u
`, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, notFound
		}
		return model.User{}, fmt.Errorf("lock user: %w", err)
	}
	return user, nil
}

// saveUser writes every mutable column. Completeness and verification are
// OR-ed with the stored value so they never revert.
func saveUser(ctx context.Context, tx pgx.Tx, user *model.User) error {
	rules.ApplyDerivedFlags(user)

	var birthDate *time.Time
	if user.BirthDate != nil {
		d := user.BirthDate.UTC()
		birthDate = &d
	}

	err := tx.QueryRow(ctx, `
UPDATE users
SET
	language = $2,
	name = $3,
	instagram = $4,
	bio = $5,
	country = $6,
	city = $7,
	birth_date = $8,
	gender = $9,
	min_partner_age = $10,
	is_profile_complete = is_profile_complete OR $11,
	is_verified = is_verified OR $12,
	agreement_accepted = agreement_accepted OR $13,
	agreement_accepted_at = COALESCE(agreement_accepted_at, $14),
	selfie_object_key = $15,
	updated_at = NOW()
WHERE chat_id = $1
RETURNING is_profile_complete, is_verified, agreement_accepted, agreement_accepted_at, updated_at
`,
		user.ChatID,
		string(user.Language),
		user.Name,
		user.Instagram,
		user.Bio,
		user.Country,
		user.City,
		birthDate,
		string(user.Gender),
		user.MinPartnerAge,
		user.IsProfileComplete,
		user.IsVerified,
		user.AgreementAccepted,
		user.AgreementAcceptedAt,
		user.SelfieKey,
	).Scan(
		&user.IsProfileComplete,
		&user.IsVerified,
		&user.AgreementAccepted,
		&user.AgreementAcceptedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user     model.User
		language string
		gender   string
	)
	if err := row.Scan(
		&user.ChatID,
		&language,
		&user.Name,
		&user.Instagram,
		&user.Bio,
		&user.Country,
		&user.City,
		&user.BirthDate,
		&gender,
		&user.MinPartnerAge,
		&user.IsProfileComplete,
		&user.IsVerified,
		&user.AgreementAccepted,
		&user.AgreementAcceptedAt,
		&user.SelfieKey,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.PhotoCount,
	); err != nil {
		return model.User{}, err
	}
	user.Language = enums.Language(language)
	user.Gender = enums.Gender(gender)
	return user, nil
}
