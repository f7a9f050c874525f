package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
)

// These tests run against a real database and are skipped unless
// POSTGRES_DSN is set. The schema is applied from migrations/ and every row
// they create is removed afterwards.

type fixture struct {
	pool       *pgxpool.Pool
	users      *UserRepo
	media      *MediaRepo
	likes      *LikeRepo
	candidates *CandidateRepo
	nextID     int64
	created    []int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN is not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "0001_init.sql"))
	if err != nil {
		pool.Close()
		t.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		t.Fatalf("apply schema: %v", err)
	}

	f := &fixture{
		pool:       pool,
		users:      NewUserRepo(pool),
		media:      NewMediaRepo(pool),
		likes:      NewLikeRepo(pool),
		candidates: NewCandidateRepo(pool),
		nextID:     time.Now().UnixNano()%1_000_000_000*1000 + 1_000_000_000_000,
	}
	t.Cleanup(func() {
		f.cleanup(t)
		pool.Close()
	})
	return f
}

func (f *fixture) cleanup(t *testing.T) {
	t.Helper()
	if len(f.created) == 0 {
		return
	}
	ctx := context.Background()
	for _, stmt := range []string{
		`DELETE FROM likes WHERE from_chat_id = ANY($1) OR to_chat_id = ANY($1)`,
		`DELETE FROM photos WHERE chat_id = ANY($1)`,
		`DELETE FROM users WHERE chat_id = ANY($1)`,
	} {
		if _, err := f.pool.Exec(ctx, stmt, f.created); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}
}

// user creates a profile with the required fields. withPhoto decides whether
// it becomes complete.
func (f *fixture) user(t *testing.T, name string, withPhoto bool) int64 {
	t.Helper()
	ctx := context.Background()

	f.nextID++
	chatID := f.nextID
	f.created = append(f.created, chatID)

	birth := time.Date(1998, 3, 14, 0, 0, 0, 0, time.UTC)
	if _, err := f.users.Mutate(ctx, chatID, true, func(u *model.User) error {
		u.Name = name
		u.Country = "UZ"
		u.BirthDate = &birth
		return nil
	}); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}

	if withPhoto {
		user, _, err := f.media.AddPhotos(ctx, chatID, []model.StoredObject{
			{ObjectKey: fmt.Sprintf("users/%d/photos/first.jpg", chatID), ContentType: "image/jpeg"},
			{ObjectKey: fmt.Sprintf("users/%d/photos/second.jpg", chatID), ContentType: "image/jpeg"},
		}, 3, true, time.Now())
		if err != nil {
			t.Fatalf("add photos for %s: %v", name, err)
		}
		if !user.IsProfileComplete {
			t.Fatalf("user %s must be complete after a photo upload", name)
		}
	}
	return chatID
}

// ours keeps the candidates created by this fixture; the database may hold
// rows from other runs.
func (f *fixture) ours(items []model.Candidate) []int64 {
	mine := make(map[int64]struct{}, len(f.created))
	for _, id := range f.created {
		mine[id] = struct{}{}
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := mine[item.ChatID]; ok {
			out = append(out, item.ChatID)
		}
	}
	return out
}

func (f *fixture) likeCount(t *testing.T, from int64) int {
	t.Helper()
	var n int
	if err := f.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM likes WHERE from_chat_id = $1`, from).Scan(&n); err != nil {
		t.Fatalf("count likes: %v", err)
	}
	return n
}

func sameIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestIntegrationLikesAndCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ann := f.user(t, "Ann", true)
	bob := f.user(t, "Bob", true)
	cat := f.user(t, "Cat", true)
	dan := f.user(t, "Dan", false)

	complete, err := f.candidates.ProfileComplete(ctx, dan)
	if err != nil || complete {
		t.Fatalf("user without photos must be incomplete: %v %v", complete, err)
	}
	if _, err := f.candidates.ProfileComplete(ctx, f.nextID+1); !errors.Is(err, matchingsvc.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for missing user, got %v", err)
	}

	items, err := f.candidates.ListCandidates(ctx, matchingsvc.CandidateQuery{ViewerChatID: ann})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if got := f.ours(items); !sameIDs(got, []int64{bob, cat}) {
		t.Fatalf("candidates must exclude self and incomplete users: got %v", got)
	}
	for _, item := range items {
		if item.ChatID == bob && item.PhotoKey != fmt.Sprintf("users/%d/photos/first.jpg", bob) {
			t.Fatalf("first photo must represent the candidate, got %q", item.PhotoKey)
		}
	}

	outcome, err := f.likes.RecordLike(ctx, ann, bob)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !outcome.Inserted || outcome.Mutual {
		t.Fatalf("first one-sided like: %+v", outcome)
	}
	outcome, err = f.likes.RecordLike(ctx, ann, bob)
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if outcome.Inserted || outcome.Mutual {
		t.Fatalf("repeated like must be a no-op: %+v", outcome)
	}
	if got := f.likeCount(t, ann); got != 1 {
		t.Fatalf("liked set must hold one entry, got %d", got)
	}
	if got := f.likeCount(t, bob); got != 0 {
		t.Fatalf("target's liked set must not change, got %d", got)
	}

	items, err = f.candidates.ListCandidates(ctx, matchingsvc.CandidateQuery{ViewerChatID: ann})
	if err != nil {
		t.Fatalf("list candidates after like: %v", err)
	}
	if got := f.ours(items); !sameIDs(got, []int64{cat}) {
		t.Fatalf("liked user must leave the candidate list: got %v", got)
	}

	outcome, err = f.likes.RecordLike(ctx, bob, ann)
	if err != nil {
		t.Fatalf("reciprocal like: %v", err)
	}
	if !outcome.Inserted || !outcome.Mutual {
		t.Fatalf("reciprocal like must match: %+v", outcome)
	}

	matches, err := f.candidates.ListMatches(ctx, ann)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if got := f.ours(matches); !sameIDs(got, []int64{bob}) {
		t.Fatalf("unexpected matches: %v", got)
	}

	missing := f.nextID + 1
	if _, err := f.likes.RecordLike(ctx, ann, missing); !errors.Is(err, matchingsvc.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown target, got %v", err)
	}
	if got := f.likeCount(t, ann); got != 1 {
		t.Fatalf("failed like must not be stored, got %d likes", got)
	}

	exist, err := f.likes.UsersExist(ctx, ann, cat)
	if err != nil || !exist {
		t.Fatalf("both users exist: %v %v", exist, err)
	}
	exist, err = f.likes.UsersExist(ctx, ann, missing)
	if err != nil || exist {
		t.Fatalf("unknown user must be reported: %v %v", exist, err)
	}
}

func TestIntegrationCandidateCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	viewer := f.user(t, "Viewer", true)
	first := f.user(t, "First", true)
	second := f.user(t, "Second", true)

	items, err := f.candidates.ListCandidates(ctx, matchingsvc.CandidateQuery{
		ViewerChatID: viewer,
		AfterChatID:  first,
	})
	if err != nil {
		t.Fatalf("list after cursor: %v", err)
	}
	if got := f.ours(items); !sameIDs(got, []int64{second}) {
		t.Fatalf("cursor must be exclusive: got %v", got)
	}

	items, err = f.candidates.ListCandidates(ctx, matchingsvc.CandidateQuery{
		ViewerChatID: viewer,
		AfterChatID:  viewer,
		Limit:        1,
	})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(items) != 1 || items[0].ChatID != first {
		t.Fatalf("limit must return the next chat id only: %+v", items)
	}
}

func TestIntegrationConcurrentReciprocalLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		a := f.user(t, "A", true)
		b := f.user(t, "B", true)

		var (
			wg       sync.WaitGroup
			outcomes [2]matchingsvc.LikeOutcome
			errs     [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			outcomes[0], errs[0] = f.likes.RecordLike(ctx, a, b)
		}()
		go func() {
			defer wg.Done()
			outcomes[1], errs[1] = f.likes.RecordLike(ctx, b, a)
		}()
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d like %d: %v", round, i, err)
			}
		}
		mutual := 0
		for _, o := range outcomes {
			if o.Mutual {
				mutual++
			}
		}
		if mutual != 1 {
			t.Fatalf("round %d: exactly one of two concurrent reciprocal likes must see the match, got %d", round, mutual)
		}
	}
}
