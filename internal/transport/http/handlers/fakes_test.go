package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	"github.com/Sardor018/Dating-bot-backend/internal/domain/rules"
	matchingsvc "github.com/Sardor018/Dating-bot-backend/internal/services/matching"
	mediasvc "github.com/Sardor018/Dating-bot-backend/internal/services/media"
	profilesvc "github.com/Sardor018/Dating-bot-backend/internal/services/profiles"
	userssvc "github.com/Sardor018/Dating-bot-backend/internal/services/users"
)

// memStore backs every service with one in-memory dataset so handler tests
// can walk a user from registration to a match.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	photos map[int64][]model.Photo
	liked  map[int64]map[int64]struct{}
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int64]*model.User{},
		photos: map[int64][]model.Photo{},
		liked:  map[int64]map[int64]struct{}{},
	}
}

// addComplete registers a user that already satisfies the completeness rule.
func (m *memStore) addComplete(chatID int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	birth := time.Date(1995, 5, 1, 0, 0, 0, 0, time.UTC)
	m.users[chatID] = &model.User{
		ChatID:            chatID,
		Name:              name,
		Country:           "UZ",
		BirthDate:         &birth,
		PhotoCount:        1,
		IsProfileComplete: true,
	}
	m.nextID++
	m.photos[chatID] = []model.Photo{{ID: m.nextID, ChatID: chatID, Position: 1, ObjectKey: fmt.Sprintf("users/%d/photos/p.jpg", chatID)}}
}

func (m *memStore) addIncomplete(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[chatID] = &model.User{ChatID: chatID}
}

func (m *memStore) Get(_ context.Context, chatID int64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return model.User{}, userssvc.ErrNotFound
	}
	return *u, nil
}

func (m *memStore) Mutate(_ context.Context, chatID int64, create bool, fn func(*model.User) error) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[chatID]
	if !ok {
		if !create {
			return model.User{}, userssvc.ErrNotFound
		}
		u = &model.User{ChatID: chatID}
	}
	next := *u
	if err := fn(&next); err != nil {
		return model.User{}, err
	}
	rules.ApplyDerivedFlags(&next)
	m.users[chatID] = &next
	return next, nil
}

func (m *memStore) ListPhotos(_ context.Context, chatID int64) ([]model.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Photo(nil), m.photos[chatID]...), nil
}

func (m *memStore) AddPhotos(_ context.Context, chatID int64, objects []model.StoredObject, limit int, acceptAgreement bool, at time.Time) (model.User, []model.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[chatID]
	if !ok {
		return model.User{}, nil, mediasvc.ErrUserNotFound
	}
	if len(m.photos[chatID])+len(objects) > limit {
		return model.User{}, nil, mediasvc.ErrPhotoLimitReached
	}

	added := make([]model.Photo, 0, len(objects))
	for _, obj := range objects {
		m.nextID++
		photo := model.Photo{
			ID:          m.nextID,
			ChatID:      chatID,
			Position:    len(m.photos[chatID]) + 1,
			ObjectKey:   obj.ObjectKey,
			ContentType: obj.ContentType,
			CreatedAt:   at,
		}
		m.photos[chatID] = append(m.photos[chatID], photo)
		added = append(added, photo)
	}

	u.PhotoCount = len(m.photos[chatID])
	if acceptAgreement && !u.AgreementAccepted {
		u.AgreementAccepted = true
		u.AgreementAcceptedAt = &at
	}
	rules.ApplyDerivedFlags(u)
	return *u, added, nil
}

func (m *memStore) SetSelfie(_ context.Context, chatID int64, objectKey string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[chatID]
	if !ok {
		return model.User{}, mediasvc.ErrUserNotFound
	}
	if u.SelfieKey != "" {
		return model.User{}, mediasvc.ErrAlreadyVerified
	}
	u.SelfieKey = objectKey
	u.IsVerified = true
	return *u, nil
}

func (m *memStore) UsersExist(_ context.Context, a, b int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, okA := m.users[a]
	_, okB := m.users[b]
	return okA && okB, nil
}

func (m *memStore) RecordLike(_ context.Context, from, to int64) (matchingsvc.LikeOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[from]; !ok {
		return matchingsvc.LikeOutcome{}, matchingsvc.ErrUserNotFound
	}
	if _, ok := m.users[to]; !ok {
		return matchingsvc.LikeOutcome{}, matchingsvc.ErrUserNotFound
	}
	if m.liked[from] == nil {
		m.liked[from] = map[int64]struct{}{}
	}
	_, existed := m.liked[from][to]
	m.liked[from][to] = struct{}{}
	_, mutual := m.liked[to][from]
	return matchingsvc.LikeOutcome{Inserted: !existed, Mutual: mutual}, nil
}

func (m *memStore) ProfileComplete(_ context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return false, matchingsvc.ErrUserNotFound
	}
	return u.IsProfileComplete, nil
}

func (m *memStore) ListCandidates(_ context.Context, q matchingsvc.CandidateQuery) ([]model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Candidate, 0)
	for _, id := range m.sortedIDs() {
		u := m.users[id]
		if id == q.ViewerChatID || id <= q.AfterChatID || !u.IsProfileComplete {
			continue
		}
		if _, liked := m.liked[q.ViewerChatID][id]; liked {
			continue
		}
		out = append(out, m.candidate(u))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) ListMatches(_ context.Context, chatID int64) ([]model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Candidate, 0)
	for _, id := range m.sortedIDs() {
		_, a := m.liked[chatID][id]
		_, b := m.liked[id][chatID]
		if a && b {
			out = append(out, m.candidate(m.users[id]))
		}
	}
	return out, nil
}

func (m *memStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) candidate(u *model.User) model.Candidate {
	c := model.Candidate{ChatID: u.ChatID, Name: u.Name, Bio: u.Bio}
	if photos := m.photos[u.ChatID]; len(photos) > 0 {
		c.PhotoKey = photos[0].ObjectKey
	}
	return c
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) EnsureBucket(context.Context) error { return nil }

func (s *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key + "?sig=1", nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type limiterStub struct {
	allowed    bool
	retryAfter int64
}

func (l limiterStub) Allow(context.Context, int64) (int64, bool, error) {
	return l.retryAfter, l.allowed, nil
}

type testServices struct {
	store    *memStore
	storage  *memStorage
	users    *userssvc.Service
	profiles *profilesvc.Service
	media    *mediasvc.Service
	matching *matchingsvc.Service
}

func newTestServices(likeLimiter matchingsvc.Limiter) testServices {
	store := newMemStore()
	storage := newMemStorage()
	return testServices{
		store:    store,
		storage:  storage,
		users:    userssvc.NewService(store, store, storage, time.Minute),
		profiles: profilesvc.NewService(store),
		media:    mediasvc.NewService(store, storage, nil, mediasvc.Config{MaxDimension: 64}),
		matching: matchingsvc.NewService(matchingsvc.Dependencies{
			Likes:      store,
			Candidates: store,
			Limiter:    likeLimiter,
			Signer:     storage,
		}),
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
