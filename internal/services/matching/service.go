package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Sardor018/Dating-bot-backend/internal/domain/model"
	ratesvc "github.com/Sardor018/Dating-bot-backend/internal/services/rate"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrSelfLike          = fmt.Errorf("%w: cannot like yourself", ErrValidation)
	ErrUserNotFound      = errors.New("user not found")
	ErrProfileIncomplete = errors.New("profile incomplete")
)

const defaultSignedURLTTL = 5 * time.Minute

type LikeStore interface {
	// UsersExist reports whether both chat ids have a user row.
	UsersExist(ctx context.Context, a, b int64) (bool, error)
	// RecordLike adds to into from's liked set and reports whether the row was
	// new and whether to already likes from. Both users must exist.
	RecordLike(ctx context.Context, fromChatID, toChatID int64) (LikeOutcome, error)
}

type CandidateStore interface {
	ProfileComplete(ctx context.Context, chatID int64) (bool, error)
	ListCandidates(ctx context.Context, q CandidateQuery) ([]model.Candidate, error)
	ListMatches(ctx context.Context, chatID int64) ([]model.Candidate, error)
}

type Limiter interface {
	Allow(ctx context.Context, chatID int64) (int64, bool, error)
}

type Notifier interface {
	NotifyMatch(ctx context.Context, chatA, chatB int64) error
}

type URLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type LikeOutcome struct {
	Inserted bool
	Mutual   bool
}

type LikeResult struct {
	Match bool
}

type CandidateQuery struct {
	ViewerChatID int64
	AfterChatID  int64
	Limit        int
}

type ListOptions struct {
	Limit int
	After int64
}

// CandidatePage is one page of candidates. NextCursor is the chat id to pass
// as After for the following page, or 0 when the page was not full.
type CandidatePage struct {
	Items      []model.Candidate
	NextCursor int64
}

type Dependencies struct {
	Likes         LikeStore
	Candidates    CandidateStore
	Limiter       Limiter
	Notifier      Notifier
	Signer        URLSigner
	Logger        *zap.Logger
	SignedURLTTL  time.Duration
	MaxCandidates int
}

type Service struct {
	likes         LikeStore
	candidates    CandidateStore
	limiter       Limiter
	notifier      Notifier
	signer        URLSigner
	log           *zap.Logger
	signedURLTTL  time.Duration
	maxCandidates int
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := deps.SignedURLTTL
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}

	return &Service{
		likes:         deps.Likes,
		candidates:    deps.Candidates,
		limiter:       deps.Limiter,
		notifier:      deps.Notifier,
		signer:        deps.Signer,
		log:           log,
		signedURLTTL:  ttl,
		maxCandidates: deps.MaxCandidates,
	}
}

// SetNotifier attaches the match notifier after construction; the bot
// transport is built later than the engine in the api wiring.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// RecordLike stores requester's like of target and reports whether the like
// is reciprocated. Repeating a like changes nothing and reports the same
// match state.
func (s *Service) RecordLike(ctx context.Context, requester, target int64) (LikeResult, error) {
	if requester <= 0 || target <= 0 {
		return LikeResult{}, ErrValidation
	}
	if requester == target {
		return LikeResult{}, ErrSelfLike
	}
	if s.likes == nil {
		return LikeResult{}, fmt.Errorf("like store is nil")
	}

	if s.limiter != nil {
		// Unknown users must not spend the requester's like budget.
		exist, err := s.likes.UsersExist(ctx, requester, target)
		if err != nil {
			return LikeResult{}, fmt.Errorf("check like users: %w", err)
		}
		if !exist {
			return LikeResult{}, ErrUserNotFound
		}

		retryAfter, allowed, err := s.limiter.Allow(ctx, requester)
		if err != nil {
			return LikeResult{}, fmt.Errorf("check like rate: %w", err)
		}
		if !allowed {
			return LikeResult{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	outcome, err := s.likes.RecordLike(ctx, requester, target)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LikeResult{}, ErrUserNotFound
		}
		return LikeResult{}, fmt.Errorf("record like: %w", err)
	}

	if outcome.Inserted && outcome.Mutual {
		s.notifyMatch(ctx, requester, target)
	}

	return LikeResult{Match: outcome.Mutual}, nil
}

// ListCandidates returns complete profiles other than requester that
// requester has not liked yet, ordered by chat id. A zero limit means the
// server cap, or everything when no cap is configured.
func (s *Service) ListCandidates(ctx context.Context, requester int64, opts ListOptions) (CandidatePage, error) {
	if requester <= 0 || opts.Limit < 0 || opts.After < 0 {
		return CandidatePage{}, ErrValidation
	}
	if s.candidates == nil {
		return CandidatePage{}, fmt.Errorf("candidate store is nil")
	}

	if err := s.requireComplete(ctx, requester); err != nil {
		return CandidatePage{}, err
	}

	limit := s.effectiveLimit(opts.Limit)
	items, err := s.candidates.ListCandidates(ctx, CandidateQuery{
		ViewerChatID: requester,
		AfterChatID:  opts.After,
		Limit:        limit,
	})
	if err != nil {
		return CandidatePage{}, fmt.Errorf("list candidates: %w", err)
	}

	if err := s.signPhotos(ctx, items); err != nil {
		return CandidatePage{}, err
	}

	page := CandidatePage{Items: items}
	if limit > 0 && len(items) == limit {
		page.NextCursor = items[len(items)-1].ChatID
	}
	return page, nil
}

func (s *Service) effectiveLimit(requested int) int {
	if s.maxCandidates <= 0 {
		return requested
	}
	if requested == 0 || requested > s.maxCandidates {
		return s.maxCandidates
	}
	return requested
}

// ListMatches returns users who like requester back, ordered by chat id.
func (s *Service) ListMatches(ctx context.Context, requester int64) ([]model.Candidate, error) {
	if requester <= 0 {
		return nil, ErrValidation
	}
	if s.candidates == nil {
		return nil, fmt.Errorf("candidate store is nil")
	}

	if _, err := s.candidates.ProfileComplete(ctx, requester); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load requester: %w", err)
	}

	items, err := s.candidates.ListMatches(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	if err := s.signPhotos(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) requireComplete(ctx context.Context, chatID int64) error {
	complete, err := s.candidates.ProfileComplete(ctx, chatID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrProfileIncomplete
		}
		return fmt.Errorf("load requester: %w", err)
	}
	if !complete {
		return ErrProfileIncomplete
	}
	return nil
}

func (s *Service) signPhotos(ctx context.Context, items []model.Candidate) error {
	if s.signer == nil {
		return nil
	}
	for i := range items {
		if items[i].PhotoKey == "" {
			continue
		}
		url, err := s.signer.PresignGet(ctx, items[i].PhotoKey, s.signedURLTTL)
		if err != nil {
			return fmt.Errorf("presign candidate photo: %w", err)
		}
		items[i].PhotoURL = url
	}
	return nil
}

func (s *Service) notifyMatch(ctx context.Context, a, b int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyMatch(ctx, a, b); err != nil {
		s.log.Warn("notify match failed",
			zap.Int64("chat_a", a),
			zap.Int64("chat_b", b),
			zap.Error(err),
		)
	}
}
