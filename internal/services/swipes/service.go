package swipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
	ratesvc "github.com/ivankudzin/eventmatch/backend/internal/services/rate"
)

var (
	ErrSelfSwipe           = errs.Wrap(errs.ErrValidation, "cannot swipe on yourself")
	ErrUnsupportedDecision = errs.Wrap(errs.ErrValidation, "unsupported decision")
	ErrAlreadySwiped       = errs.Wrap(errs.ErrConflict, "profile already swiped")
)

type SwipeStore interface {
	Create(ctx context.Context, swipe model.SwipeAction) (model.SwipeAction, error)
	HasDecision(ctx context.Context, eventID, actorUserID, targetUserID int64, decision enums.Decision) (bool, error)
	Decision(ctx context.Context, eventID, actorUserID, targetUserID int64) (enums.Decision, bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, eventID, userID, targetID int64, now time.Time) (model.Match, bool, error)
}

type RegistrationChecker interface {
	RequireRegistration(ctx context.Context, eventID, userID int64) error
}

type BlockChecker interface {
	EnsureUnblocked(ctx context.Context, eventID int64, userIDs ...int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, action string, userID int64) (int64, bool, error)
}

type MatchNotifier interface {
	MatchCreated(match model.Match)
}

type Result struct {
	Matched bool
	Match   *model.Match
}

type Dependencies struct {
	Swipes        SwipeStore
	Matches       MatchStore
	Registrations RegistrationChecker
	Blocks        BlockChecker
	RateLimiter   RateLimiter
	Notifier      MatchNotifier
}

type Service struct {
	swipes        SwipeStore
	matches       MatchStore
	registrations RegistrationChecker
	blocks        BlockChecker
	rateLimiter   RateLimiter
	notifier      MatchNotifier
	now           func() time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		swipes:        deps.Swipes,
		matches:       deps.Matches,
		registrations: deps.Registrations,
		blocks:        deps.Blocks,
		rateLimiter:   deps.RateLimiter,
		notifier:      deps.Notifier,
		now:           time.Now,
	}
}

func (s *Service) Like(ctx context.Context, eventID, actorID, targetID int64) (Result, error) {
	return s.RecordSwipe(ctx, eventID, actorID, targetID, string(enums.DecisionLike))
}

func (s *Service) PassOnProfile(ctx context.Context, eventID, actorID, targetID int64) error {
	_, err := s.RecordSwipe(ctx, eventID, actorID, targetID, string(enums.DecisionPass))
	return err
}

// RecordSwipe stores the actor's decision and, for a like that meets an
// earlier like from the target, returns the pair's match. The swipe row is
// committed before the reciprocal lookup, so of two concurrent likes at least
// one sees the other and both end up with the same match.
//
// A repeated swipe does not use a rate limit slot. A repeated like whose
// pair is missing its match completes the match instead of failing.
func (s *Service) RecordSwipe(ctx context.Context, eventID, actorID, targetID int64, rawDecision string) (Result, error) {
	if eventID <= 0 || actorID <= 0 || targetID <= 0 {
		return Result{}, errs.ErrValidation
	}
	if actorID == targetID {
		return Result{}, ErrSelfSwipe
	}
	decision, ok := enums.ParseDecision(rawDecision)
	if !ok {
		return Result{}, ErrUnsupportedDecision
	}
	if s.swipes == nil || s.matches == nil || s.registrations == nil || s.blocks == nil {
		return Result{}, fmt.Errorf("swipe dependencies are not configured")
	}

	if err := s.registrations.RequireRegistration(ctx, eventID, actorID); err != nil {
		return Result{}, err
	}
	if err := s.registrations.RequireRegistration(ctx, eventID, targetID); err != nil {
		return Result{}, err
	}
	if err := s.blocks.EnsureUnblocked(ctx, eventID, actorID, targetID); err != nil {
		return Result{}, err
	}

	now := s.now().UTC()
	if _, exists, err := s.swipes.Decision(ctx, eventID, actorID, targetID); err != nil {
		return Result{}, fmt.Errorf("lookup previous swipe: %w", err)
	} else if exists {
		return s.repeatSwipe(ctx, eventID, actorID, targetID, decision, now)
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, ratesvc.ActionSwipe, actorID)
		if err != nil {
			return Result{}, fmt.Errorf("apply swipe rate limiter: %w", err)
		}
		if !allowed {
			return Result{}, ratesvc.TooFastError{Action: ratesvc.ActionSwipe, RetryAfterSec: retryAfter}
		}
	}

	if _, err := s.swipes.Create(ctx, model.SwipeAction{
		EventID:      eventID,
		ActorUserID:  actorID,
		TargetUserID: targetID,
		Decision:     decision,
		CreatedAt:    now,
	}); err != nil {
		if errors.Is(err, pgrepo.ErrDuplicateSwipe) {
			return s.repeatSwipe(ctx, eventID, actorID, targetID, decision, now)
		}
		return Result{}, err
	}

	if decision == enums.DecisionPass {
		return Result{}, nil
	}

	match, created, err := s.matchReciprocal(ctx, eventID, actorID, targetID, now)
	if err != nil || match == nil {
		return Result{}, err
	}
	if created && s.notifier != nil {
		s.notifier.MatchCreated(*match)
	}

	return Result{Matched: true, Match: match}, nil
}

// repeatSwipe answers a swipe the actor already made. It fails with
// ErrAlreadySwiped unless both stored decisions are likes and the match was
// never created, in which case the match is created now.
func (s *Service) repeatSwipe(ctx context.Context, eventID, actorID, targetID int64, decision enums.Decision, now time.Time) (Result, error) {
	if decision != enums.DecisionLike {
		return Result{}, ErrAlreadySwiped
	}
	stored, exists, err := s.swipes.Decision(ctx, eventID, actorID, targetID)
	if err != nil {
		return Result{}, fmt.Errorf("lookup previous swipe: %w", err)
	}
	if !exists || stored != enums.DecisionLike {
		return Result{}, ErrAlreadySwiped
	}

	match, created, err := s.matchReciprocal(ctx, eventID, actorID, targetID, now)
	if err != nil {
		return Result{}, err
	}
	if match == nil || !created {
		return Result{}, ErrAlreadySwiped
	}
	if s.notifier != nil {
		s.notifier.MatchCreated(*match)
	}
	return Result{Matched: true, Match: match}, nil
}

// matchReciprocal returns a nil match when the target has not liked the actor.
func (s *Service) matchReciprocal(ctx context.Context, eventID, actorID, targetID int64, now time.Time) (*model.Match, bool, error) {
	reciprocal, err := s.swipes.HasDecision(ctx, eventID, targetID, actorID, enums.DecisionLike)
	if err != nil {
		return nil, false, fmt.Errorf("check reciprocal like: %w", err)
	}
	if !reciprocal {
		return nil, false, nil
	}

	match, created, err := s.matches.CreateIfAbsent(ctx, eventID, actorID, targetID, now)
	if err != nil {
		return nil, false, err
	}
	return &match, created, nil
}
