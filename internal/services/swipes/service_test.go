package swipes

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/enums"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/redis"
	blocksvc "github.com/ivankudzin/eventmatch/backend/internal/services/blocks"
	eventsvc "github.com/ivankudzin/eventmatch/backend/internal/services/events"
	ratesvc "github.com/ivankudzin/eventmatch/backend/internal/services/rate"
)

type swipeKey struct {
	eventID int64
	actor   int64
	target  int64
}

type pairKey struct {
	eventID int64
	a       int64
	b       int64
}

// memoryStore mimics the unique constraints of swipes and matches.
type memoryStore struct {
	mu      sync.Mutex
	nextID  int64
	swipes  map[swipeKey]enums.Decision
	matches map[pairKey]model.Match
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		swipes:  map[swipeKey]enums.Decision{},
		matches: map[pairKey]model.Match{},
	}
}

func (m *memoryStore) Create(_ context.Context, swipe model.SwipeAction) (model.SwipeAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := swipeKey{swipe.EventID, swipe.ActorUserID, swipe.TargetUserID}
	if _, exists := m.swipes[key]; exists {
		return model.SwipeAction{}, pgrepo.ErrDuplicateSwipe
	}
	m.swipes[key] = swipe.Decision
	m.nextID++
	swipe.ID = m.nextID
	return swipe, nil
}

func (m *memoryStore) HasDecision(_ context.Context, eventID, actorUserID, targetUserID int64, decision enums.Decision) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	got, ok := m.swipes[swipeKey{eventID, actorUserID, targetUserID}]
	return ok && got == decision, nil
}

func (m *memoryStore) Decision(_ context.Context, eventID, actorUserID, targetUserID int64) (enums.Decision, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	got, ok := m.swipes[swipeKey{eventID, actorUserID, targetUserID}]
	return got, ok, nil
}

func (m *memoryStore) CreateIfAbsent(_ context.Context, eventID, userID, targetID int64, now time.Time) (model.Match, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, b := rules.CanonicalPair(userID, targetID)
	key := pairKey{eventID, a, b}
	if existing, ok := m.matches[key]; ok {
		return existing, false, nil
	}
	m.nextID++
	match := model.Match{ID: m.nextID, EventID: eventID, UserAID: a, UserBID: b, CreatedAt: now}
	m.matches[key] = match
	return match, true, nil
}

type registrationStub struct {
	registered map[int64]bool
}

func (s registrationStub) RequireRegistration(_ context.Context, _, userID int64) error {
	if !s.registered[userID] {
		return eventsvc.ErrNotRegistered
	}
	return nil
}

type blockStub struct {
	blocked map[int64]bool
}

func (s blockStub) EnsureUnblocked(_ context.Context, _ int64, userIDs ...int64) error {
	for _, id := range userIDs {
		if s.blocked[id] {
			return blocksvc.ErrBlocked
		}
	}
	return nil
}

type notifierStub struct {
	calls atomic.Int64
}

func (n *notifierStub) MatchCreated(model.Match) {
	n.calls.Add(1)
}

func newSwipeService(store *memoryStore, blocked map[int64]bool, notifier *notifierStub) *Service {
	svc := NewService(Dependencies{
		Swipes:        store,
		Matches:       store,
		Registrations: registrationStub{registered: map[int64]bool{1: true, 2: true, 3: true}},
		Blocks:        blockStub{blocked: blocked},
		Notifier:      notifier,
	})
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC) }
	return svc
}

func TestMutualLikeCreatesSingleMatch(t *testing.T) {
	store := newMemoryStore()
	notifier := &notifierStub{}
	svc := newSwipeService(store, nil, notifier)
	ctx := context.Background()

	first, err := svc.Like(ctx, 10, 2, 1)
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	if first.Matched || first.Match != nil {
		t.Fatalf("one-sided like must not match: %+v", first)
	}

	second, err := svc.Like(ctx, 10, 1, 2)
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if !second.Matched || second.Match == nil {
		t.Fatalf("expected match, got %+v", second)
	}
	if second.Match.UserAID != 1 || second.Match.UserBID != 2 || second.Match.EventID != 10 {
		t.Fatalf("match must use canonical order: %+v", second.Match)
	}
	if len(store.matches) != 1 {
		t.Fatalf("expected one match, got %d", len(store.matches))
	}
	if notifier.calls.Load() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls.Load())
	}
}

func TestPassNeverMatches(t *testing.T) {
	store := newMemoryStore()
	svc := newSwipeService(store, nil, &notifierStub{})
	ctx := context.Background()

	if _, err := svc.Like(ctx, 10, 2, 1); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := svc.PassOnProfile(ctx, 10, 1, 2); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if len(store.matches) != 0 {
		t.Fatalf("pass must not create a match")
	}
}

func TestSwipeRejections(t *testing.T) {
	store := newMemoryStore()
	svc := newSwipeService(store, map[int64]bool{3: true}, &notifierStub{})
	ctx := context.Background()

	if _, err := svc.Like(ctx, 10, 1, 2); err != nil {
		t.Fatalf("seed like: %v", err)
	}

	tests := []struct {
		name     string
		actor    int64
		target   int64
		decision string
		wantErr  error
	}{
		{name: "self", actor: 1, target: 1, decision: "like", wantErr: ErrSelfSwipe},
		{name: "unknown decision", actor: 1, target: 2, decision: "superlike", wantErr: ErrUnsupportedDecision},
		{name: "duplicate", actor: 1, target: 2, decision: "pass", wantErr: ErrAlreadySwiped},
		{name: "target not registered", actor: 1, target: 9, decision: "like", wantErr: errs.ErrNotFound},
		{name: "actor not registered", actor: 9, target: 1, decision: "like", wantErr: errs.ErrNotFound},
		{name: "target blocked", actor: 1, target: 3, decision: "like", wantErr: errs.ErrForbidden},
		{name: "actor blocked", actor: 3, target: 1, decision: "pass", wantErr: errs.ErrForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordSwipe(ctx, 10, tc.actor, tc.target, tc.decision)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if !errors.Is(ErrAlreadySwiped, errs.ErrConflict) || !errors.Is(ErrSelfSwipe, errs.ErrValidation) {
		t.Fatalf("swipe errors lost their category")
	}
}

func TestConcurrentReciprocalLikesAgreeOnOneMatch(t *testing.T) {
	for round := 0; round < 200; round++ {
		store := newMemoryStore()
		notifier := &notifierStub{}
		svc := newSwipeService(store, nil, notifier)

		var (
			wg      sync.WaitGroup
			results [2]Result
			errsOut [2]error
			start   = make(chan struct{})
		)
		pairs := [2][2]int64{{1, 2}, {2, 1}}
		for i := range pairs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i], errsOut[i] = svc.Like(context.Background(), 10, pairs[i][0], pairs[i][1])
			}(i)
		}
		close(start)
		wg.Wait()

		for i, err := range errsOut {
			if err != nil {
				t.Fatalf("round %d like %d: %v", round, i, err)
			}
		}
		if !results[0].Matched && !results[1].Matched {
			t.Fatalf("round %d: both likes missed each other", round)
		}
		if results[0].Matched && results[1].Matched && results[0].Match.ID != results[1].Match.ID {
			t.Fatalf("round %d: callers saw different matches", round)
		}
		if len(store.matches) != 1 {
			t.Fatalf("round %d: expected one match, got %d", round, len(store.matches))
		}
		if notifier.calls.Load() != 1 {
			t.Fatalf("round %d: expected one notification, got %d", round, notifier.calls.Load())
		}
	}
}

func TestSwipeRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := newMemoryStore()
	svc := newSwipeService(store, nil, &notifierStub{})
	svc.rateLimiter = ratesvc.NewLimiter(redrepo.NewRateRepo(client), map[string]ratesvc.Limits{
		ratesvc.ActionSwipe: {Per10Sec: 1},
	})

	ctx := context.Background()
	if err := svc.PassOnProfile(ctx, 10, 1, 2); err != nil {
		t.Fatalf("first swipe: %v", err)
	}

	_, err = svc.Like(ctx, 10, 1, 3)
	var tooFast ratesvc.TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected too fast error, got %v", err)
	}
	if tooFast.RetryAfter() <= 0 || tooFast.Action != ratesvc.ActionSwipe {
		t.Fatalf("unexpected too fast payload: %+v", tooFast)
	}
	if _, ok := store.swipes[swipeKey{10, 1, 3}]; ok {
		t.Fatalf("rate limited swipe must not be stored")
	}
}

// flakyStore fails the first reciprocal lookup.
type flakyStore struct {
	*memoryStore
	failed atomic.Bool
}

func (f *flakyStore) HasDecision(ctx context.Context, eventID, actorUserID, targetUserID int64, decision enums.Decision) (bool, error) {
	if f.failed.CompareAndSwap(false, true) {
		return false, errors.New("connection reset")
	}
	return f.memoryStore.HasDecision(ctx, eventID, actorUserID, targetUserID, decision)
}

func TestRepeatedLikeCompletesMissingMatch(t *testing.T) {
	store := newMemoryStore()
	notifier := &notifierStub{}
	svc := newSwipeService(store, nil, notifier)
	ctx := context.Background()

	if _, err := svc.Like(ctx, 10, 1, 2); err != nil {
		t.Fatalf("first like: %v", err)
	}

	svc.swipes = &flakyStore{memoryStore: store}
	if _, err := svc.Like(ctx, 10, 2, 1); err == nil {
		t.Fatalf("expected reciprocal lookup failure")
	}
	if len(store.swipes) != 2 || len(store.matches) != 0 {
		t.Fatalf("expected both likes stored without a match, got %d swipes %d matches", len(store.swipes), len(store.matches))
	}

	retry, err := svc.Like(ctx, 10, 2, 1)
	if err != nil {
		t.Fatalf("retry like: %v", err)
	}
	if !retry.Matched || retry.Match == nil {
		t.Fatalf("retry must complete the match: %+v", retry)
	}
	if len(store.matches) != 1 {
		t.Fatalf("expected one match, got %d", len(store.matches))
	}
	if notifier.calls.Load() != 1 {
		t.Fatalf("expected one notification, got %d", notifier.calls.Load())
	}

	for _, actor := range []int64{1, 2} {
		target := 3 - actor
		if _, err := svc.Like(ctx, 10, actor, target); !errors.Is(err, ErrAlreadySwiped) {
			t.Fatalf("like %d->%d after match: expected already swiped, got %v", actor, target, err)
		}
	}
	if notifier.calls.Load() != 1 {
		t.Fatalf("repeats must not notify again, got %d", notifier.calls.Load())
	}
}

func TestRepeatedSwipeDoesNotUseRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := newMemoryStore()
	svc := newSwipeService(store, nil, &notifierStub{})
	svc.rateLimiter = ratesvc.NewLimiter(redrepo.NewRateRepo(client), map[string]ratesvc.Limits{
		ratesvc.ActionSwipe: {Per10Sec: 1},
	})

	ctx := context.Background()
	if err := svc.PassOnProfile(ctx, 10, 1, 2); err != nil {
		t.Fatalf("first swipe: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.PassOnProfile(ctx, 10, 1, 2); !errors.Is(err, ErrAlreadySwiped) {
			t.Fatalf("repeat %d: expected already swiped, got %v", i, err)
		}
	}
	if _, err := svc.Like(ctx, 10, 1, 2); !errors.Is(err, ErrAlreadySwiped) {
		t.Fatalf("changed decision: expected already swiped, got %v", err)
	}
}
