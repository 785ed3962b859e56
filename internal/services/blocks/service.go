package blocks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

const (
	defaultCacheTTL = 30 * time.Second
	maxReasonLength = 500
	cacheKeyPrefix  = "blocks:"
	genKeyPrefix    = "blocks:gen:"
	minGenTTL       = 24 * time.Hour
)

var (
	ErrBlocked          = errs.Wrap(errs.ErrForbidden, "user is blocked in this event")
	ErrUserNotInEvent   = errs.Wrap(errs.ErrNotFound, "user is not registered for the event")
	ErrReasonTooLong    = errs.Wrap(errs.ErrValidation, "block reason is too long")
	ErrCannotBlockSelf  = errs.Wrap(errs.ErrValidation, "organizer cannot block themselves")
	ErrBlockNotFound    = errs.Wrap(errs.ErrNotFound, "user is not blocked")
	errStoreUnavailable = errors.New("block store is not configured")
)

type BlockStore interface {
	IsBlocked(ctx context.Context, eventID, userID int64) (bool, error)
	Upsert(ctx context.Context, block model.BlockedUser) (model.BlockedUser, error)
	Delete(ctx context.Context, eventID, userID int64) (bool, error)
	List(ctx context.Context, eventID int64, limit, offset int) ([]model.BlockedUser, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, target any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type OrganizerGuard interface {
	RequireOrganizer(ctx context.Context, eventID, userID int64, role string) (model.Event, error)
}

type Config struct {
	CacheTTL time.Duration
}

type Dependencies struct {
	Store  BlockStore
	Cache  Cache
	Events OrganizerGuard
	Logger *zap.Logger
}

type Service struct {
	store  BlockStore
	cache  Cache
	events OrganizerGuard
	log    *zap.Logger
	cfg    Config
	genTTL time.Duration
	now    func() time.Time
}

// cacheEntry is valid only while Gen equals the pair's current generation.
type cacheEntry struct {
	Blocked bool   `json:"blocked"`
	Gen     string `json:"gen"`
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	genTTL := minGenTTL
	if 2*cfg.CacheTTL > genTTL {
		genTTL = 2 * cfg.CacheTTL
	}

	return &Service{
		store:  deps.Store,
		cache:  deps.Cache,
		events: deps.Events,
		log:    log,
		cfg:    cfg,
		genTTL: genTTL,
		now:    time.Now,
	}
}

// IsBlocked reads the cached status first. Cache errors are logged and the
// store stays authoritative.
//
// Block and Unblock bump the pair's generation after they commit. A reader
// tags its entry with the generation it saw before the store lookup, so a
// lookup that raced a block can only write an entry that is already stale.
func (s *Service) IsBlocked(ctx context.Context, eventID, userID int64) (bool, error) {
	if eventID <= 0 || userID <= 0 {
		return false, errs.ErrValidation
	}
	if s.store == nil {
		return false, errStoreUnavailable
	}

	key := cacheKey(eventID, userID)
	gen, cacheable := s.generation(ctx, eventID, userID)
	if cacheable {
		var cached cacheEntry
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("read block cache", zap.String("key", key), zap.Error(err))
		} else if hit && cached.Gen == gen {
			return cached.Blocked, nil
		}
	}

	blocked, err := s.store.IsBlocked(ctx, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("lookup block: %w", err)
	}

	if cacheable {
		entry := cacheEntry{Blocked: blocked, Gen: gen}
		if err := s.cache.SetJSON(ctx, key, entry, s.cfg.CacheTTL); err != nil {
			s.log.Warn("write block cache", zap.String("key", key), zap.Error(err))
		}
	}
	return blocked, nil
}

// generation returns the pair's current cache generation. An empty value
// means no block change has been recorded yet. The boolean is false when the
// cache is missing or unreadable.
func (s *Service) generation(ctx context.Context, eventID, userID int64) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	key := genKey(eventID, userID)
	var gen string
	if _, err := s.cache.GetJSON(ctx, key, &gen); err != nil {
		s.log.Warn("read block generation", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return gen, true
}

// EnsureUnblocked fails with ErrBlocked when any of the users is blocked.
func (s *Service) EnsureUnblocked(ctx context.Context, eventID int64, userIDs ...int64) error {
	for _, userID := range userIDs {
		blocked, err := s.IsBlocked(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}
	}
	return nil
}

func (s *Service) Block(ctx context.Context, actorID int64, role string, eventID, userID int64, reason string) (model.BlockedUser, error) {
	if actorID <= 0 || eventID <= 0 || userID <= 0 {
		return model.BlockedUser{}, errs.ErrValidation
	}
	if actorID == userID {
		return model.BlockedUser{}, ErrCannotBlockSelf
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) > maxReasonLength {
		return model.BlockedUser{}, ErrReasonTooLong
	}
	if err := s.requireOrganizer(ctx, actorID, role, eventID); err != nil {
		return model.BlockedUser{}, err
	}

	saved, err := s.store.Upsert(ctx, model.BlockedUser{
		EventID:         eventID,
		UserID:          userID,
		Reason:          reason,
		BlockedByUserID: actorID,
		BlockedAt:       s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrRegistrationNotFound) {
			return model.BlockedUser{}, ErrUserNotInEvent
		}
		return model.BlockedUser{}, err
	}

	s.invalidate(ctx, eventID, userID)
	s.log.Info("user blocked",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.Int64("blocked_by", actorID),
	)
	return saved, nil
}

func (s *Service) Unblock(ctx context.Context, actorID int64, role string, eventID, userID int64) error {
	if actorID <= 0 || eventID <= 0 || userID <= 0 {
		return errs.ErrValidation
	}
	if err := s.requireOrganizer(ctx, actorID, role, eventID); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, eventID, userID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, eventID, userID)
	if !deleted {
		return ErrBlockNotFound
	}

	s.log.Info("user unblocked",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.Int64("unblocked_by", actorID),
	)
	return nil
}

func (s *Service) List(ctx context.Context, actorID int64, role string, eventID int64, limit, offset int) ([]model.BlockedUser, error) {
	if actorID <= 0 || eventID <= 0 {
		return nil, errs.ErrValidation
	}
	if err := s.requireOrganizer(ctx, actorID, role, eventID); err != nil {
		return nil, err
	}

	limit = rules.ClampLimit(limit, rules.DefaultPageLimit, rules.MaxPageLimit)
	return s.store.List(ctx, eventID, limit, rules.ClampOffset(offset))
}

func (s *Service) requireOrganizer(ctx context.Context, actorID int64, role string, eventID int64) error {
	if s.store == nil || s.events == nil {
		return errStoreUnavailable
	}
	_, err := s.events.RequireOrganizer(ctx, eventID, actorID, role)
	return err
}

func (s *Service) invalidate(ctx context.Context, eventID, userID int64) {
	if s.cache == nil {
		return
	}
	gk := genKey(eventID, userID)
	if err := s.cache.SetJSON(ctx, gk, uuid.NewString(), s.genTTL); err != nil {
		s.log.Warn("bump block generation", zap.String("key", gk), zap.Error(err))
	}
	key := cacheKey(eventID, userID)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("invalidate block cache", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(eventID, userID int64) string {
	return cacheKeyPrefix + pairSuffix(eventID, userID)
}

func genKey(eventID, userID int64) string {
	return genKeyPrefix + pairSuffix(eventID, userID)
}

func pairSuffix(eventID, userID int64) string {
	return strconv.FormatInt(eventID, 10) + ":" + strconv.FormatInt(userID, 10)
}
