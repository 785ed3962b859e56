package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

const (
	defaultCacheTTL = time.Minute
	cacheKeyPrefix  = "stats:event:"
)

type CountStore interface {
	EventCounts(ctx context.Context, eventID int64) (pgrepo.EventCountsRecord, error)
}

type OrganizerGuard interface {
	RequireOrganizer(ctx context.Context, eventID, userID int64, role string) (model.Event, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, target any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Config struct {
	CacheTTL time.Duration
}

type Dependencies struct {
	Counts CountStore
	Events OrganizerGuard
	Cache  Cache
	Logger *zap.Logger
}

type Service struct {
	counts CountStore
	events OrganizerGuard
	cache  Cache
	log    *zap.Logger
	cfg    Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		counts: deps.Counts,
		events: deps.Events,
		cache:  deps.Cache,
		log:    log,
		cfg:    cfg,
	}
}

// ForEvent returns the event's statistics to its organizer or an admin.
func (s *Service) ForEvent(ctx context.Context, actorID int64, role string, eventID int64) (model.EventStats, error) {
	if actorID <= 0 || eventID <= 0 {
		return model.EventStats{}, errs.ErrValidation
	}
	if s.counts == nil || s.events == nil {
		return model.EventStats{}, fmt.Errorf("stats dependencies are not configured")
	}
	if _, err := s.events.RequireOrganizer(ctx, eventID, actorID, role); err != nil {
		return model.EventStats{}, err
	}

	key := cacheKeyPrefix + strconv.FormatInt(eventID, 10)
	if s.cache != nil {
		var cached model.EventStats
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("read stats cache", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	counts, err := s.counts.EventCounts(ctx, eventID)
	if err != nil {
		return model.EventStats{}, fmt.Errorf("count event stats: %w", err)
	}
	stats := Compute(eventID, counts)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, stats, s.cfg.CacheTTL); err != nil {
			s.log.Warn("write stats cache", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, nil
}

// Compute derives the ratios from raw counts. Every ratio with a zero
// denominator is 0.
func Compute(eventID int64, c pgrepo.EventCountsRecord) model.EventStats {
	total := c.Likes + c.Passes
	return model.EventStats{
		EventID:                    eventID,
		RegisteredUsers:            c.RegisteredUsers,
		TotalSwipes:                total,
		Likes:                      c.Likes,
		Passes:                     c.Passes,
		LikeRate:                   ratio(c.Likes, total),
		TotalMatches:               c.Matches,
		AvgMatchesPerUser:          ratio(2*c.Matches, c.RegisteredUsers),
		ReciprocityRate:            ratio(c.Matches, c.Likes),
		TotalMessages:              c.Messages,
		ActiveConversations:        c.ActiveConversations,
		AvgMessagesPerConversation: ratio(c.Messages, c.ActiveConversations),
	}
}

func ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
