package profiles

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

const defaultPhotoURLTTL = 15 * time.Minute

type ProfileStore interface {
	ListForEvent(ctx context.Context, eventID int64, userIDs []int64) ([]pgrepo.ProfileRecord, error)
}

type PhotoSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	PhotoURLTTL time.Duration
}

type Dependencies struct {
	Store  ProfileStore
	Photos PhotoSigner
	Logger *zap.Logger
}

type Service struct {
	store  ProfileStore
	photos PhotoSigner
	log    *zap.Logger
	cfg    Config
	now    func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.PhotoURLTTL <= 0 {
		cfg.PhotoURLTTL = defaultPhotoURLTTL
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:  deps.Store,
		photos: deps.Photos,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Compose builds profile views for userIDs in the given order. Users without
// a profile in the event are left out.
func (s *Service) Compose(ctx context.Context, eventID int64, userIDs []int64) ([]model.Profile, error) {
	if len(userIDs) == 0 {
		return []model.Profile{}, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("profile store is not configured")
	}

	records, err := s.store.ListForEvent(ctx, eventID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	byID := make(map[int64]pgrepo.ProfileRecord, len(records))
	for _, record := range records {
		byID[record.UserID] = record
	}

	now := s.now().UTC()
	out := make([]model.Profile, 0, len(userIDs))
	for _, userID := range userIDs {
		record, ok := byID[userID]
		if !ok {
			continue
		}
		out = append(out, s.toProfile(ctx, record, now))
	}
	return out, nil
}

// One returns a single profile view or false when the user has none in the event.
func (s *Service) One(ctx context.Context, eventID, userID int64) (model.Profile, bool, error) {
	items, err := s.Compose(ctx, eventID, []int64{userID})
	if err != nil {
		return model.Profile{}, false, err
	}
	if len(items) == 0 {
		return model.Profile{}, false, nil
	}
	return items[0], true, nil
}

func (s *Service) toProfile(ctx context.Context, record pgrepo.ProfileRecord, now time.Time) model.Profile {
	profile := model.Profile{
		UserID:      record.UserID,
		DisplayName: record.DisplayName,
		PhotoURLs:   make([]string, 0, len(record.PhotoKeys)),
		Answers:     record.Answers,
	}
	if profile.Answers == nil {
		profile.Answers = map[string]any{}
	}
	if record.Birthdate != nil {
		profile.Age = rules.AgeAt(*record.Birthdate, now)
	}

	if s.photos == nil {
		return profile
	}
	for _, key := range record.PhotoKeys {
		signed, err := s.photos.PresignGet(ctx, key, s.cfg.PhotoURLTTL)
		if err != nil {
			s.log.Warn("presign profile photo",
				zap.Int64("user_id", record.UserID),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		profile.PhotoURLs = append(profile.PhotoURLs, signed)
	}
	return profile
}
