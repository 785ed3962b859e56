package discovery

import (
	"context"
	"fmt"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/errs"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	"github.com/ivankudzin/eventmatch/backend/internal/domain/rules"
)

type CandidateStore interface {
	ListCandidateIDs(ctx context.Context, eventID, viewerUserID int64, limit int) ([]int64, error)
}

type RegistrationChecker interface {
	RequireRegistration(ctx context.Context, eventID, userID int64) error
}

type BlockChecker interface {
	IsBlocked(ctx context.Context, eventID, userID int64) (bool, error)
}

type ProfileComposer interface {
	Compose(ctx context.Context, eventID int64, userIDs []int64) ([]model.Profile, error)
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
}

type Dependencies struct {
	Candidates    CandidateStore
	Registrations RegistrationChecker
	Blocks        BlockChecker
	Profiles      ProfileComposer
}

type Service struct {
	candidates    CandidateStore
	registrations RegistrationChecker
	blocks        BlockChecker
	profiles      ProfileComposer
	cfg           Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxLimit <= 0 || cfg.MaxLimit > rules.MaxPageLimit {
		cfg.MaxLimit = rules.MaxPageLimit
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = rules.DefaultPageLimit
	}

	return &Service{
		candidates:    deps.Candidates,
		registrations: deps.Registrations,
		blocks:        deps.Blocks,
		profiles:      deps.Profiles,
		cfg:           cfg,
	}
}

// GetCandidates lists profiles the viewer can still swipe on. A blocked viewer
// gets an empty page rather than an error.
func (s *Service) GetCandidates(ctx context.Context, eventID, viewerID int64, limit int) ([]model.Profile, error) {
	if eventID <= 0 || viewerID <= 0 {
		return nil, errs.ErrValidation
	}
	if s.candidates == nil || s.registrations == nil || s.blocks == nil || s.profiles == nil {
		return nil, fmt.Errorf("discovery dependencies are not configured")
	}

	if err := s.registrations.RequireRegistration(ctx, eventID, viewerID); err != nil {
		return nil, err
	}

	blocked, err := s.blocks.IsBlocked(ctx, eventID, viewerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return []model.Profile{}, nil
	}

	limit = rules.ClampLimit(limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	ids, err := s.candidates.ListCandidateIDs(ctx, eventID, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	return s.profiles.Compose(ctx, eventID, ids)
}
