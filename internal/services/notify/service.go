// Package notify sends best-effort Telegram notices about new matches and
// messages. Delivery runs on its own goroutine and never fails the caller.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/eventmatch/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/eventmatch/backend/internal/repo/postgres"
)

const (
	defaultTimeout = 5 * time.Second

	matchText   = "It's a match! Open the event to say hello."
	messageText = "You have a new message from one of your matches."
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type ContactStore interface {
	TelegramChatID(ctx context.Context, userID int64) (int64, error)
}

type Config struct {
	Timeout time.Duration
}

type Dependencies struct {
	Sender   Sender
	Contacts ContactStore
	Logger   *zap.Logger
}

type Service struct {
	sender   Sender
	contacts ContactStore
	log      *zap.Logger
	cfg      Config
	wg       sync.WaitGroup
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		sender:   deps.Sender,
		contacts: deps.Contacts,
		log:      log,
		cfg:      cfg,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.sender != nil && s.contacts != nil
}

// MatchCreated notifies both participants.
func (s *Service) MatchCreated(match model.Match) {
	s.dispatch("match", match.ID, matchText, match.UserAID, match.UserBID)
}

// MessageSent notifies the participant who did not send msg.
func (s *Service) MessageSent(match model.Match, msg model.Message) {
	recipient, ok := match.Counterpart(msg.SenderUserID)
	if !ok {
		return
	}
	s.dispatch("message", match.ID, messageText, recipient)
}

// Wait blocks until in-flight notifications finish.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

func (s *Service) dispatch(kind string, matchID int64, text string, userIDs ...int64) {
	if !s.Enabled() || len(userIDs) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		for _, userID := range userIDs {
			if err := s.sendTo(ctx, userID, text); err != nil {
				s.log.Warn("notification not delivered",
					zap.String("kind", kind),
					zap.Int64("match_id", matchID),
					zap.Int64("user_id", userID),
					zap.Error(err),
				)
			}
		}
	}()
}

func (s *Service) sendTo(ctx context.Context, userID int64, text string) error {
	chatID, err := s.contacts.TelegramChatID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if chatID == 0 {
		return nil
	}
	return s.sender.SendText(ctx, chatID, text)
}
