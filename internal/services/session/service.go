package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/rpsls-go/internal/dependencies/clock"
	"github.com/mcoot/rpsls-go/internal/model"
	"github.com/mcoot/rpsls-go/internal/storage"
)

// Service starts and looks up sessions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	timeout time.Duration
	logger  *slog.Logger
}

// View is a session together with its games
type View struct {
	Session *model.Session
	Games   []*model.Game
}

// New creates a new session Service
func New(storage storage.Storage, clock clock.Clock, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "session-service")),
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// StartSession opens a new session starting now
func (s *Service) StartSession(ctx context.Context) (*model.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	id, err := s.storage.CreateSession(ctx, now)
	if err != nil {
		s.logger.Error("failed to start session", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("session started", slog.String("session_id", id.String()))

	return &model.Session{ID: id, StartTime: now, Status: model.SessionStatusInProgress}, nil
}

// GetSession retrieves a session by ID
func (s *Service) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.storage.GetSession(ctx, id)
}

// GetSessionView retrieves a session with its games in creation order
func (s *Service) GetSessionView(ctx context.Context, id model.SessionID) (*View, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	session, err := s.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	games, err := s.storage.ListSessionGames(ctx, id)
	if err != nil {
		return nil, err
	}
	return &View{Session: session, Games: games}, nil
}
