// README: Session lifecycle on top of the conversation store.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"atlas/internal/trip"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// StartSession allocates a fresh session with empty dialogue state.
func (s *Service) StartSession(ctx context.Context) (*Session, error) {
	sess := &Session{ID: uuid.NewString(), State: trip.NewState()}
	if err := s.store.SaveState(ctx, sess.ID, sess.State); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load returns the session, creating it when the ID is unknown so a client
// may bring its own session identifier.
func (s *Service) Load(ctx context.Context, sessionID string) (*Session, error) {
	state, err := s.store.LoadState(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		state = trip.NewState()
		if err := s.store.SaveState(ctx, sessionID, state); err != nil {
			return nil, err
		}
		return &Session{ID: sessionID, State: state}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{ID: sessionID, State: state}, nil
}

func (s *Service) Save(ctx context.Context, sess *Session) error {
	return s.store.SaveState(ctx, sess.ID, sess.State)
}

// Reset clears the stored state for a session.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.store.DeleteState(ctx, sessionID)
}

// RecordTurn appends one message to the session's history log.
func (s *Service) RecordTurn(ctx context.Context, sessionID, role, message string) error {
	return s.store.AppendTurn(ctx, Turn{
		SessionID: sessionID,
		Role:      role,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	})
}

// History returns the logged turns of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTurns(ctx, sessionID, limit)
}
