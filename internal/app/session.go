package app

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ohhell/internal/domain"
)

// Session owns the evolving state of one match. Commands are applied one at a time
// and every accepted command is recorded so the match can be replayed.
type Session struct {
	mu    sync.Mutex
	id    string
	svc   *Service
	state domain.GameState
	log   []domain.Command
}

// NewSession opens a lobby. An empty seed uses the session id.
func NewSession(svc *Service, seed string) (*Session, error) {
	if svc == nil {
		svc = NewService(nil)
	}
	id := uuid.NewString()
	if seed == "" {
		seed = id
	}
	state, err := domain.NewGame(seed)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:    id,
		svc:   NewService(svc.Logger().With(zap.String("session_id", id), zap.String("seed", seed))),
		state: state,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Apply runs cmd against the current state.
func (s *Session) Apply(cmd domain.Command) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, events, err := s.svc.Apply(s.state, cmd)
	if err != nil {
		return nil, err
	}
	s.state = next
	s.log = append(s.log, cmd)
	return events, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Log returns the accepted commands in order.
func (s *Session) Log() []domain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// Replay rebuilds a match from its seed and command log.
func Replay(seed string, log []domain.Command) (domain.GameState, error) {
	state, err := domain.NewGame(seed)
	if err != nil {
		return domain.GameState{}, err
	}
	for i, cmd := range log {
		state, err = domain.Apply(state, cmd)
		if err != nil {
			return state, fmt.Errorf("replay command %d (%s): %w", i, commandName(cmd), err)
		}
	}
	return state, nil
}
