package bot

import (
	"ohhell/internal/domain"
)

// Brain is the interface that all bot strategies must implement. Decide returns the
// command the seat playerID sends next, or false when the seat has nothing to do.
type Brain interface {
	Decide(s domain.GameState, playerID string) (domain.Command, bool)
}
