package bot

import (
	"ohhell/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Level    BotLevel
	Strategy Brain
}

// NewAgent creates an agent for the seat id playing at level.
func NewAgent(id string, level BotLevel) (*Agent, error) {
	brain, err := NewBrain(level)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Level: level, Strategy: brain}, nil
}

// Act asks the agent for its next command.
func (a *Agent) Act(s domain.GameState) (domain.Command, bool) {
	if !s.HasPlayer(a.ID) {
		// Agent is not part of this game
		return nil, false
	}
	return a.Strategy.Decide(s, a.ID)
}
