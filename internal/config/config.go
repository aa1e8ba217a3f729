package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"ohhell/internal/domain"
)

const (
	DefaultTurnDurationSeconds = 30
	DefaultLeaderboardID       = "ohhell_scores"
	DefaultTicketTTLSeconds    = 300
)

// GameConfig holds the match rules an operator can tune without a rebuild.
type GameConfig struct {
	// HandSizes is the per-hand card count. Empty means DefaultHandSizes for the table.
	HandSizes           []int           `json:"hand_sizes"`
	TurnDurationSeconds int             `json:"turn_duration_seconds"`
	ExactBonus          *int            `json:"exact_bonus"`
	MissMode            domain.MissMode `json:"miss_mode"`
	LeaderboardID       string          `json:"leaderboard_id"`
	TicketTTLSeconds    int             `json:"ticket_ttl_seconds"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Parse decodes and validates a game config document.
func Parse(data []byte) (*GameConfig, error) {
	var c GameConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *GameConfig) validate() error {
	for _, n := range c.HandSizes {
		if n < 0 || n > domain.DeckSize/domain.MinPlayers {
			return fmt.Errorf("invalid hand size %d", n)
		}
	}
	if c.TurnDurationSeconds < 0 {
		return fmt.Errorf("invalid turn_duration_seconds %d", c.TurnDurationSeconds)
	}
	if c.ExactBonus != nil && *c.ExactBonus < 0 {
		return fmt.Errorf("invalid exact_bonus %d", *c.ExactBonus)
	}
	switch c.MissMode {
	case "", domain.MissZero, domain.MissWins:
	default:
		return fmt.Errorf("invalid miss_mode %q", c.MissMode)
	}
	if c.TicketTTLSeconds < 0 {
		return fmt.Errorf("invalid ticket_ttl_seconds %d", c.TicketTTLSeconds)
	}
	return nil
}

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}
		cfg, loadErr = Parse(data)
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or nil when none was loaded.
func GetGameConfig() *GameConfig {
	return cfg
}

// HandSizesFor returns the configured hand sizes, or DefaultHandSizes for players.
func (c *GameConfig) HandSizesFor(players int) []int {
	if c == nil || len(c.HandSizes) == 0 {
		return DefaultHandSizes(players)
	}
	return append([]int(nil), c.HandSizes...)
}

// TurnSeconds returns the per-turn budget in seconds.
func (c *GameConfig) TurnSeconds() int {
	if c == nil || c.TurnDurationSeconds <= 0 {
		return DefaultTurnDurationSeconds
	}
	return c.TurnDurationSeconds
}

// Scoring returns the scoring rules, falling back to domain.DefaultScoring per field.
func (c *GameConfig) Scoring() domain.ScoringRules {
	rules := domain.DefaultScoring
	if c == nil {
		return rules
	}
	if c.ExactBonus != nil {
		rules.ExactBonus = *c.ExactBonus
	}
	if c.MissMode != "" {
		rules.MissMode = c.MissMode
	}
	return rules
}

// Leaderboard returns the leaderboard id final scores are written to.
func (c *GameConfig) Leaderboard() string {
	if c == nil || c.LeaderboardID == "" {
		return DefaultLeaderboardID
	}
	return c.LeaderboardID
}

// TicketTTL returns how long a seat ticket stays valid.
func (c *GameConfig) TicketTTL() int {
	if c == nil || c.TicketTTLSeconds <= 0 {
		return DefaultTicketTTLSeconds
	}
	return c.TicketTTLSeconds
}

// DefaultHandSizes returns the classic "up and down the river" sequence for players:
// 1, 2, ... up to the largest hand the deck allows, then back down to 1.
func DefaultHandSizes(players int) []int {
	if players < domain.MinPlayers {
		players = domain.MinPlayers
	}
	peak := min(domain.DeckSize/players, 10)
	sizes := make([]int, 0, 2*peak-1)
	for n := 1; n <= peak; n++ {
		sizes = append(sizes, n)
	}
	for n := peak - 1; n >= 1; n-- {
		sizes = append(sizes, n)
	}
	return sizes
}
