package bot

import (
	"fmt"
	"strings"
)

// BotLevel selects a bot strategy.
type BotLevel int

const (
	BotLevelBasic BotLevel = iota
	BotLevelSmart
)

func (l BotLevel) String() string {
	switch l {
	case BotLevelBasic:
		return "basic"
	case BotLevelSmart:
		return "smart"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name to a BotLevel. An empty name is BotLevelSmart.
func ParseLevel(name string) (BotLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "smart":
		return BotLevelSmart, nil
	case "basic":
		return BotLevelBasic, nil
	default:
		return 0, fmt.Errorf("unknown bot level: %q", name)
	}
}

// NewBrain creates a new AI brain based on the specified level.
func NewBrain(level BotLevel) (Brain, error) {
	switch level {
	case BotLevelBasic:
		return &BasicBot{}, nil
	case BotLevelSmart:
		return &SmartBot{Tuning: DefaultTuning}, nil
	default:
		return nil, fmt.Errorf("unknown bot level: %d", level)
	}
}
