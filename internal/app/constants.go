package app

import "ohhell/internal/domain"

// MinPlayersToStartGame defines the minimum number of registered players required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = domain.MinPlayers

// MaxPlayers is the table capacity enforced before a presence is admitted.
const MaxPlayers = domain.MaxPlayers
