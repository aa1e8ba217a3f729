package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby match.
	RpcQuickMatch = "quick_match"

	// MatchNameOhHell is the authoritative match handler name registered with Nakama.
	MatchNameOhHell = "ohhell_match"

	// GameLabel identifies this module's matches in label queries.
	GameLabel = "ohhell"

	// TickRate is the number of match loop ticks per second. Each tick is one timer second.
	TickRate = 1
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame int64 = 1
	OpPlaceBid  int64 = 2
	OpSetTrump  int64 = 3
	OpPlayCard  int64 = 4
	OpNextHand  int64 = 5
	OpNextTurn  int64 = 6
	OpAddBot    int64 = 7

	// Server -> Client events
	OpPlayerJoined    int64 = 101
	OpGameStarted     int64 = 102
	OpHandDealt       int64 = 103 // send privately
	OpBidPlaced       int64 = 104
	OpTrumpSet        int64 = 105
	OpBiddingComplete int64 = 106
	OpCardPlayed      int64 = 107
	OpTrickWon        int64 = 108
	OpTimerTicked     int64 = 109
	OpTurnChanged     int64 = 110
	OpHandScored      int64 = 111
	OpRoundEnded      int64 = 112
	OpStateSnapshot   int64 = 120
	OpError           int64 = 199
)

// Runtime environment keys read at match creation.
const (
	EnvTicketSecret = "ohhell_ticket_secret"
	EnvConfigPath   = "ohhell_config_path"
	EnvTurnSeconds  = "ohhell_turn_seconds"
	EnvBotDelay     = "ohhell_bot_delay"
)

// defaultBotDelay is how many ticks a bot waits before acting.
const defaultBotDelay = 1

// ticketMetadataKey is the join metadata key carrying a seat ticket.
const ticketMetadataKey = "ticket"
