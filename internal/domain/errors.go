package domain

import "errors"

// RejectionKind classifies why a command was refused.
type RejectionKind string

const (
	// KindPhase means the command is not valid in the current phase.
	KindPhase RejectionKind = "phase"
	// KindTurn means the acting player does not hold the turn.
	KindTurn RejectionKind = "turn"
	// KindRule means the command breaks a game rule.
	KindRule RejectionKind = "rule"
	// KindCapacity means a registration bound was hit.
	KindCapacity RejectionKind = "capacity"
)

// Rejection is returned for every refused command. The state passed to Apply is
// returned unchanged alongside it.
type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string {
	return string(r.Kind) + " violation: " + r.Reason
}

func reject(kind RejectionKind, reason string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason}
}

var (
	ErrWrongPhase     = reject(KindPhase, "command not valid in current phase")
	ErrUnknownCommand = reject(KindPhase, "unknown command")

	ErrNotYourTurn = reject(KindTurn, "not the acting player's turn")

	ErrBidOutOfRange      = reject(KindRule, "bid out of range")
	ErrForbiddenBid       = reject(KindRule, "bids may not sum to the hand size")
	ErrCardNotInHand      = reject(KindRule, "card not in hand")
	ErrMustFollowSuit     = reject(KindRule, "must follow the lead suit")
	ErrInvalidTrump       = reject(KindRule, "invalid trump suit")
	ErrInvalidCard        = reject(KindRule, "invalid card")
	ErrInvalidHandSizes   = reject(KindRule, "hand sizes must be non-empty and fit the deck")
	ErrInvalidTurnSeconds = reject(KindRule, "turn seconds must be positive")
	ErrInvalidScoring     = reject(KindRule, "invalid scoring rules")
	ErrInvalidPlayerID    = reject(KindRule, "player id must not be empty")
	ErrInvalidPlayerKind  = reject(KindRule, "invalid player kind")
	ErrDuplicatePlayer    = reject(KindCapacity, "player id already registered")
	ErrTableFull          = reject(KindCapacity, "table is full")
	ErrTooFewPlayers      = reject(KindCapacity, "not enough players to start")
)

// KindOf returns the rejection kind carried by err, if any.
func KindOf(err error) (RejectionKind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return "", false
}

// IsRejection reports whether err is a command rejection.
func IsRejection(err error) bool {
	_, ok := KindOf(err)
	return ok
}
