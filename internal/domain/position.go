package domain

import "time"

// PositionState is the lifecycle state of an asset's position slot.
type PositionState int

const (
	PositionEmpty PositionState = iota
	PositionOpen
	PositionClosed
)

// String returns the lowercase state name.
func (s PositionState) String() string {
	switch s {
	case PositionEmpty:
		return "empty"
	case PositionOpen:
		return "open"
	case PositionClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records which exit condition fired for a closed position.
type CloseReason string

const (
	CloseTakeProfit CloseReason = "take_profit"
	CloseStopLoss   CloseReason = "stop_loss"
	CloseTimeExit   CloseReason = "time_exit"
)

// Position is one trade's lifetime for a single asset. At most one non-empty
// position exists per asset at any instant.
type Position struct {
	ID                   string
	Asset                Asset
	Direction            Direction
	TokenID              string  // token held for the chosen side
	EntryUnderlyingPrice float64 // crypto price when the trade opened
	EntryTokenPrice      float64 // fill price of the token, dollars
	SizeUSD              float64
	MarketType           MarketType
	OpenedAt             time.Time
	State                PositionState
}

// PnLPct returns the percentage gain or loss of the position given the
// current quote for the held token. It is 0 when the entry price is unknown.
func (p Position) PnLPct(currentTokenPrice float64) float64 {
	if p.EntryTokenPrice == 0 {
		return 0
	}
	return (currentTokenPrice - p.EntryTokenPrice) / p.EntryTokenPrice * 100
}

// LedgerEntry is the immutable record of a closed position. Entries are
// append-only and ordered by close time; together they form the complete
// trade history.
type LedgerEntry struct {
	Position    Position
	ClosedAt    time.Time
	ExitPrice   float64
	PnLPct      float64
	PnLUSD      float64
	CloseReason CloseReason
}
