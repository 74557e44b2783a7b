package domain

import "time"

// MomentumResult is the derived directional-strength analysis of an asset's
// recent price history. It is computed on demand and never persisted.
type MomentumResult struct {
	// Score is the signed momentum strength in [-1, 1]; sign follows the
	// net trend of the history window.
	Score float64
	// Consistency is the fraction of consecutive deltas sharing the net
	// trend's sign, in [0, 1].
	Consistency float64
	// Accelerating is true when the second half of the window moves harder
	// than the first half, in the trend direction.
	Accelerating bool
}

// Strong reports whether the momentum is both meaningful and reliable.
func (m MomentumResult) Strong() bool {
	score := m.Score
	if score < 0 {
		score = -score
	}
	return score > 0.3 && m.Consistency > 0.6
}

// directionDeadBand is the score magnitude below which momentum is treated
// as neutral and matches no direction.
const directionDeadBand = 0.001

// DirectionMatches reports whether the momentum sign supports buying the
// given direction. Neutral momentum supports neither.
func (m MomentumResult) DirectionMatches(d Direction) bool {
	switch {
	case m.Score > directionDeadBand:
		return d == DirectionUp
	case m.Score < -directionDeadBand:
		return d == DirectionDown
	default:
		return false
	}
}

// Signal is an accepted trade proposal. It is created only after the full
// filter chain passes and is never mutated afterwards.
type Signal struct {
	ID           string
	Asset        Asset
	Direction    Direction
	TriggerPrice float64 // underlying price that triggered the signal
	TokenID      string
	TokenAsk     float64 // quoted token price at signal time, dollars
	ChangePct    float64
	EdgePct      float64
	Confidence   float64 // [0, 1]
	SizeUSD      float64
	MarketType   MarketType
	GeneratedAt  time.Time
}

// ExecutionRequest asks the execution layer to buy size at or near the
// reference token price.
type ExecutionRequest struct {
	Signal         Signal
	ReferencePrice float64
}

// ExecutionResult reports whether the exchange filled the request and at
// what token price.
type ExecutionResult struct {
	Filled    bool
	FillPrice float64
}
