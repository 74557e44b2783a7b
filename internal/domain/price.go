package domain

import "time"

// HistorySize bounds the per-asset rolling price history.
const HistorySize = 10

// PriceSample is one observed trade price. Immutable once recorded.
type PriceSample struct {
	Price float64
	Time  time.Time
}

// PriceSnapshot is an atomic copy of one asset's price state. Readers always
// work on a snapshot, never on live tracker state.
type PriceSnapshot struct {
	Asset              Asset
	CurrentPrice       float64
	IntervalStartPrice float64
	History            []PriceSample
	LastUpdated        time.Time
}

// ChangePct returns the interval-relative price change in percent. A zero
// interval start yields 0, never a division fault.
func (s PriceSnapshot) ChangePct() float64 {
	if s.IntervalStartPrice == 0 {
		return 0
	}
	return (s.CurrentPrice - s.IntervalStartPrice) / s.IntervalStartPrice * 100
}

// IsUp reports whether the price moved up since the interval start.
func (s PriceSnapshot) IsUp() bool {
	return s.CurrentPrice > s.IntervalStartPrice
}

// MarketType is the resolution interval of a binary market.
type MarketType string

const (
	Market5m  MarketType = "5m"
	Market15m MarketType = "15m"
	Market1h  MarketType = "1h"
	Market4h  MarketType = "4h"
)

// Duration returns the interval length, or 0 for an unknown type.
func (m MarketType) Duration() time.Duration {
	switch m {
	case Market5m:
		return 5 * time.Minute
	case Market15m:
		return 15 * time.Minute
	case Market1h:
		return time.Hour
	case Market4h:
		return 4 * time.Hour
	default:
		return 0
	}
}

// MarketContext is the externally supplied venue state for one asset's
// active market. Absence or staleness suspends signal generation for the
// asset.
type MarketContext struct {
	Asset       Asset
	ConditionID string
	Type        MarketType
	YesTokenID  string
	NoTokenID   string
	YesAsk      float64 // dollars, 0..1
	NoAsk       float64 // dollars, 0..1
	ResolvesAt  time.Time
	Description string
	UpdatedAt   time.Time
}

// TokenID returns the token bought for the given direction.
func (m MarketContext) TokenID(d Direction) string {
	if d == DirectionUp {
		return m.YesTokenID
	}
	return m.NoTokenID
}

// Ask returns the quoted ask for the given direction's token.
func (m MarketContext) Ask(d Direction) float64 {
	if d == DirectionUp {
		return m.YesAsk
	}
	return m.NoAsk
}

// Stale reports whether the context is older than maxAge at the given time.
// A zero UpdatedAt is always stale.
func (m MarketContext) Stale(now time.Time, maxAge time.Duration) bool {
	if m.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(m.UpdatedAt) > maxAge
}

// OrderbookDepth summarizes available liquidity near the touch for one token.
type OrderbookDepth struct {
	BidDepthUSD float64
	AskDepthUSD float64
	SpreadPct   float64
}

// VolumeData carries current and rolling-average traded volume for a market.
type VolumeData struct {
	CurrentVolume float64
	AverageVolume float64
}
