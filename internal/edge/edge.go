// Package edge estimates win probability from price movement and momentum and
// compares it to the quoted market price.
package edge

import (
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// Calibration holds the per-market-type thresholds and multipliers. Shorter
// intervals resolve faster, so a smaller move carries more information.
type Calibration struct {
	MinMovePct float64
	MinEdgePct float64
	ProbMult   float64
	ConfMult   float64
}

var calibrations = map[domain.MarketType]Calibration{
	domain.Market5m:  {MinMovePct: 0.05, MinEdgePct: 0.5, ProbMult: 8, ConfMult: 30},
	domain.Market15m: {MinMovePct: 0.10, MinEdgePct: 1.0, ProbMult: 5, ConfMult: 20},
	domain.Market1h:  {MinMovePct: 0.20, MinEdgePct: 2.0, ProbMult: 3, ConfMult: 15},
	domain.Market4h:  {MinMovePct: 0.30, MinEdgePct: 3.0, ProbMult: 2, ConfMult: 10},
}

var defaultCalibration = Calibration{MinMovePct: 0.15, MinEdgePct: 1.0, ProbMult: 4, ConfMult: 20}

// CalibrationFor returns the calibration for a market type, falling back to a
// middle-of-the-road default for unknown types.
func CalibrationFor(mt domain.MarketType) Calibration {
	if c, ok := calibrations[mt]; ok {
		return c
	}
	return defaultCalibration
}

// Estimate is the outcome of an edge evaluation against one quoted side.
type Estimate struct {
	// EstimatedProb is the modeled probability of the move continuing,
	// in (0.01, 0.99).
	EstimatedProb float64
	// EdgePct is estimated probability minus market-implied probability,
	// in percentage points. Negative means the market charges more than
	// the move is worth.
	EdgePct float64
	// Confidence is in [0, 1].
	Confidence float64
}

// Evaluate computes the estimated probability, edge, and confidence for a
// candidate entry. changePct is the interval price change in percent, askUSD
// the quoted ask for the side being bought in dollars (0..1).
func Evaluate(changePct float64, mom domain.MomentumResult, askUSD float64, mt domain.MarketType) Estimate {
	cal := CalibrationFor(mt)
	absChange := abs(changePct)

	boost := 1.0
	if mom.Strong() {
		if mom.Accelerating {
			boost = 1.2
		} else {
			boost = 1.1
		}
	}

	lift := absChange * cal.ProbMult * boost
	if lift > 45 {
		lift = 45
	}
	prob := 0.50 + lift/100
	if prob > 0.99 {
		prob = 0.99
	}
	if prob < 0.01 {
		prob = 0.01
	}

	confBoost := 1.0
	if mom.Strong() {
		confBoost = 1.0 + mom.Consistency*0.5
	}
	conf := absChange * cal.ConfMult * confBoost / 100
	if conf > 1 {
		conf = 1
	}

	return Estimate{
		EstimatedProb: prob,
		EdgePct:       (prob - askUSD) * 100,
		Confidence:    conf,
	}
}

// Check applies the two independent entry thresholds for the market type.
// Both must pass; the returned reason names the first failing one.
func Check(changePct float64, est Estimate, mt domain.MarketType) (bool, string) {
	cal := CalibrationFor(mt)
	ok := true
	reason := ""
	if abs(changePct) < cal.MinMovePct {
		ok = false
		reason = "price move below minimum"
	}
	if est.EdgePct < cal.MinEdgePct {
		ok = false
		if reason != "" {
			reason += "; edge below minimum"
		} else {
			reason = "edge below minimum"
		}
	}
	return ok, reason
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
