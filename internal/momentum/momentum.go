// Package momentum scores directional strength of a price history snapshot.
package momentum

import (
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

const (
	// scoreScale maps a 0.1% average per-sample move to full strength
	// before the consistency weighting.
	scoreScale = 10.0

	// accelBoost rewards trends whose recent half moves harder.
	accelBoost = 1.25
)

// Score computes a MomentumResult from the snapshot's history. Fewer than two
// samples yields the zero result, never an error.
func Score(snap domain.PriceSnapshot) domain.MomentumResult {
	hist := snap.History
	if len(hist) < 2 {
		return domain.MomentumResult{}
	}

	deltas := make([]float64, 0, len(hist)-1)
	for i := 1; i < len(hist); i++ {
		prev := hist[i-1].Price
		if prev <= 0 {
			continue
		}
		deltas = append(deltas, (hist[i].Price-prev)/prev*100)
	}
	if len(deltas) == 0 {
		return domain.MomentumResult{}
	}

	netTrend := hist[len(hist)-1].Price - hist[0].Price
	if netTrend == 0 {
		return domain.MomentumResult{}
	}

	var sum float64
	matches := 0
	for _, d := range deltas {
		sum += d
		if (netTrend > 0 && d > 0) || (netTrend < 0 && d < 0) {
			matches++
		}
	}
	avg := sum / float64(len(deltas))
	consistency := float64(matches) / float64(len(deltas))

	accelerating := isAccelerating(deltas)

	strength := abs(avg) * scoreScale * consistency
	if accelerating {
		strength *= accelBoost
	}
	if strength > 1 {
		strength = 1
	}

	score := strength
	if netTrend < 0 {
		score = -strength
	}

	return domain.MomentumResult{
		Score:        score,
		Consistency:  consistency,
		Accelerating: accelerating,
	}
}

// isAccelerating reports whether the second half of the deltas moves with
// greater average magnitude than the first half.
func isAccelerating(deltas []float64) bool {
	mid := len(deltas) / 2
	if mid == 0 {
		return false
	}
	var older, recent float64
	for _, d := range deltas[:mid] {
		older += abs(d)
	}
	for _, d := range deltas[mid:] {
		recent += abs(d)
	}
	older /= float64(mid)
	recent /= float64(len(deltas) - mid)
	return recent > older
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
