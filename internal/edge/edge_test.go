package edge

import (
	"math"
	"testing"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

func TestCalibrationTable(t *testing.T) {
	cases := []struct {
		mt      domain.MarketType
		minMove float64
		minEdge float64
	}{
		{domain.Market5m, 0.05, 0.5},
		{domain.Market15m, 0.10, 1.0},
		{domain.Market1h, 0.20, 2.0},
		{domain.Market4h, 0.30, 3.0},
	}
	for _, c := range cases {
		cal := CalibrationFor(c.mt)
		if cal.MinMovePct != c.minMove || cal.MinEdgePct != c.minEdge {
			t.Errorf("%s: calibration = %+v, want move %v edge %v", c.mt, cal, c.minMove, c.minEdge)
		}
	}
}

func TestCalibrationUnknownType(t *testing.T) {
	cal := CalibrationFor(domain.MarketType("30m"))
	if cal.ProbMult == 0 {
		t.Fatal("unknown market type must get a usable default calibration")
	}
}

func TestEvaluateNoMomentumBoost(t *testing.T) {
	// 0.2% move on a 15m market: lift = 0.2 * 5 = 1 point.
	est := Evaluate(0.2, domain.MomentumResult{}, 0.50, domain.Market15m)
	if math.Abs(est.EstimatedProb-0.51) > 1e-9 {
		t.Errorf("estimated prob = %v, want 0.51", est.EstimatedProb)
	}
	if math.Abs(est.EdgePct-1.0) > 1e-9 {
		t.Errorf("edge = %v, want 1.0", est.EdgePct)
	}
}

func TestEvaluateStrongAcceleratingBoost(t *testing.T) {
	mom := domain.MomentumResult{Score: 0.6, Consistency: 0.9, Accelerating: true}
	plain := Evaluate(0.2, domain.MomentumResult{}, 0.50, domain.Market15m)
	boosted := Evaluate(0.2, mom, 0.50, domain.Market15m)
	if boosted.EstimatedProb <= plain.EstimatedProb {
		t.Errorf("strong accelerating momentum should lift probability: %v <= %v",
			boosted.EstimatedProb, plain.EstimatedProb)
	}
	if boosted.Confidence <= plain.Confidence {
		t.Errorf("strong momentum should lift confidence: %v <= %v",
			boosted.Confidence, plain.Confidence)
	}
}

func TestEvaluateProbClamped(t *testing.T) {
	est := Evaluate(50, domain.MomentumResult{}, 0.10, domain.Market5m)
	if est.EstimatedProb > 0.99 {
		t.Errorf("estimated prob = %v, exceeds 0.99 cap", est.EstimatedProb)
	}
	if est.Confidence > 1 {
		t.Errorf("confidence = %v, exceeds 1", est.Confidence)
	}
}

func TestEvaluateNegativeEdge(t *testing.T) {
	// Expensive ask outweighs modest move.
	est := Evaluate(0.1, domain.MomentumResult{}, 0.80, domain.Market15m)
	if est.EdgePct >= 0 {
		t.Errorf("edge = %v, want negative against 80c ask", est.EdgePct)
	}
}

func TestCheckBothThresholdsIndependent(t *testing.T) {
	// Move below minimum AND edge below minimum both reported.
	est := Estimate{EdgePct: 0.2}
	ok, reason := Check(0.08, est, domain.Market15m)
	if ok {
		t.Fatal("expected rejection")
	}
	if reason == "" {
		t.Fatal("expected a reason")
	}

	// Move sufficient, edge insufficient.
	ok, _ = Check(0.5, Estimate{EdgePct: 0.2}, domain.Market15m)
	if ok {
		t.Error("edge below minimum must reject despite sufficient move")
	}

	// Edge sufficient, move insufficient.
	ok, _ = Check(0.08, Estimate{EdgePct: 5}, domain.Market15m)
	if ok {
		t.Error("move below minimum must reject despite sufficient edge")
	}

	ok, reason = Check(0.5, Estimate{EdgePct: 5}, domain.Market15m)
	if !ok || reason != "" {
		t.Errorf("expected pass, got ok=%v reason=%q", ok, reason)
	}
}
