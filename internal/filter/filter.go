// Package filter implements the entry gate chain. Each filter is a pure
// function of the shared context and its own threshold sub-config; every
// enabled filter is evaluated so all diagnostics are available.
package filter

import (
	"fmt"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/config"
	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// Context carries everything a filter may inspect for one candidate entry.
// Nil Depth or Volume means the corresponding snapshot was unavailable; the
// filter is skipped rather than failed.
type Context struct {
	Momentum  domain.MomentumResult
	Direction domain.Direction
	Depth     *domain.OrderbookDepth
	Volume    *domain.VolumeData
	Now       time.Time
}

// Result is one filter's verdict.
type Result struct {
	Name   string
	Passed bool
	Reason string
}

// Results aggregates the chain outcome.
type Results struct {
	Results []Result
}

// Passed reports whether every evaluated filter passed.
func (r Results) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// FailureReasons returns the reasons of every failed filter, prefixed with
// the filter name.
func (r Results) FailureReasons() []string {
	var reasons []string
	for _, res := range r.Results {
		if !res.Passed {
			reasons = append(reasons, res.Name+": "+res.Reason)
		}
	}
	return reasons
}

// Chain is the fixed set of entry filters, dispatched by configuration flags.
type Chain struct {
	cfg config.FiltersConfig
}

func NewChain(cfg config.FiltersConfig) *Chain {
	return &Chain{cfg: cfg}
}

// Evaluate runs every enabled filter against the context. Evaluation never
// short-circuits.
func (c *Chain) Evaluate(ctx Context) Results {
	var out Results
	if c.cfg.Momentum.Enabled {
		out.Results = append(out.Results, checkMomentum(c.cfg.Momentum, ctx))
	}
	if c.cfg.Orderbook.Enabled && ctx.Depth != nil {
		out.Results = append(out.Results, checkOrderbook(c.cfg.Orderbook, ctx))
	}
	if c.cfg.Volume.Enabled && ctx.Volume != nil {
		out.Results = append(out.Results, checkVolume(c.cfg.Volume, ctx))
	}
	if c.cfg.Time.Enabled {
		out.Results = append(out.Results, checkTime(c.cfg.Time, ctx.Now))
	}
	return out
}

func checkMomentum(cfg config.MomentumFilterConfig, ctx Context) Result {
	res := Result{Name: "momentum", Passed: true}
	mom := ctx.Momentum

	switch {
	case !mom.DirectionMatches(ctx.Direction):
		res.Passed = false
		res.Reason = "momentum direction doesn't match price direction"
	case absScore(mom.Score) < cfg.MinScore:
		res.Passed = false
		res.Reason = fmt.Sprintf("momentum too weak: %.2f < %.2f", absScore(mom.Score), cfg.MinScore)
	case mom.Consistency < cfg.MinConsistency:
		res.Passed = false
		res.Reason = fmt.Sprintf("momentum not consistent: %.2f < %.2f", mom.Consistency, cfg.MinConsistency)
	case cfg.RequireAcceleration && !mom.Accelerating:
		res.Passed = false
		res.Reason = "momentum is decelerating"
	}
	return res
}

func checkOrderbook(cfg config.OrderbookFilterConfig, ctx Context) Result {
	res := Result{Name: "orderbook", Passed: true}

	// The book belongs to the token being bought; a buy consumes its asks
	// whichever outcome that token represents.
	if ctx.Depth.AskDepthUSD < cfg.MinDepthUSD {
		res.Passed = false
		res.Reason = fmt.Sprintf("insufficient orderbook depth: $%.0f < $%.0f", ctx.Depth.AskDepthUSD, cfg.MinDepthUSD)
		return res
	}
	if cfg.CheckBothSides && ctx.Depth.BidDepthUSD < cfg.MinDepthUSD*0.5 {
		res.Passed = false
		res.Reason = fmt.Sprintf("other side too thin: $%.0f < $%.0f", ctx.Depth.BidDepthUSD, cfg.MinDepthUSD*0.5)
	}
	return res
}

func checkVolume(cfg config.VolumeFilterConfig, ctx Context) Result {
	res := Result{Name: "volume", Passed: true}
	vol := ctx.Volume

	if vol.CurrentVolume < cfg.MinAbsolute {
		res.Passed = false
		res.Reason = fmt.Sprintf("volume too low: %.0f < %.0f", vol.CurrentVolume, cfg.MinAbsolute)
		return res
	}
	if vol.AverageVolume > 0 {
		ratio := vol.CurrentVolume / vol.AverageVolume
		if ratio < cfg.MinRatio {
			res.Passed = false
			res.Reason = fmt.Sprintf("no volume surge: %.1fx < %.1fx", ratio, cfg.MinRatio)
		}
	}
	return res
}

func checkTime(cfg config.TimeFilterConfig, now time.Time) Result {
	res := Result{Name: "time", Passed: true}

	local := now.UTC().Add(time.Duration(cfg.UTCOffsetHours) * time.Hour)
	hour := local.Hour()

	if hour < cfg.StartHour || hour >= cfg.EndHour {
		res.Passed = false
		res.Reason = fmt.Sprintf("outside trading hours: %d:00 (allowed %d:00-%d:00)", hour, cfg.StartHour, cfg.EndHour)
		return res
	}
	if !cfg.AllowWeekends {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			res.Passed = false
			res.Reason = "weekend trading disabled"
		}
	}
	return res
}

func absScore(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
