// Package tracker maintains rolling underlying price state per asset.
package tracker

import (
	"sync"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

type priceState struct {
	current       float64
	intervalStart float64
	history       []domain.PriceSample
	lastUpdated   time.Time
}

// Tracker records streamed prices and serves immutable snapshots to the
// strategy loop. All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	states map[domain.Asset]*priceState
}

func New() *Tracker {
	return &Tracker{states: make(map[domain.Asset]*priceState, domain.NumAssets)}
}

// Update records a new trade price for the asset. The first update of an
// asset also seeds the interval start price.
func (t *Tracker) Update(asset domain.Asset, price float64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[asset]
	if !ok {
		st = &priceState{history: make([]domain.PriceSample, 0, domain.HistorySize)}
		t.states[asset] = st
	}

	st.current = price
	if st.intervalStart == 0 {
		st.intervalStart = price
	}
	st.history = append(st.history, domain.PriceSample{Price: price, Time: now})
	if len(st.history) > domain.HistorySize {
		st.history = st.history[1:]
	}
	st.lastUpdated = now
}

// ResetInterval re-bases the interval start on the current price, typically
// after a position is closed on the asset. History is preserved so momentum
// stays warm.
func (t *Tracker) ResetInterval(asset domain.Asset) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st, ok := t.states[asset]; ok {
		st.intervalStart = st.current
	}
}

// Snapshot returns a copy of the asset's state. The second return is false
// until the first update arrives.
func (t *Tracker) Snapshot(asset domain.Asset) (domain.PriceSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.states[asset]
	if !ok {
		return domain.PriceSnapshot{}, false
	}

	hist := make([]domain.PriceSample, len(st.history))
	copy(hist, st.history)

	return domain.PriceSnapshot{
		Asset:              asset,
		CurrentPrice:       st.current,
		IntervalStartPrice: st.intervalStart,
		History:            hist,
		LastUpdated:        st.lastUpdated,
	}, true
}

// Price returns the last seen price for the asset, or false if none yet.
func (t *Tracker) Price(asset domain.Asset) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st, ok := t.states[asset]
	if !ok {
		return 0, false
	}
	return st.current, true
}
