package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

func TestClassifySlug(t *testing.T) {
	cases := []struct {
		slug  string
		asset domain.Asset
		mt    domain.MarketType
		ok    bool
	}{
		{"btc-updown-15m-2026-01-07-1500", domain.AssetBTC, domain.Market15m, true},
		{"eth-updown-4h-2026-01-07", domain.AssetETH, domain.Market4h, true},
		{"sol-updown-5m-x", domain.AssetSOL, domain.Market5m, true},
		{"xrp-updown-1h-x", domain.AssetXRP, domain.Market1h, true},
		{"btc-updown-daily-x", 0, "", false},
		{"bitcoin-above-100k", 0, "", false},
		{"will-it-rain", 0, "", false},
	}
	for _, c := range cases {
		asset, mt, ok := classifySlug(c.slug)
		if ok != c.ok {
			t.Errorf("%s: ok = %v, want %v", c.slug, ok, c.ok)
			continue
		}
		if ok && (asset != c.asset || mt != c.mt) {
			t.Errorf("%s: got %s/%s, want %s/%s", c.slug, asset, mt, c.asset, c.mt)
		}
	}
}

func TestStringArrayBothShapes(t *testing.T) {
	arr := stringArray(json.RawMessage(`["a","b"]`))
	if len(arr) != 2 || arr[0] != "a" {
		t.Errorf("array form: %v", arr)
	}
	arr = stringArray(json.RawMessage(`"[\"c\",\"d\"]"`))
	if len(arr) != 2 || arr[1] != "d" {
		t.Errorf("string form: %v", arr)
	}
	if got := stringArray(json.RawMessage(`42`)); got != nil {
		t.Errorf("junk form: %v", got)
	}
	if got := stringArray(nil); got != nil {
		t.Errorf("empty: %v", got)
	}
}

func TestNoAskFromYes(t *testing.T) {
	if got := noAskFromYes(0.40); math.Abs(got-0.62) > 1e-9 {
		t.Errorf("noAsk(0.40) = %v, want 0.62", got)
	}
	if got := noAskFromYes(0.01); got != 0.99 {
		t.Errorf("noAsk(0.01) = %v, want capped 0.99", got)
	}
}

func TestDiscover(t *testing.T) {
	now := time.Date(2026, 1, 7, 15, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute).Format(time.RFC3339)

	markets := []map[string]any{
		{
			"slug":          "btc-updown-15m-x",
			"conditionId":   "cond-1",
			"question":      "Bitcoin up or down?",
			"active":        true,
			"closed":        false,
			"end_date_iso":  future,
			"clobTokenIds":  []string{"yes-1", "no-1"},
			"outcomePrices": []string{"0.55", "0.45"},
		},
		{
			// Decided market, ask outside the undecided window.
			"slug":          "eth-updown-15m-x",
			"conditionId":   "cond-2",
			"active":        true,
			"closed":        false,
			"end_date_iso":  future,
			"clobTokenIds":  []string{"yes-2", "no-2"},
			"outcomePrices": []string{"0.95", "0.05"},
		},
		{
			// Expired market.
			"slug":          "sol-updown-15m-x",
			"conditionId":   "cond-3",
			"active":        true,
			"closed":        false,
			"end_date_iso":  now.Add(-time.Minute).Format(time.RFC3339),
			"clobTokenIds":  []string{"yes-3", "no-3"},
			"outcomePrices": []string{"0.50", "0.50"},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			fmt.Fprint(w, "[]")
			return
		}
		json.NewEncoder(w).Encode(markets)
	}))
	defer srv.Close()

	found, err := NewGammaClient(srv.URL).Discover(context.Background(), now)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("found %d markets, want 1 (BTC only): %v", len(found), found)
	}
	btc := found[domain.AssetBTC]
	if btc.YesTokenID != "yes-1" || btc.NoTokenID != "no-1" {
		t.Errorf("token ids = %s/%s", btc.YesTokenID, btc.NoTokenID)
	}
	if btc.Type != domain.Market15m {
		t.Errorf("type = %s, want 15m", btc.Type)
	}
	if math.Abs(btc.YesAsk-0.55) > 1e-9 {
		t.Errorf("yes ask = %v, want 0.55", btc.YesAsk)
	}
	if math.Abs(btc.NoAsk-0.47) > 1e-9 {
		t.Errorf("no ask = %v, want 0.47", btc.NoAsk)
	}
}

func bookHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, body)
	}
}

func TestDepth(t *testing.T) {
	srv := httptest.NewServer(bookHandler(t, `{
		"bids": [{"price":"0.50","size":"100"},{"price":"0.49","size":"200"}],
		"asks": [{"price":"0.51","size":"150"},{"price":"0.52","size":"100"}]
	}`))
	defer srv.Close()

	depth, err := NewClobClient(srv.URL).Depth(context.Background(), "tok")
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if math.Abs(depth.BidDepthUSD-148.0) > 0.01 {
		t.Errorf("bid depth = %v, want 148", depth.BidDepthUSD)
	}
	if math.Abs(depth.AskDepthUSD-128.5) > 0.01 {
		t.Errorf("ask depth = %v, want 128.5", depth.AskDepthUSD)
	}
	if math.Abs(depth.SpreadPct-2.0) > 0.01 {
		t.Errorf("spread = %v, want 2.0", depth.SpreadPct)
	}
}

func TestTokenPrice(t *testing.T) {
	srv := httptest.NewServer(bookHandler(t, `{
		"bids": [{"price":"0.50","size":"100"}],
		"asks": [{"price":"0.53","size":"10"}]
	}`))
	defer srv.Close()

	price, err := NewClobClient(srv.URL).TokenPrice(context.Background(), "tok")
	if err != nil {
		t.Fatalf("token price: %v", err)
	}
	if price != 0.53 {
		t.Errorf("price = %v, want 0.53", price)
	}
}

func TestTokenPriceNoAsks(t *testing.T) {
	srv := httptest.NewServer(bookHandler(t, `{"bids":[],"asks":[]}`))
	defer srv.Close()

	if _, err := NewClobClient(srv.URL).TokenPrice(context.Background(), "tok"); err == nil {
		t.Fatal("expected error on empty book")
	}
}
