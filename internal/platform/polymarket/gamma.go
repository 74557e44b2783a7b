// Package polymarket holds the REST clients for the Polymarket Gamma and
// CLOB APIs: market discovery, orderbook depth, and token quotes.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

const (
	discoverPageSize = 100
	discoverMaxPages = 5

	// Markets quoted far from even money are effectively decided; there is
	// no continuation edge left to capture.
	minUndecidedAsk = 0.20
	maxUndecidedAsk = 0.80
)

// GammaClient is the REST client for the Polymarket Gamma API, used for
// up/down market discovery.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a Gamma client. baseURL is the API root, e.g.
// "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Discover pages through active markets and selects the current up/down
// market per asset. Assets without a live, undecided market are absent from
// the result.
func (g *GammaClient) Discover(ctx context.Context, now time.Time) (map[domain.Asset]domain.MarketContext, error) {
	found := make(map[domain.Asset]domain.MarketContext)

	for page := 0; page < discoverMaxPages; page++ {
		markets, err := g.page(ctx, page*discoverPageSize)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			break
		}
		for _, m := range markets {
			asset, mt, ok := classifySlug(m.Slug)
			if !ok {
				continue
			}
			if _, have := found[asset]; have {
				continue
			}
			if mctx, ok := g.toContext(m, asset, mt, now); ok {
				found[asset] = mctx
			}
		}
		if len(found) == domain.NumAssets {
			break
		}
	}
	return found, nil
}

func (g *GammaClient) page(ctx context.Context, offset int) ([]apiMarket, error) {
	url := fmt.Sprintf("%s/markets?active=true&closed=false&limit=%d&offset=%d", g.baseURL, discoverPageSize, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: build request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polymarket/gamma: get markets: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: read body: %w", err)
	}

	var markets []apiMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return markets, nil
}

func (g *GammaClient) toContext(m apiMarket, asset domain.Asset, mt domain.MarketType, now time.Time) (domain.MarketContext, bool) {
	if m.Closed || !m.Active {
		return domain.MarketContext{}, false
	}

	var resolvesAt time.Time
	if m.EndDateISO != "" {
		t, err := time.Parse(time.RFC3339, m.EndDateISO)
		if err != nil || t.Before(now) {
			return domain.MarketContext{}, false
		}
		resolvesAt = t
	}

	yesTok, noTok, ok := m.tokenIDs()
	if !ok {
		return domain.MarketContext{}, false
	}

	yesAsk := m.yesPrice()
	if yesAsk < minUndecidedAsk || yesAsk > maxUndecidedAsk {
		return domain.MarketContext{}, false
	}

	return domain.MarketContext{
		Asset:       asset,
		ConditionID: m.ConditionID,
		Type:        mt,
		YesTokenID:  yesTok,
		NoTokenID:   noTok,
		YesAsk:      yesAsk,
		NoAsk:       noAskFromYes(yesAsk),
		ResolvesAt:  resolvesAt,
		Description: m.Question,
		UpdatedAt:   now,
	}, true
}

// noAskFromYes approximates the NO ask from the YES price plus a small
// spread allowance, capped at 99c.
func noAskFromYes(yesAsk float64) float64 {
	no := 1 - yesAsk + 0.02
	if no > 0.99 {
		no = 0.99
	}
	return no
}

var slugPrefixes = map[string]domain.Asset{
	"btc-updown-": domain.AssetBTC,
	"eth-updown-": domain.AssetETH,
	"sol-updown-": domain.AssetSOL,
	"xrp-updown-": domain.AssetXRP,
}

// classifySlug maps a Gamma market slug to its asset and interval type.
func classifySlug(slug string) (domain.Asset, domain.MarketType, bool) {
	for prefix, asset := range slugPrefixes {
		if !strings.HasPrefix(slug, prefix) {
			continue
		}
		rest := slug[len(prefix):]
		switch {
		case strings.HasPrefix(rest, "5m-"):
			return asset, domain.Market5m, true
		case strings.HasPrefix(rest, "15m-"):
			return asset, domain.Market15m, true
		case strings.HasPrefix(rest, "1h-"):
			return asset, domain.Market1h, true
		case strings.HasPrefix(rest, "4h-"):
			return asset, domain.Market4h, true
		}
	}
	return 0, "", false
}
