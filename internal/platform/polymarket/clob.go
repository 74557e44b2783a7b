package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maybethisisasgoodasitgets/polyrust/internal/domain"
)

// depthLevels is how many levels per side count toward the depth figure.
const depthLevels = 5

// ClobClient is the read-only REST client for the Polymarket CLOB API. It
// serves orderbook depth for the liquidity filter and live token quotes for
// exit evaluation.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a CLOB client. baseURL is the API root, e.g.
// "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Depth fetches the orderbook for a token and sums the top levels per side
// into USD depth.
func (c *ClobClient) Depth(ctx context.Context, tokenID string) (*domain.OrderbookDepth, error) {
	book, err := c.book(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	depth := &domain.OrderbookDepth{}
	for i, lvl := range book.Bids {
		if i >= depthLevels {
			break
		}
		price, size, ok := parseLevel(lvl)
		if ok {
			depth.BidDepthUSD += price * size
		}
	}
	for i, lvl := range book.Asks {
		if i >= depthLevels {
			break
		}
		price, size, ok := parseLevel(lvl)
		if ok {
			depth.AskDepthUSD += price * size
		}
	}

	if len(book.Bids) > 0 && len(book.Asks) > 0 {
		bestBid, _, okB := parseLevel(book.Bids[0])
		bestAsk, _, okA := parseLevel(book.Asks[0])
		if okB && okA && bestBid > 0 {
			depth.SpreadPct = (bestAsk - bestBid) / bestBid * 100
		}
	}
	return depth, nil
}

// TokenPrice returns the best ask for a token, the price paid to enter or
// marked against for an open position. domain.ErrNoQuote means the book has
// no live ask.
func (c *ClobClient) TokenPrice(ctx context.Context, tokenID string) (float64, error) {
	book, err := c.book(ctx, tokenID)
	if err != nil {
		return 0, err
	}
	if len(book.Asks) == 0 {
		return 0, domain.ErrNoQuote
	}
	price, _, ok := parseLevel(book.Asks[0])
	if !ok || price <= 0 {
		return 0, domain.ErrNoQuote
	}
	return price, nil
}

func (c *ClobClient) book(ctx context.Context, tokenID string) (*bookResponse, error) {
	u := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, url.QueryEscape(tokenID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get book: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// The CLOB returns 400 for books that do not exist yet.
		return nil, fmt.Errorf("polymarket/clob: get book %s: status %d", tokenID, resp.StatusCode)
	}

	var book bookResponse
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	return &book, nil
}

func parseLevel(lvl bookLevel) (price, size float64, ok bool) {
	price, err := strconv.ParseFloat(lvl.Price, 64)
	if err != nil {
		return 0, 0, false
	}
	size, err = strconv.ParseFloat(lvl.Size, 64)
	if err != nil {
		return 0, 0, false
	}
	return price, size, true
}
