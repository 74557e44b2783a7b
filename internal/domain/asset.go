// Package domain holds the core types shared across the engine: assets,
// price state, momentum, signals, positions, and the event model.
package domain

import "fmt"

// Asset identifies one of the tracked underlyings. The enumeration is fixed;
// all per-asset state is keyed by it.
type Asset int

const (
	AssetBTC Asset = iota
	AssetETH
	AssetSOL
	AssetXRP

	NumAssets = 4
)

// Assets lists every tracked asset in enum order.
var Assets = [NumAssets]Asset{AssetBTC, AssetETH, AssetSOL, AssetXRP}

func (a Asset) String() string {
	switch a {
	case AssetBTC:
		return "BTC"
	case AssetETH:
		return "ETH"
	case AssetSOL:
		return "SOL"
	case AssetXRP:
		return "XRP"
	default:
		return fmt.Sprintf("Asset(%d)", int(a))
	}
}

// BinancePair returns the lowercase spot symbol used by the trade stream.
func (a Asset) BinancePair() string {
	switch a {
	case AssetBTC:
		return "btcusdt"
	case AssetETH:
		return "ethusdt"
	case AssetSOL:
		return "solusdt"
	case AssetXRP:
		return "xrpusdt"
	default:
		return ""
	}
}

// ParseAsset maps an upper-case symbol back to its Asset.
func ParseAsset(s string) (Asset, error) {
	switch s {
	case "BTC":
		return AssetBTC, nil
	case "ETH":
		return AssetETH, nil
	case "SOL":
		return AssetSOL, nil
	case "XRP":
		return AssetXRP, nil
	default:
		return 0, fmt.Errorf("domain: unknown asset %q", s)
	}
}

// Direction is the binary side of a market being bought.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionUp {
		return "UP"
	}
	return "DOWN"
}
