package polymarket

import (
	"encoding/json"
	"strconv"
)

// apiMarket is the subset of the Gamma market payload discovery needs.
type apiMarket struct {
	Slug          string          `json:"slug"`
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	Active        bool            `json:"active"`
	Closed        bool            `json:"closed"`
	EndDateISO    string          `json:"end_date_iso"`
	ClobTokenIDs  json.RawMessage `json:"clobTokenIds"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
}

// stringArray decodes a field that the Gamma API serves either as a JSON
// array or as a JSON string containing an array.
func stringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil
	}
	return arr
}

// tokenIDs returns the YES and NO clob token ids, or false when the market
// does not carry both.
func (m apiMarket) tokenIDs() (yes, no string, ok bool) {
	ids := stringArray(m.ClobTokenIDs)
	if len(ids) < 2 || ids[0] == "" || ids[1] == "" {
		return "", "", false
	}
	return ids[0], ids[1], true
}

// yesPrice returns the current YES outcome price, defaulting to 0.50 when
// the field is absent or unparseable.
func (m apiMarket) yesPrice() float64 {
	prices := stringArray(m.OutcomePrices)
	if len(prices) == 0 {
		return 0.50
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0.50
	}
	return p
}

// bookLevel is one price level of the CLOB book payload.
type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type bookResponse struct {
	Bids []bookLevel `json:"bids"`
	Asks []bookLevel `json:"asks"`
}
