package types

import "time"

// Quote is one symbol's resolved price point.
type Quote struct {
	Price        float64 `json:"price"`
	Change24hPct float64 `json:"change_24h_pct"`
}

// MarketSnapshot is the immutable per-run view of the market. It is
// produced once by the resolvers and every downstream consumer reads the
// same instance, so a run is internally consistent even when providers
// disagree between calls.
type MarketSnapshot struct {
	Quotes          map[string]Quote `json:"quotes"`
	SentimentValue  int              `json:"sentiment_value"`
	SentimentLabel  string           `json:"sentiment_label"`
	SentimentSource string           `json:"sentiment_source"`
	PriceSource     string           `json:"price_source"`
	BTCDominancePct float64          `json:"btc_dominance_pct,omitempty"`
	ResolvedAt      time.Time        `json:"resolved_at"`

	// Fallback marks a snapshot assembled from static estimates after
	// every provider failed. Prices must be manually verified.
	Fallback bool `json:"fallback,omitempty"`
}

// Quote returns the snapshot entry for symbol, if any.
func (m MarketSnapshot) Quote(symbol string) (Quote, bool) {
	q, ok := m.Quotes[symbol]
	return q, ok
}

// SentimentLabelFor maps a 0-100 fear & greed value to its band label.
func SentimentLabelFor(value int) string {
	switch {
	case value <= 20:
		return "Extreme Fear"
	case value <= 40:
		return "Fear"
	case value <= 60:
		return "Neutral"
	case value <= 80:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}
