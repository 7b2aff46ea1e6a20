// Package market resolves a consistent per-run snapshot of prices and
// sentiment from an ordered chain of unreliable third-party providers.
package market

import (
	"context"
	"errors"
	"fmt"

	"claws/internal/types"
)

// PriceSource is one external price provider. FetchPrices returns quotes
// for the symbols the provider can serve; partial coverage is fine, but
// every returned price must be positive.
type PriceSource interface {
	Name() string
	FetchPrices(ctx context.Context, symbols []string) (map[string]types.Quote, error)
}

// SentimentSource returns a 0-100 fear & greed style index.
type SentimentSource interface {
	Name() string
	FetchSentiment(ctx context.Context) (int, error)
}

// DominanceSource optionally reports the BTC market-cap dominance
// percentage. Providers that can serve it implement this alongside
// PriceSource.
type DominanceSource interface {
	FetchBTCDominance(ctx context.Context) (float64, error)
}

// ErrResolutionExhausted is returned when every provider in the chain
// failed. The caller decides whether to activate an emergency fallback;
// the resolver itself never fabricates prices.
var ErrResolutionExhausted = errors.New("all market data providers failed")

// ProviderError wraps a single provider failure so the attempt log can
// name the source.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
