// Package binance adapts the Binance spot 24h ticker endpoint to the
// quote resolver's PriceSource contract via the go-binance SDK.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"

	"claws/internal/types"
)

type Source struct {
	cfg    Config
	client *binance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := binance.NewClient("", "")
	if final.RESTBaseURL != "" {
		client.BaseURL = final.RESTBaseURL
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

func (s *Source) Name() string { return "binance" }

// FetchPrices queries the 24h ticker per symbol. Symbols the venue does
// not list are skipped; the call fails only when nothing was usable.
func (s *Source) FetchPrices(ctx context.Context, symbols []string) (map[string]types.Quote, error) {
	quotes := make(map[string]types.Quote, len(symbols))
	var lastErr error
	for _, sym := range symbols {
		pair := s.cfg.pairFor(sym)
		stats, err := s.client.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
		if err != nil {
			lastErr = fmt.Errorf("ticker %s: %w", pair, err)
			continue
		}
		if len(stats) == 0 {
			lastErr = fmt.Errorf("ticker %s: empty response", pair)
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(stats[0].LastPrice), 64)
		if err != nil {
			lastErr = fmt.Errorf("ticker %s: bad last price %q", pair, stats[0].LastPrice)
			continue
		}
		change, err := strconv.ParseFloat(strings.TrimSpace(stats[0].PriceChangePercent), 64)
		if err != nil {
			change = 0
		}
		quotes[sym] = types.Quote{Price: price, Change24hPct: change}
	}
	if len(quotes) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no symbols requested")
	}
	return quotes, nil
}
