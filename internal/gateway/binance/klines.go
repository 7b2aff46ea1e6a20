package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// FetchCloses returns up to limit daily closing prices per symbol, oldest
// first, for indicator input. Symbols without kline data are omitted; the
// call fails only when no symbol produced usable history.
func (s *Source) FetchCloses(ctx context.Context, symbols []string, limit int) (map[string][]float64, error) {
	if limit <= 0 {
		limit = 30
	}
	out := make(map[string][]float64, len(symbols))
	var lastErr error
	for _, sym := range symbols {
		pair := s.cfg.pairFor(sym)
		klines, err := s.client.NewKlinesService().Symbol(pair).Interval("1d").Limit(limit).Do(ctx)
		if err != nil {
			lastErr = fmt.Errorf("klines %s: %w", pair, err)
			continue
		}
		closes := make([]float64, 0, len(klines))
		for _, k := range klines {
			v, err := strconv.ParseFloat(strings.TrimSpace(k.Close), 64)
			if err != nil || v <= 0 {
				continue
			}
			closes = append(closes, v)
		}
		if len(closes) > 0 {
			out[sym] = closes
		}
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}
