// Package coincap adapts the CoinCap per-asset endpoint. CoinCap reports
// numeric fields as JSON strings; gjson coerces them.
package coincap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"claws/internal/types"
)

const defaultBaseURL = "https://api.coincap.io/v2"

var defaultIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

type Source struct {
	baseURL string
	client  *http.Client
	ids     map[string]string
}

func New(baseURL string, client *http.Client, extraIDs map[string]string) *Source {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	ids := make(map[string]string, len(defaultIDs)+len(extraIDs))
	for sym, id := range defaultIDs {
		ids[sym] = id
	}
	for sym, id := range extraIDs {
		ids[strings.ToUpper(sym)] = id
	}
	return &Source{baseURL: strings.TrimSuffix(baseURL, "/"), client: client, ids: ids}
}

func (s *Source) Name() string { return "coincap" }

func (s *Source) FetchPrices(ctx context.Context, symbols []string) (map[string]types.Quote, error) {
	quotes := make(map[string]types.Quote, len(symbols))
	var lastErr error
	for _, sym := range symbols {
		id, ok := s.ids[strings.ToUpper(sym)]
		if !ok {
			continue
		}
		q, err := s.fetchAsset(ctx, id)
		if err != nil {
			lastErr = fmt.Errorf("asset %s: %w", id, err)
			continue
		}
		quotes[sym] = q
	}
	if len(quotes) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no known coincap ids for %v", symbols)
	}
	return quotes, nil
}

func (s *Source) fetchAsset(ctx context.Context, id string) (types.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/assets/"+id, nil)
	if err != nil {
		return types.Quote{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return types.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return types.Quote{}, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.Quote{}, err
	}
	price := gjson.GetBytes(body, "data.priceUsd")
	if !price.Exists() {
		return types.Quote{}, fmt.Errorf("payload missing data.priceUsd")
	}
	return types.Quote{
		Price:        price.Float(),
		Change24hPct: gjson.GetBytes(body, "data.changePercent24Hr").Float(),
	}, nil
}
