// Package cryptocompare adapts the CryptoCompare pricemultifull endpoint.
package cryptocompare

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"claws/internal/types"
)

const defaultBaseURL = "https://min-api.cryptocompare.com"

type Source struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Source {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Source{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (s *Source) Name() string { return "cryptocompare" }

func (s *Source) FetchPrices(ctx context.Context, symbols []string) (map[string]types.Quote, error) {
	endpoint := fmt.Sprintf("%s/data/pricemultifull?fsyms=%s&tsyms=USD",
		s.baseURL, url.QueryEscape(strings.Join(symbols, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	raw := gjson.GetBytes(body, "RAW")
	if !raw.Exists() {
		return nil, fmt.Errorf("payload missing RAW block")
	}
	quotes := make(map[string]types.Quote, len(symbols))
	for _, sym := range symbols {
		price := raw.Get(sym + ".USD.PRICE")
		if !price.Exists() {
			continue
		}
		quotes[sym] = types.Quote{
			Price:        price.Float(),
			Change24hPct: raw.Get(sym + ".USD.CHANGEPCT24HOUR").Float(),
		}
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("payload held none of the requested assets")
	}
	return quotes, nil
}
