// Package coingecko adapts the CoinGecko simple-price and global
// endpoints. It is the default primary price provider and the only source
// of the BTC dominance figure.
package coingecko

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

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// defaultIDs maps ticker symbols to CoinGecko asset ids.
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

type Option func(*Source)

func WithBaseURL(u string) Option {
	return func(s *Source) {
		if u != "" {
			s.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithIDs merges extra symbol -> asset id mappings over the defaults.
func WithIDs(ids map[string]string) Option {
	return func(s *Source) {
		for sym, id := range ids {
			s.ids[strings.ToUpper(sym)] = id
		}
	}
}

func New(opts ...Option) *Source {
	s := &Source{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		ids:     make(map[string]string, len(defaultIDs)),
	}
	for sym, id := range defaultIDs {
		s.ids[sym] = id
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Name() string { return "coingecko" }

func (s *Source) FetchPrices(ctx context.Context, symbols []string) (map[string]types.Quote, error) {
	idFor := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		id, ok := s.ids[strings.ToUpper(sym)]
		if !ok {
			continue
		}
		idFor[sym] = id
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no known coingecko ids for %v", symbols)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true",
		s.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	body, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	quotes := make(map[string]types.Quote, len(idFor))
	for sym, id := range idFor {
		price := gjson.GetBytes(body, id+".usd")
		if !price.Exists() {
			continue
		}
		quotes[sym] = types.Quote{
			Price:        price.Float(),
			Change24hPct: gjson.GetBytes(body, id+".usd_24h_change").Float(),
		}
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("payload held none of the requested assets")
	}
	return quotes, nil
}

// FetchBTCDominance reads the BTC market-cap percentage from /global.
func (s *Source) FetchBTCDominance(ctx context.Context) (float64, error) {
	body, err := s.get(ctx, s.baseURL+"/global")
	if err != nil {
		return 0, err
	}
	dom := gjson.GetBytes(body, "data.market_cap_percentage.btc")
	if !dom.Exists() {
		return 0, fmt.Errorf("global payload missing market_cap_percentage.btc")
	}
	return dom.Float(), nil
}

func (s *Source) get(ctx context.Context, endpoint string) ([]byte, error) {
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
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed json payload")
	}
	return body, nil
}
