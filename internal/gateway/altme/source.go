// Package altme adapts the alternative.me crypto Fear & Greed index.
package altme

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultEndpoint = "https://api.alternative.me/fng/?limit=1"

type Source struct {
	endpoint string
	client   *http.Client
}

func New(endpoint string, client *http.Client) *Source {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Source{endpoint: endpoint, client: client}
}

func (s *Source) Name() string { return "alternative.me" }

func (s *Source) FetchSentiment(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	value := gjson.GetBytes(body, "data.0.value")
	if !value.Exists() {
		return 0, fmt.Errorf("payload missing data[0].value")
	}
	v := int(value.Int())
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("index value %d outside 0-100", v)
	}
	return v, nil
}
