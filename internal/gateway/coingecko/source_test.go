package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/simple/price":
			assert.Contains(t, r.URL.RawQuery, "include_24hr_change=true")
			w.Write([]byte(`{
				"bitcoin": {"usd": 64000.5, "usd_24h_change": -3.2},
				"ethereum": {"usd": 1800, "usd_24h_change": 1.1}
			}`))
		case "/global":
			w.Write([]byte(`{"data": {"market_cap_percentage": {"btc": 56.4}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := New(WithBaseURL(srv.URL))

	quotes, err := src.FetchPrices(context.Background(), []string{"BTC", "ETH", "SOL"})
	require.NoError(t, err)
	require.Len(t, quotes, 2, "solana absent from payload is skipped, not fatal")
	assert.Equal(t, 64000.5, quotes["BTC"].Price)
	assert.Equal(t, -3.2, quotes["BTC"].Change24hPct)
	assert.Equal(t, 1800.0, quotes["ETH"].Price)

	dom, err := src.FetchBTCDominance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 56.4, dom)
}

func TestFetchPricesNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := New(WithBaseURL(srv.URL))
	_, err := src.FetchPrices(context.Background(), []string{"BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchPricesMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>rate limited</html>`))
	}))
	defer srv.Close()

	src := New(WithBaseURL(srv.URL))
	_, err := src.FetchPrices(context.Background(), []string{"BTC"})
	require.Error(t, err)
}

func TestFetchPricesUnknownSymbol(t *testing.T) {
	src := New()
	_, err := src.FetchPrices(context.Background(), []string{"XYZ"})
	require.Error(t, err)
}
