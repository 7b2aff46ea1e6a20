package config

import (
	"fmt"
	"net/url"
	"strings"
)

var knownProviders = map[string]bool{
	"coingecko":     true,
	"binance":       true,
	"cryptocompare": true,
	"coincap":       true,
}

func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Signals.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.Symbols) == 0 {
		return fmt.Errorf("market.symbols requires at least one symbol")
	}
	if len(m.Providers) == 0 {
		return fmt.Errorf("market.providers requires at least one provider")
	}
	for _, p := range m.Providers {
		if !knownProviders[strings.ToLower(strings.TrimSpace(p))] {
			return fmt.Errorf("market.providers contains unknown provider %q", p)
		}
	}
	return nil
}

func (s *SignalsConfig) validate() error {
	if s.CapitalBase <= 0 {
		return fmt.Errorf("signals.capital_base must be > 0")
	}
	if s.MaxNew <= 0 {
		return fmt.Errorf("signals.max_new must be > 0")
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Backend {
	case "json", "sqlite":
		return nil
	default:
		return fmt.Errorf("store.backend must be \"json\" or \"sqlite\" (got %q)", s.Backend)
	}
}

func (n *NotifyConfig) validate() error {
	if !n.Webhook.Enabled {
		return nil
	}
	raw := strings.TrimSpace(n.Webhook.URL)
	if raw == "" {
		return fmt.Errorf("notify.webhook.url is required when the webhook is enabled")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("notify.webhook.url must be a valid http(s) URL")
	}
	return nil
}
