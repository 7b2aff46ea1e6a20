package config

import "strings"

// Config is the full runtime configuration. Field tags follow the merged
// YAML layout; see configs/config.yaml for a commented example.
type Config struct {
	App       AppConfig       `toml:"app"`
	Market    MarketConfig    `toml:"market"`
	Sentiment SentimentConfig `toml:"sentiment"`
	Signals   SignalsConfig   `toml:"signals"`
	Store     StoreConfig     `toml:"store"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Notify    NotifyConfig    `toml:"notify"`
}

type AppConfig struct {
	Env        string `toml:"env"`
	LogLevel   string `toml:"log_level"`
	LogPath    string `toml:"log_path"`
	HTTPAddr   string `toml:"http_addr"`
	ReportPath string `toml:"report_path"`
}

// MarketConfig drives the quote resolver and its provider chain.
type MarketConfig struct {
	Symbols            []string      `toml:"symbols"`
	QuoteAsset         string        `toml:"quote_asset"`
	Providers          []string      `toml:"providers"`
	CallTimeoutSeconds int           `toml:"call_timeout_seconds"`
	RetryPauseMS       int           `toml:"retry_pause_ms"`
	Concurrent         bool          `toml:"concurrent"`
	Breaker            BreakerConfig `toml:"breaker"`
}

type BreakerConfig struct {
	Enabled         bool `toml:"enabled"`
	Threshold       int  `toml:"threshold"`
	CooldownSeconds int  `toml:"cooldown_seconds"`
}

type SentimentConfig struct {
	APIURL         string `toml:"api_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SignalsConfig bounds the lifecycle manager.
type SignalsConfig struct {
	CapitalBase     float64  `toml:"capital_base"`
	MaxNew          int      `toml:"max_new"`
	ClosedRetention int      `toml:"closed_retention"`
	RecentClosed    int      `toml:"recent_closed"`
	Strategies      []string `toml:"strategies"`
}

type StoreConfig struct {
	// Backend is "json" or "sqlite".
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	SQLitePath string `toml:"sqlite_path"`
}

type SchedulerConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes"`
	RunImmediately  bool `toml:"run_immediately"`
}

type NotifyConfig struct {
	Webhook WebhookConfig `toml:"webhook"`
}

type WebhookConfig struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StrategyEnabled reports whether key appears in signals.strategies. An
// empty list enables every registered strategy.
func (s SignalsConfig) StrategyEnabled(key string) bool {
	if len(s.Strategies) == 0 {
		return true
	}
	for _, k := range s.Strategies {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return true
		}
	}
	return false
}

// keySet tracks which config paths the user actually set, so defaults only
// fill genuinely missing keys and an explicit zero survives.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
