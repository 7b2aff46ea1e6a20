package config

import "strings"

const (
	defaultAppEnv          = "dev"
	defaultAppLogLevel     = "info"
	defaultAppHTTPAddr     = ":9993"
	defaultAppReportPath   = "docs/picks.json"
	defaultQuoteAsset      = "USDT"
	defaultCallTimeoutSec  = 3
	defaultRetryPauseMS    = 500
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 300
	defaultSentimentURL    = "https://api.alternative.me/fng/"
	defaultSentimentSec    = 10
	defaultCapitalBase     = 10000
	defaultMaxNew          = 5
	defaultClosedRetention = 1000
	defaultRecentClosed    = 10
	defaultStoreBackend    = "json"
	defaultStoreDir        = "data/signals"
	defaultSQLitePath      = "data/signals.db"
	defaultIntervalMinutes = 30
	defaultWebhookTimeout  = 10
)

var defaultSymbols = []string{"BTC", "ETH", "SOL"}

var defaultProviders = []string{"coingecko", "binance", "cryptocompare", "coincap"}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Sentiment.applyDefaults(keys)
	c.Signals.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Scheduler.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.report_path", &a.ReportPath, defaultAppReportPath),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("market.quote_asset", &m.QuoteAsset, defaultQuoteAsset),
		fieldDefault{
			key:   "market.symbols",
			need:  func() bool { return len(m.Symbols) == 0 },
			apply: func() { m.Symbols = append([]string(nil), defaultSymbols...) },
		},
		fieldDefault{
			key:   "market.providers",
			need:  func() bool { return len(m.Providers) == 0 },
			apply: func() { m.Providers = append([]string(nil), defaultProviders...) },
		},
		fieldDefault{
			key:   "market.call_timeout_seconds",
			need:  func() bool { return m.CallTimeoutSeconds <= 0 },
			apply: func() { m.CallTimeoutSeconds = defaultCallTimeoutSec },
		},
		fieldDefault{
			key:   "market.retry_pause_ms",
			need:  func() bool { return m.RetryPauseMS <= 0 },
			apply: func() { m.RetryPauseMS = defaultRetryPauseMS },
		},
		fieldDefault{
			key:   "market.breaker.threshold",
			need:  func() bool { return m.Breaker.Threshold <= 0 },
			apply: func() { m.Breaker.Threshold = defaultBreakerFailures },
		},
		fieldDefault{
			key:   "market.breaker.cooldown_seconds",
			need:  func() bool { return m.Breaker.CooldownSeconds <= 0 },
			apply: func() { m.Breaker.CooldownSeconds = defaultBreakerCooldown },
		},
	)
	for i, sym := range m.Symbols {
		m.Symbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
}

func (s *SentimentConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("sentiment.api_url", &s.APIURL, defaultSentimentURL),
		fieldDefault{
			key:   "sentiment.timeout_seconds",
			need:  func() bool { return s.TimeoutSeconds <= 0 },
			apply: func() { s.TimeoutSeconds = defaultSentimentSec },
		},
	)
}

func (s *SignalsConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "signals.capital_base",
			need:  func() bool { return s.CapitalBase <= 0 },
			apply: func() { s.CapitalBase = defaultCapitalBase },
		},
		fieldDefault{
			key:   "signals.max_new",
			need:  func() bool { return s.MaxNew <= 0 },
			apply: func() { s.MaxNew = defaultMaxNew },
		},
		fieldDefault{
			key:   "signals.closed_retention",
			need:  func() bool { return s.ClosedRetention <= 0 },
			apply: func() { s.ClosedRetention = defaultClosedRetention },
		},
		fieldDefault{
			key:   "signals.recent_closed",
			need:  func() bool { return s.RecentClosed <= 0 },
			apply: func() { s.RecentClosed = defaultRecentClosed },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("store.backend", &s.Backend, defaultStoreBackend),
		stringFieldDefault("store.dir", &s.Dir, defaultStoreDir),
		stringFieldDefault("store.sqlite_path", &s.SQLitePath, defaultSQLitePath),
	)
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
}

func (s *SchedulerConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "scheduler.interval_minutes",
			need:  func() bool { return s.IntervalMinutes <= 0 },
			apply: func() { s.IntervalMinutes = defaultIntervalMinutes },
		},
		boolFieldDefault("scheduler.run_immediately", &s.RunImmediately, true),
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "notify.webhook.timeout_seconds",
			need:  func() bool { return n.Webhook.TimeoutSeconds <= 0 },
			apply: func() { n.Webhook.TimeoutSeconds = defaultWebhookTimeout },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
