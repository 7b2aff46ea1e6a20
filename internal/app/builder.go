package app

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"claws/internal/config"
	"claws/internal/gateway/altme"
	"claws/internal/gateway/binance"
	"claws/internal/gateway/coincap"
	"claws/internal/gateway/coingecko"
	"claws/internal/gateway/cryptocompare"
	"claws/internal/gateway/notifier"
	"claws/internal/lifecycle"
	"claws/internal/market"
	"claws/internal/store"
	"claws/internal/store/gormstore"
	"claws/internal/store/jsonstore"
	"claws/internal/strategy"
	apihttp "claws/internal/transport/http"
)

func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return gormstore.New(cfg.Store.SQLitePath)
	default:
		return jsonstore.New(cfg.Store.Dir)
	}
}

// buildProviders assembles the price source chain in configured priority
// order, reusing single gateway instances for their secondary roles
// (dominance from CoinGecko, candle history from Binance).
func buildProviders(cfg *config.Config) ([]market.PriceSource, market.DominanceSource, historySource, error) {
	var (
		sources   []market.PriceSource
		dominance market.DominanceSource
		history   historySource
	)
	for _, name := range cfg.Market.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "coingecko":
			gecko := coingecko.New()
			sources = append(sources, gecko)
			dominance = gecko
		case "binance":
			spot := binance.New(binance.Config{QuoteAsset: cfg.Market.QuoteAsset})
			sources = append(sources, spot)
			history = spot
		case "cryptocompare":
			sources = append(sources, cryptocompare.New("", nil))
		case "coincap":
			sources = append(sources, coincap.New("", nil, nil))
		default:
			return nil, nil, nil, fmt.Errorf("unknown price provider %q", name)
		}
	}
	return sources, dominance, history, nil
}

func buildEvaluators(cfg *config.Config) *strategy.Registry {
	var evaluators []strategy.Evaluator
	if cfg.Signals.StrategyEnabled(strategy.KeyExtremeFear) {
		evaluators = append(evaluators, strategy.NewExtremeFear(strategy.ExtremeFearConfig{}))
	}
	if cfg.Signals.StrategyEnabled(strategy.KeyCrashReversal) {
		evaluators = append(evaluators, strategy.NewCrashReversal(strategy.CrashReversalConfig{}))
	}
	if cfg.Signals.StrategyEnabled(strategy.KeyBTCDominance) {
		evaluators = append(evaluators, strategy.NewBTCDominance(strategy.BTCDominanceConfig{}))
	}
	if cfg.Signals.StrategyEnabled(strategy.KeyRSIReversal) {
		evaluators = append(evaluators, strategy.NewRSIReversal(strategy.RSIReversalConfig{}))
	}
	return strategy.NewRegistry(evaluators...)
}

func lifecycleConfig(cfg *config.Config) lifecycle.Config {
	return lifecycle.Config{
		CapitalBase:     cfg.Signals.CapitalBase,
		MaxNewSignals:   cfg.Signals.MaxNew,
		ClosedRetention: cfg.Signals.ClosedRetention,
		RecentClosed:    cfg.Signals.RecentClosed,
	}
}

func buildNotifier(cfg *config.Config) notifier.TextNotifier {
	if !cfg.Notify.Webhook.Enabled {
		return notifier.Noop{}
	}
	return notifier.NewWebhook(cfg.Notify.Webhook.URL, time.Duration(cfg.Notify.Webhook.TimeoutSeconds)*time.Second)
}

func buildApp(cfg *config.Config) (*App, error) {
	st, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	sources, dominance, history, err := buildProviders(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	quotes := market.NewQuoteResolver(sources, market.ResolverConfig{
		CallTimeout: time.Duration(cfg.Market.CallTimeoutSeconds) * time.Second,
		RetryPause:  time.Duration(cfg.Market.RetryPauseMS) * time.Millisecond,
		Concurrent:  cfg.Market.Concurrent,
	})
	if cfg.Market.Breaker.Enabled {
		quotes.EnableBreakers(cfg.Market.Breaker.Threshold, time.Duration(cfg.Market.Breaker.CooldownSeconds)*time.Second)
	}

	sentimentTimeout := time.Duration(cfg.Sentiment.TimeoutSeconds) * time.Second
	sentiment := market.NewSentimentResolver(
		altme.New(cfg.Sentiment.APIURL, &http.Client{Timeout: sentimentTimeout}),
		sentimentTimeout,
	)

	registry := buildEvaluators(cfg)
	manager := lifecycle.NewManager(lifecycleConfig(cfg), st)

	srv, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:       cfg.App.HTTPAddr,
		Store:      st,
		Strategies: append(registry.Infos(), strategy.UltimateFallbackInfo),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	engine := &Engine{
		cfg:       cfg,
		quotes:    quotes,
		sentiment: sentiment,
		dominance: dominance,
		history:   history,
		registry:  registry,
		manager:   manager,
		notify:    buildNotifier(cfg),
		publish:   srv.Publish,
		now:       time.Now,
	}

	return &App{cfg: cfg, engine: engine, httpSrv: srv, store: st}, nil
}
