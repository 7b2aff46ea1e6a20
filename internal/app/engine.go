package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"claws/internal/audit"
	"claws/internal/config"
	"claws/internal/gateway/notifier"
	"claws/internal/lifecycle"
	"claws/internal/logger"
	"claws/internal/market"
	"claws/internal/report"
	"claws/internal/strategy"
	"claws/internal/types"
)

const historyDepth = 30

type historySource interface {
	FetchCloses(ctx context.Context, symbols []string, limit int) (map[string][]float64, error)
}

// Engine executes one full resolution pass: sentiment, prices, strategy
// evaluation, lifecycle transition, report output.
type Engine struct {
	quotes    *market.QuoteResolver
	sentiment *market.SentimentResolver
	dominance market.DominanceSource
	history   historySource
	notify    notifier.TextNotifier
	publish   func(types.RunReport)
	now       func() time.Time

	// mu guards the parts a config reload swaps while the scheduler
	// loop keeps running.
	mu       sync.RWMutex
	cfg      *config.Config
	registry *strategy.Registry
	manager  *lifecycle.Manager
}

// swapConfig installs a reloaded config with its rebuilt strategy registry
// and lifecycle manager. Provider chain, store backend and HTTP address
// keep their startup wiring.
func (e *Engine) swapConfig(cfg *config.Config, registry *strategy.Registry, manager *lifecycle.Manager) {
	e.mu.Lock()
	e.cfg = cfg
	e.registry = registry
	e.manager = manager
	e.mu.Unlock()
}

// RunOnce performs a single pass. Provider exhaustion does not abort the
// run: the labeled emergency picks take over and the report says so.
func (e *Engine) RunOnce(ctx context.Context) (types.RunReport, error) {
	now := e.now().UTC()
	trail := audit.NewLog()

	e.mu.RLock()
	cfg, registry, manager := e.cfg, e.registry, e.manager
	e.mu.RUnlock()

	sent := e.sentiment.Resolve(ctx, trail)
	logger.Infof("sentiment: %d (%s) [source: %s]", sent.Value, sent.Label, sent.Source)

	res, err := e.quotes.Resolve(ctx, cfg.Market.Symbols, trail)
	fallback := false
	var candidates []types.Signal
	var dominance float64

	if err != nil {
		if !errors.Is(err, market.ErrResolutionExhausted) {
			return types.RunReport{}, err
		}
		fallback = true
		failed := make([]string, 0, len(res.Attempts))
		for _, a := range res.Attempts {
			failed = append(failed, a.Provider)
		}
		logger.Errorf("all price providers failed, switching to emergency picks")
		trail.Record(types.AuditFallback, "all price providers failed, emergency picks engaged", map[string]any{
			"providers": failed,
		})
		candidates = strategy.UltimateFallback(sent.Value, failed, now)
	} else {
		logger.Infof("prices resolved from %s (%d symbols)", res.Source, len(res.Quotes))
		dominance = e.fetchDominance(ctx)
	}

	snapshot := market.Assemble(res, sent, dominance, now)
	snapshot.Fallback = fallback

	if !fallback {
		history := e.fetchHistory(ctx, cfg.Market.Symbols)
		for _, ev := range registry.Evaluators() {
			candidates = append(candidates, ev.Evaluate(snapshot, history, now, trail)...)
		}
	}

	outcome, err := manager.Run(ctx, snapshot, candidates, trail)
	if err != nil {
		return types.RunReport{}, err
	}

	rep := report.Build(snapshot, outcome, trail, cfg.Signals.CapitalBase, res.Attempts, fallback, now)
	if err := report.Write(cfg.App.ReportPath, rep); err != nil {
		logger.Errorf("writing report artifact failed: %v", err)
	}
	if e.publish != nil {
		e.publish(rep)
	}
	summary := report.Summary(rep)
	logger.InfoBlock(summary)
	if e.notify != nil {
		if err := e.notify.SendText(summary); err != nil {
			logger.Warnf("notification failed: %v", err)
		}
	}
	logger.Infof("run %s complete: %d new, %d closed, %d active",
		rep.RunID, len(outcome.NewlyOpen), len(outcome.ClosedNow), outcome.Stats.ActiveCount)
	return rep, nil
}

// fetchDominance is best effort. The dominance strategy skips itself when
// the value is unavailable.
func (e *Engine) fetchDominance(ctx context.Context) float64 {
	if e.dominance == nil {
		return 0
	}
	callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	dom, err := e.dominance.FetchBTCDominance(callCtx)
	if err != nil {
		logger.Warnf("btc dominance unavailable: %v", err)
		return 0
	}
	return dom
}

// fetchHistory is best effort. Indicator strategies skip symbols without
// enough closes.
func (e *Engine) fetchHistory(ctx context.Context, symbols []string) strategy.Candles {
	if e.history == nil {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	closes, err := e.history.FetchCloses(callCtx, symbols, historyDepth)
	if err != nil {
		logger.Warnf("candle history unavailable: %v", err)
		return nil
	}
	return closes
}
