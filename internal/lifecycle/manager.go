// Package lifecycle drives the signal state machine: evaluate active
// signals against a fresh market snapshot, close take-profit and stop-loss
// crossings, merge new candidates, and keep aggregate performance stats.
package lifecycle

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"claws/internal/audit"
	"claws/internal/logger"
	"claws/internal/store"
	"claws/internal/strategy"
	"claws/internal/types"
)

type Config struct {
	// CapitalBase is the notional account size used to turn percentage
	// moves into currency amounts.
	CapitalBase float64
	// MaxNewSignals caps how many candidates may be activated per run,
	// highest confidence first.
	MaxNewSignals int
	// ClosedRetention bounds the closed history length.
	ClosedRetention int
	// RecentClosed is how many of the latest closures the run outcome
	// carries for reporting.
	RecentClosed int
}

func DefaultConfig() Config {
	return Config{
		CapitalBase:     10000,
		MaxNewSignals:   5,
		ClosedRetention: 1000,
		RecentClosed:    10,
	}
}

func (c *Config) normalize() {
	d := DefaultConfig()
	if c.CapitalBase <= 0 {
		c.CapitalBase = d.CapitalBase
	}
	if c.MaxNewSignals <= 0 {
		c.MaxNewSignals = d.MaxNewSignals
	}
	if c.ClosedRetention <= 0 {
		c.ClosedRetention = d.ClosedRetention
	}
	if c.RecentClosed <= 0 {
		c.RecentClosed = d.RecentClosed
	}
}

// Outcome is the result of one lifecycle pass.
type Outcome struct {
	Active       []types.Signal
	NewlyOpen    []types.Signal
	ClosedNow    []types.Signal
	RecentClosed []types.Signal
	Stats        types.PerformanceStats
}

type Manager struct {
	cfg   Config
	store store.Store
	now   func() time.Time
}

func NewManager(cfg Config, st store.Store) *Manager {
	cfg.normalize()
	return &Manager{cfg: cfg, store: st, now: time.Now}
}

// SetClock overrides the wall clock, used by tests for stable timestamps.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// Run executes one full pass inside the store's update transaction:
// active evaluation, closure, candidate merge, retention trim, stats.
func (m *Manager) Run(ctx context.Context, snapshot types.MarketSnapshot, candidates []types.Signal, trail *audit.Log) (Outcome, error) {
	now := m.now().UTC()
	var out Outcome
	_, err := m.store.Update(ctx, func(st *store.State) error {
		closedNow := m.evaluateActive(st, snapshot, now, trail)
		opened := m.mergeCandidates(st, candidates, now, trail)
		if n := len(st.Closed); n > m.cfg.ClosedRetention {
			st.Closed = append([]types.Signal(nil), st.Closed[n-m.cfg.ClosedRetention:]...)
		}
		out = Outcome{
			Active:       append([]types.Signal(nil), st.Active...),
			NewlyOpen:    opened,
			ClosedNow:    closedNow,
			RecentClosed: recentClosed(st.Closed, m.cfg.RecentClosed),
			Stats:        m.computeStats(st),
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// evaluateActive walks the active set against the snapshot. Signals whose
// symbol is missing from the snapshot stay untouched; a malformed price is
// logged and that one signal skips this run's transition check.
func (m *Manager) evaluateActive(st *store.State, snapshot types.MarketSnapshot, now time.Time, trail *audit.Log) []types.Signal {
	var closed []types.Signal
	remaining := st.Active[:0]
	for i := range st.Active {
		sig := st.Active[i]
		quote, ok := snapshot.Quote(sig.Symbol)
		if !ok {
			remaining = append(remaining, sig)
			continue
		}
		if quote.Price <= 0 || math.IsNaN(quote.Price) || math.IsInf(quote.Price, 0) {
			logger.Warnf("lifecycle: unusable price %v for %s, skipping evaluation", quote.Price, sig.Symbol)
			trail.Record(types.AuditEvaluationError, fmt.Sprintf("%s: unusable price %v", sig.Symbol, quote.Price), map[string]any{
				"symbol": sig.Symbol,
				"signal": sig.ID,
			})
			remaining = append(remaining, sig)
			continue
		}
		if reason, hit := crossing(sig, quote.Price); hit {
			m.closeSignal(&sig, quote.Price, reason, now, trail)
			closed = append(closed, sig)
			st.Closed = append(st.Closed, sig)
			continue
		}
		m.markToMarket(&sig, quote.Price)
		remaining = append(remaining, sig)
	}
	st.Active = remaining
	return closed
}

// crossing reports whether price triggers an exit. When both thresholds
// would fire in the same tick the take-profit side wins.
func crossing(sig types.Signal, price float64) (string, bool) {
	p := decimal.NewFromFloat(price)
	tp := decimal.NewFromFloat(sig.TakeProfitPrice)
	sl := decimal.NewFromFloat(sig.StopLossPrice)
	switch sig.Direction {
	case types.DirectionShort:
		if p.LessThanOrEqual(tp) {
			return types.ExitReasonTakeProfit, true
		}
		if p.GreaterThanOrEqual(sl) {
			return types.ExitReasonStopLoss, true
		}
	default:
		if p.GreaterThanOrEqual(tp) {
			return types.ExitReasonTakeProfit, true
		}
		if p.LessThanOrEqual(sl) {
			return types.ExitReasonStopLoss, true
		}
	}
	return "", false
}

func (m *Manager) closeSignal(sig *types.Signal, price float64, reason string, now time.Time, trail *audit.Log) {
	pct := pnlPct(sig.Direction, sig.EntryPrice, price)
	amount := pnlAmount(pct, m.cfg.CapitalBase, sig.PositionFraction)
	closedAt := now
	switch reason {
	case types.ExitReasonTakeProfit:
		sig.Status = types.StatusClosedTP
	default:
		sig.Status = types.StatusClosedSL
	}
	sig.ExitPrice = price
	sig.ExitReason = reason
	sig.ClosedAt = &closedAt
	sig.RealizedPnlPct = pct
	sig.RealizedPnlAmount = amount
	sig.CurrentPrice = 0
	sig.UnrealizedPnlPct = 0
	sig.UnrealizedPnlAmt = 0
	sig.TakeProfitDistPct = 0
	sig.StopLossDistPct = 0
	logger.Infof("lifecycle: %s %s closed %s at %.4f (%.2f%%)", sig.Symbol, sig.StrategyKey, reason, price, pct)
	trail.Record(types.AuditSignalClosed, fmt.Sprintf("%s %s closed %s at %v", sig.Symbol, sig.StrategyKey, reason, price), map[string]any{
		"signal":       sig.ID,
		"symbol":       sig.Symbol,
		"strategy":     sig.StrategyKey,
		"exit_reason":  reason,
		"exit_price":   price,
		"realized_pct": pct,
	})
}

// markToMarket refreshes the unrealized fields of a still-active signal.
func (m *Manager) markToMarket(sig *types.Signal, price float64) {
	pct := pnlPct(sig.Direction, sig.EntryPrice, price)
	sig.CurrentPrice = round2(price)
	sig.UnrealizedPnlPct = pct
	sig.UnrealizedPnlAmt = pnlAmount(pct, m.cfg.CapitalBase, sig.PositionFraction)
	sig.TakeProfitDistPct = distancePct(price, sig.TakeProfitPrice)
	sig.StopLossDistPct = distancePct(price, sig.StopLossPrice)
}

// mergeCandidates activates new candidates keyed by (symbol, strategy).
// Highest confidence first, capped, and an existing active signal for the
// same key always wins over the incoming candidate.
func (m *Manager) mergeCandidates(st *store.State, candidates []types.Signal, now time.Time, trail *audit.Log) []types.Signal {
	if len(candidates) == 0 {
		return nil
	}
	ranked := append([]types.Signal(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })

	held := make(map[string]struct{}, len(st.Active))
	for _, sig := range st.Active {
		held[sig.Key()] = struct{}{}
	}

	var opened []types.Signal
	for _, cand := range ranked {
		cand.Confidence = strategy.Clamp(cand.Confidence)
		if err := cand.Validate(); err != nil {
			logger.Warnf("lifecycle: dropping invalid candidate %s/%s: %v", cand.Symbol, cand.StrategyKey, err)
			trail.Record(types.AuditCandidateDropped, fmt.Sprintf("%s %s invalid: %v", cand.Symbol, cand.StrategyKey, err), nil)
			continue
		}
		if len(opened) >= m.cfg.MaxNewSignals {
			trail.Record(types.AuditCandidateDropped, fmt.Sprintf("%s %s dropped: new-signal cap %d reached", cand.Symbol, cand.StrategyKey, m.cfg.MaxNewSignals), nil)
			continue
		}
		key := cand.Key()
		if _, exists := held[key]; exists {
			trail.Record(types.AuditCandidateDropped, fmt.Sprintf("%s %s dropped: active signal already holds this key", cand.Symbol, cand.StrategyKey), nil)
			continue
		}
		cand.Status = types.StatusActive
		cand.ActivatedAt = now
		held[key] = struct{}{}
		st.Active = append(st.Active, cand)
		opened = append(opened, cand)
		logger.Infof("lifecycle: activated %s %s %s entry=%.4f conf=%.2f", cand.Direction, cand.Symbol, cand.StrategyKey, cand.EntryPrice, cand.Confidence)
		trail.Record(types.AuditSignalActivated, fmt.Sprintf("%s %s %s activated at %v", cand.Direction, cand.Symbol, cand.StrategyKey, cand.EntryPrice), map[string]any{
			"signal":     cand.ID,
			"symbol":     cand.Symbol,
			"strategy":   cand.StrategyKey,
			"confidence": cand.Confidence,
		})
	}
	return opened
}

func (m *Manager) computeStats(st *store.State) types.PerformanceStats {
	stats := types.PerformanceStats{
		TotalClosed: len(st.Closed),
		ActiveCount: len(st.Active),
	}
	realized := decimal.Zero
	for _, sig := range st.Closed {
		if sig.Status == types.StatusClosedTP {
			stats.Wins++
		} else {
			stats.Losses++
		}
		realized = realized.Add(decimal.NewFromFloat(sig.RealizedPnlAmount))
	}
	if stats.TotalClosed > 0 {
		stats.WinRate = round2(float64(stats.Wins) / float64(stats.TotalClosed) * 100)
	}
	unrealized := decimal.Zero
	for _, sig := range st.Active {
		unrealized = unrealized.Add(decimal.NewFromFloat(sig.UnrealizedPnlAmt))
	}
	stats.RealizedPnlAmount, _ = realized.Round(2).Float64()
	stats.UnrealizedPnlAmount, _ = unrealized.Round(2).Float64()
	return stats
}

func recentClosed(closed []types.Signal, n int) []types.Signal {
	if len(closed) <= n {
		return append([]types.Signal(nil), closed...)
	}
	return append([]types.Signal(nil), closed[len(closed)-n:]...)
}
