package strategy

import (
	"fmt"
	"math"
	"time"

	"claws/internal/audit"
	"claws/internal/types"
)

const KeyCrashReversal = "crash_reversal"

// CrashReversalConfig tunes the dead-cat-bounce entry. The crash-depth
// bonus is capped at 0.20.
type CrashReversalConfig struct {
	// CrashThresholdPct triggers below this signed 24h change, e.g. -10.
	CrashThresholdPct float64
	TPMultiplier      float64
	SLMultiplier      float64
	PositionFraction  float64
}

func (c CrashReversalConfig) withDefaults() CrashReversalConfig {
	if c.CrashThresholdPct >= 0 {
		c.CrashThresholdPct = -10
	}
	if c.TPMultiplier <= 0 {
		c.TPMultiplier = 1.05
	}
	if c.SLMultiplier <= 0 {
		c.SLMultiplier = 0.96
	}
	if c.PositionFraction <= 0 {
		c.PositionFraction = 0.03
	}
	return c
}

// CrashReversal captures bounces after severe single-day crashes, where
// forced liquidations routinely overshoot.
type CrashReversal struct {
	cfg CrashReversalConfig
}

func NewCrashReversal(cfg CrashReversalConfig) *CrashReversal {
	return &CrashReversal{cfg: cfg.withDefaults()}
}

func (e *CrashReversal) Key() string { return KeyCrashReversal }

func (e *CrashReversal) Info() Info {
	return Info{
		Key:            KeyCrashReversal,
		FullName:       "Crash Reversal Bounce",
		Description:    "Buys assets that crashed hard inside 24h, expecting the liquidation-driven overshoot to retrace.",
		PositionSizing: fmt.Sprintf("%.1f%% of capital per trade", e.cfg.PositionFraction*100),
	}
}

func (e *CrashReversal) Evaluate(snapshot types.MarketSnapshot, _ Candles, now time.Time, trail *audit.Log) []types.Signal {
	var out []types.Signal
	for _, sym := range sortedSymbols(snapshot) {
		q := snapshot.Quotes[sym]
		if q.Change24hPct >= e.cfg.CrashThresholdPct {
			trail.Record(types.AuditStrategySkip,
				fmt.Sprintf("%s: %s change %+.1f%% above crash threshold %.1f%%",
					KeyCrashReversal, sym, q.Change24hPct, e.cfg.CrashThresholdPct), nil)
			continue
		}
		conf := Confidence(bonus(math.Abs(q.Change24hPct)*0.01, 0.20))
		reason := fmt.Sprintf("%s crashed %.1f%% in 24h - mean reversion bounce expected", sym, q.Change24hPct)
		out = append(out, newLongCandidate(KeyCrashReversal, sym, q, snapshot.PriceSource,
			e.cfg.TPMultiplier, e.cfg.SLMultiplier, e.cfg.PositionFraction, conf, reason, now))
		trail.Record(types.AuditStrategyTrigger,
			fmt.Sprintf("%s: %s (confidence %.2f)", KeyCrashReversal, reason, conf), nil)
	}
	return out
}
