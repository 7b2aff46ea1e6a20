package strategy

import (
	"fmt"
	"time"

	"claws/internal/analysis/indicator"
	"claws/internal/audit"
	"claws/internal/types"
)

const KeyRSIReversal = "rsi_reversal"

// RSIReversalConfig tunes the oversold-RSI entry. Bonus caps: RSI depth
// at most 0.15, the below-mean confirmation adds a flat 0.05.
type RSIReversalConfig struct {
	Period           int
	Oversold         float64
	TPMultiplier     float64
	SLMultiplier     float64
	PositionFraction float64
}

func (c RSIReversalConfig) withDefaults() RSIReversalConfig {
	if c.Period <= 0 {
		c.Period = 14
	}
	if c.Oversold <= 0 {
		c.Oversold = 30
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

// RSIReversal longs symbols whose Wilder RSI dropped into oversold
// territory, with extra conviction when price also trades below its
// simple moving average. Needs close history; symbols without enough bars
// are skipped.
type RSIReversal struct {
	cfg RSIReversalConfig
}

func NewRSIReversal(cfg RSIReversalConfig) *RSIReversal {
	return &RSIReversal{cfg: cfg.withDefaults()}
}

func (e *RSIReversal) Key() string { return KeyRSIReversal }

func (e *RSIReversal) Info() Info {
	return Info{
		Key:            KeyRSIReversal,
		FullName:       "RSI Oversold Reversal",
		Description:    "Longs symbols with Wilder RSI at or below the oversold line, favoring those already below their moving average.",
		PositionSizing: fmt.Sprintf("%.1f%% of capital per trade", e.cfg.PositionFraction*100),
	}
}

func (e *RSIReversal) Evaluate(snapshot types.MarketSnapshot, history Candles, now time.Time, trail *audit.Log) []types.Signal {
	var out []types.Signal
	for _, sym := range sortedSymbols(snapshot) {
		closes := history[sym]
		rsi, ok := indicator.RSI(closes, e.cfg.Period)
		if !ok {
			trail.Record(types.AuditStrategySkip,
				fmt.Sprintf("%s: %s has %d closes, need %d", KeyRSIReversal, sym, len(closes), e.cfg.Period+1), nil)
			continue
		}
		if rsi > e.cfg.Oversold {
			trail.Record(types.AuditStrategySkip,
				fmt.Sprintf("%s: %s RSI %.1f > oversold %.1f", KeyRSIReversal, sym, rsi, e.cfg.Oversold), nil)
			continue
		}
		q := snapshot.Quotes[sym]
		depthBonus := bonus((e.cfg.Oversold-rsi)*0.01, 0.15)
		meanBonus := 0.0
		if sma, ok := indicator.SMA(closes, e.cfg.Period); ok && q.Price < sma {
			meanBonus = 0.05
		}
		conf := Confidence(depthBonus, meanBonus)
		reason := fmt.Sprintf("%s RSI(%d) = %.1f oversold - reversal setup", sym, e.cfg.Period, rsi)
		out = append(out, newLongCandidate(KeyRSIReversal, sym, q, snapshot.PriceSource,
			e.cfg.TPMultiplier, e.cfg.SLMultiplier, e.cfg.PositionFraction, conf, reason, now))
		trail.Record(types.AuditStrategyTrigger,
			fmt.Sprintf("%s: %s (confidence %.2f)", KeyRSIReversal, reason, conf), nil)
	}
	return out
}
