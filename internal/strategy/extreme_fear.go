package strategy

import (
	"fmt"
	"math"
	"time"

	"claws/internal/audit"
	"claws/internal/types"
)

const KeyExtremeFear = "extreme_fear"

// ExtremeFearConfig tunes the contrarian fear entry. Bonus caps: the
// 24h-drop bonus contributes at most 0.15, the fear-depth bonus at most
// 0.10, so the sum never exceeds 0.25.
type ExtremeFearConfig struct {
	SentimentMax     int
	TPMultiplier     float64
	SLMultiplier     float64
	PositionFraction float64
}

func (c ExtremeFearConfig) withDefaults() ExtremeFearConfig {
	if c.SentimentMax <= 0 {
		c.SentimentMax = 25
	}
	if c.TPMultiplier <= 0 {
		c.TPMultiplier = 1.06
	}
	if c.SLMultiplier <= 0 {
		c.SLMultiplier = 0.95
	}
	if c.PositionFraction <= 0 {
		c.PositionFraction = 0.035
	}
	return c
}

// ExtremeFear buys broad panic: when the fear & greed index sits at or
// below the threshold, every resolved symbol becomes a LONG candidate
// with confidence scaled by how hard it already fell.
type ExtremeFear struct {
	cfg ExtremeFearConfig
}

func NewExtremeFear(cfg ExtremeFearConfig) *ExtremeFear {
	return &ExtremeFear{cfg: cfg.withDefaults()}
}

func (e *ExtremeFear) Key() string { return KeyExtremeFear }

func (e *ExtremeFear) Info() Info {
	return Info{
		Key:            KeyExtremeFear,
		FullName:       "Extreme Fear Mean Reversion",
		Description:    "Contrarian entries while the fear & greed index signals panic; market-wide capitulation tends to mean-revert.",
		PositionSizing: fmt.Sprintf("%.1f%% of capital per trade", e.cfg.PositionFraction*100),
	}
}

func (e *ExtremeFear) Evaluate(snapshot types.MarketSnapshot, _ Candles, now time.Time, trail *audit.Log) []types.Signal {
	if snapshot.SentimentValue > e.cfg.SentimentMax {
		trail.Record(types.AuditStrategySkip,
			fmt.Sprintf("%s: sentiment %d > threshold %d", KeyExtremeFear, snapshot.SentimentValue, e.cfg.SentimentMax), nil)
		return nil
	}
	var out []types.Signal
	for _, sym := range sortedSymbols(snapshot) {
		q := snapshot.Quotes[sym]
		dropBonus := bonus(math.Abs(q.Change24hPct)*0.01, 0.15)
		fearBonus := bonus(float64(e.cfg.SentimentMax-snapshot.SentimentValue)*0.005, 0.10)
		conf := Confidence(dropBonus, fearBonus)
		reason := fmt.Sprintf("Fear & Greed = %d (%s), %s 24h change %+.1f%% - contrarian buy",
			snapshot.SentimentValue, snapshot.SentimentLabel, sym, q.Change24hPct)
		out = append(out, newLongCandidate(KeyExtremeFear, sym, q, snapshot.PriceSource,
			e.cfg.TPMultiplier, e.cfg.SLMultiplier, e.cfg.PositionFraction, conf, reason, now))
		trail.Record(types.AuditStrategyTrigger,
			fmt.Sprintf("%s: %s (confidence %.2f)", KeyExtremeFear, reason, conf), nil)
	}
	return out
}
