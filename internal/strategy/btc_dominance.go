package strategy

import (
	"fmt"
	"time"

	"claws/internal/audit"
	"claws/internal/types"
)

const KeyBTCDominance = "btc_dominance"

// BTCDominanceConfig tunes the dominance-rotation entry. The dominance
// bonus is capped at 0.10.
type BTCDominanceConfig struct {
	DominanceMinPct  float64
	TargetSymbol     string
	TPMultiplier     float64
	SLMultiplier     float64
	PositionFraction float64
}

func (c BTCDominanceConfig) withDefaults() BTCDominanceConfig {
	if c.DominanceMinPct <= 0 {
		c.DominanceMinPct = 55
	}
	if c.TargetSymbol == "" {
		c.TargetSymbol = "ETH"
	}
	if c.TPMultiplier <= 0 {
		c.TPMultiplier = 1.05
	}
	if c.SLMultiplier <= 0 {
		c.SLMultiplier = 0.97
	}
	if c.PositionFraction <= 0 {
		c.PositionFraction = 0.03
	}
	return c
}

// BTCDominance goes long the lagging major when BTC market-cap dominance
// spikes; capital historically rotates outward once dominance tops.
type BTCDominance struct {
	cfg BTCDominanceConfig
}

func NewBTCDominance(cfg BTCDominanceConfig) *BTCDominance {
	return &BTCDominance{cfg: cfg.withDefaults()}
}

func (e *BTCDominance) Key() string { return KeyBTCDominance }

func (e *BTCDominance) Info() Info {
	return Info{
		Key:            KeyBTCDominance,
		FullName:       "BTC Dominance Rotation",
		Description:    "Longs the lagging major while BTC dominance is stretched, anticipating rotation into alts.",
		PositionSizing: fmt.Sprintf("%.1f%% of capital per trade", e.cfg.PositionFraction*100),
	}
}

func (e *BTCDominance) Evaluate(snapshot types.MarketSnapshot, _ Candles, now time.Time, trail *audit.Log) []types.Signal {
	if snapshot.BTCDominancePct <= 0 {
		trail.Record(types.AuditStrategySkip,
			fmt.Sprintf("%s: dominance unavailable this run", KeyBTCDominance), nil)
		return nil
	}
	if snapshot.BTCDominancePct <= e.cfg.DominanceMinPct {
		trail.Record(types.AuditStrategySkip,
			fmt.Sprintf("%s: dominance %.1f%% <= threshold %.1f%%",
				KeyBTCDominance, snapshot.BTCDominancePct, e.cfg.DominanceMinPct), nil)
		return nil
	}
	q, ok := snapshot.Quote(e.cfg.TargetSymbol)
	if !ok {
		trail.Record(types.AuditStrategySkip,
			fmt.Sprintf("%s: no price for target %s", KeyBTCDominance, e.cfg.TargetSymbol), nil)
		return nil
	}
	conf := Confidence(bonus((snapshot.BTCDominancePct-e.cfg.DominanceMinPct)*0.01, 0.10))
	reason := fmt.Sprintf("BTC dominance high (%.1f%%), %s lagging", snapshot.BTCDominancePct, e.cfg.TargetSymbol)
	trail.Record(types.AuditStrategyTrigger,
		fmt.Sprintf("%s: %s (confidence %.2f)", KeyBTCDominance, reason, conf), nil)
	return []types.Signal{newLongCandidate(KeyBTCDominance, e.cfg.TargetSymbol, q, snapshot.PriceSource,
		e.cfg.TPMultiplier, e.cfg.SLMultiplier, e.cfg.PositionFraction, conf, reason, now)}
}
