// Package types holds the wire-level data model shared across the engine.
// JSON field names here are an interchange contract consumed by the
// dashboard and notifier; renaming them breaks downstream readers.
package types

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type SignalStatus string

const (
	StatusActive   SignalStatus = "ACTIVE"
	StatusClosedTP SignalStatus = "CLOSED_TP"
	StatusClosedSL SignalStatus = "CLOSED_SL"
)

// ExitReason values stamped on closure.
const (
	ExitReasonTakeProfit = "take_profit"
	ExitReasonStopLoss   = "stop_loss"
)

// MaxConfidence is the ceiling every signal's confidence is clamped to.
// No signal may claim higher reliability regardless of evaluator bonuses.
const MaxConfidence = 0.80

// ConfidenceBase is the shared starting score before evaluator bonuses.
const ConfidenceBase = 0.55

// Signal is a proposed trade idea and, once activated, the unit the
// lifecycle state machine tracks from ACTIVE to a terminal CLOSED_* state.
type Signal struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	StrategyKey string    `json:"strategy"`
	Direction   Direction `json:"direction"`
	Confidence  float64   `json:"confidence"`

	EntryPrice       float64 `json:"entry_price"`
	TakeProfitPrice  float64 `json:"tp_price"`
	StopLossPrice    float64 `json:"sl_price"`
	PositionFraction float64 `json:"position_pct"`

	Reason     string       `json:"reason,omitempty"`
	DataSource string       `json:"data_source,omitempty"`
	Status     SignalStatus `json:"status"`
	Warning    string       `json:"warning,omitempty"`

	ActivatedAt time.Time `json:"activated_at"`

	// Closure fields, zero until the signal leaves ACTIVE.
	ExitPrice          float64    `json:"exit_price,omitempty"`
	ExitReason         string     `json:"exit_reason,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	RealizedPnlPct     float64    `json:"realized_pnl_pct,omitempty"`
	RealizedPnlAmount  float64    `json:"realized_pnl_amount,omitempty"`

	// Mark-to-market fields refreshed every run while ACTIVE.
	CurrentPrice      float64 `json:"current_price,omitempty"`
	UnrealizedPnlPct  float64 `json:"unrealized_pnl_pct,omitempty"`
	UnrealizedPnlAmt  float64 `json:"unrealized_pnl_amount,omitempty"`
	TakeProfitDistPct float64 `json:"tp_distance_pct,omitempty"`
	StopLossDistPct   float64 `json:"sl_distance_pct,omitempty"`
}

// Key identifies the active-set slot a signal occupies: at most one
// concurrently ACTIVE signal per (symbol, strategy) pair.
func (s Signal) Key() string {
	return s.Symbol + "|" + s.StrategyKey
}

// Closed reports whether the signal reached a terminal state.
func (s Signal) Closed() bool {
	return s.Status == StatusClosedTP || s.Status == StatusClosedSL
}

// Validate checks the structural invariants a candidate must satisfy
// before the lifecycle manager will activate it.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("signal missing symbol")
	}
	if s.StrategyKey == "" {
		return fmt.Errorf("signal %s missing strategy key", s.Symbol)
	}
	if s.Direction != DirectionLong && s.Direction != DirectionShort {
		return fmt.Errorf("signal %s has invalid direction %q", s.Symbol, s.Direction)
	}
	if s.EntryPrice <= 0 {
		return fmt.Errorf("signal %s has non-positive entry price %v", s.Symbol, s.EntryPrice)
	}
	if s.PositionFraction <= 0 || s.PositionFraction > 1 {
		return fmt.Errorf("signal %s has position fraction %v outside (0,1]", s.Symbol, s.PositionFraction)
	}
	switch s.Direction {
	case DirectionLong:
		if !(s.StopLossPrice < s.EntryPrice && s.EntryPrice < s.TakeProfitPrice) {
			return fmt.Errorf("signal %s LONG requires sl < entry < tp (got sl=%v entry=%v tp=%v)",
				s.Symbol, s.StopLossPrice, s.EntryPrice, s.TakeProfitPrice)
		}
	case DirectionShort:
		if !(s.TakeProfitPrice < s.EntryPrice && s.EntryPrice < s.StopLossPrice) {
			return fmt.Errorf("signal %s SHORT requires tp < entry < sl (got tp=%v entry=%v sl=%v)",
				s.Symbol, s.TakeProfitPrice, s.EntryPrice, s.StopLossPrice)
		}
	}
	return nil
}
