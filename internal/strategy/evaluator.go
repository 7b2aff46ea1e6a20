// Package strategy defines the signal evaluator contract and the built-in
// rule variants. Each variant is a plugin implementing Evaluator; adding a
// strategy means registering a new variant, not cloning the run pipeline.
package strategy

import (
	"time"

	"claws/internal/audit"
	"claws/internal/types"
)

// Candles is optional per-symbol close history (oldest first) for
// evaluators that need indicators. Evaluators must tolerate missing or
// short histories.
type Candles map[string][]float64

// Evaluator turns a resolved market snapshot into zero or more candidate
// signals. Implementations are pure given (snapshot, history, now):
// identical inputs yield identical candidates.
type Evaluator interface {
	Key() string
	Info() Info
	Evaluate(snapshot types.MarketSnapshot, history Candles, now time.Time, trail *audit.Log) []types.Signal
}

// Info is human-facing strategy metadata echoed into reports.
type Info struct {
	Key            string `json:"key"`
	FullName       string `json:"full_name"`
	Description    string `json:"description"`
	PositionSizing string `json:"position_sizing"`
}

// Registry is the fixed, ordered set of evaluators for a run. Order only
// matters for candidate sequence, but candidate sequence decides dedup
// winners, so it is part of the contract.
type Registry struct {
	evaluators []Evaluator
}

func NewRegistry(evaluators ...Evaluator) *Registry {
	return &Registry{evaluators: evaluators}
}

// Evaluators returns the registered variants in evaluation order.
func (r *Registry) Evaluators() []Evaluator {
	if r == nil {
		return nil
	}
	return r.evaluators
}

// Infos lists the metadata of every registered variant.
func (r *Registry) Infos() []Info {
	if r == nil {
		return nil
	}
	out := make([]Info, 0, len(r.evaluators))
	for _, ev := range r.evaluators {
		out = append(out, ev.Info())
	}
	return out
}
