package strategy

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"claws/internal/types"
)

// newLongCandidate assembles a LONG candidate with TP/SL derived from the
// entry via multipliers. Prices are rounded to cents the way the
// downstream dashboard displays them.
func newLongCandidate(key, symbol string, q types.Quote, source string,
	tpMult, slMult, fraction, confidence float64, reason string, now time.Time) types.Signal {
	entry := decimal.NewFromFloat(q.Price).Round(2)
	return types.Signal{
		ID:               fmt.Sprintf("%s_%s_%s", key, symbol, now.UTC().Format("20060102_1504")),
		Symbol:           symbol,
		StrategyKey:      key,
		Direction:        types.DirectionLong,
		Confidence:       Clamp(confidence),
		EntryPrice:       entry.InexactFloat64(),
		TakeProfitPrice:  entry.Mul(decimal.NewFromFloat(tpMult)).Round(2).InexactFloat64(),
		StopLossPrice:    entry.Mul(decimal.NewFromFloat(slMult)).Round(2).InexactFloat64(),
		PositionFraction: fraction,
		Reason:           reason,
		DataSource:       source,
	}
}

// sortedSymbols returns the snapshot's symbols in a stable order so
// candidate sequence is deterministic across runs.
func sortedSymbols(snapshot types.MarketSnapshot) []string {
	out := make([]string, 0, len(snapshot.Quotes))
	for sym := range snapshot.Quotes {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
