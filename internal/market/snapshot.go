package market

import (
	"time"

	"claws/internal/types"
)

// Assemble freezes one run's resolved market view. The snapshot is built
// exactly once per run and shared by every downstream consumer.
func Assemble(res Resolution, sent Sentiment, dominancePct float64, now time.Time) types.MarketSnapshot {
	return types.MarketSnapshot{
		Quotes:          res.Quotes,
		SentimentValue:  sent.Value,
		SentimentLabel:  sent.Label,
		SentimentSource: sent.Source,
		PriceSource:     res.Source,
		BTCDominancePct: dominancePct,
		ResolvedAt:      now,
	}
}
