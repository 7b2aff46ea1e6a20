package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claws/internal/audit"
	"claws/internal/types"
)

var testNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

func fearSnapshot(sentiment int) types.MarketSnapshot {
	return types.MarketSnapshot{
		Quotes: map[string]types.Quote{
			"BTC": {Price: 64000, Change24hPct: -8.2},
			"ETH": {Price: 1800, Change24hPct: -6.0},
		},
		SentimentValue:  sentiment,
		SentimentLabel:  types.SentimentLabelFor(sentiment),
		SentimentSource: "alternative.me",
		PriceSource:     "coingecko",
		ResolvedAt:      testNow,
	}
}

func TestConfidenceFormula(t *testing.T) {
	assert.Equal(t, 0.55, Confidence(), "base with no bonuses")
	assert.InDelta(t, 0.70, Confidence(0.15), 1e-9)
	assert.Equal(t, types.MaxConfidence, Confidence(0.15, 0.10), "full bonuses reach the ceiling exactly")
	assert.Equal(t, types.MaxConfidence, Confidence(0.5, 0.5), "clamp holds for adversarial bonuses")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.3))
	assert.Equal(t, 0.42, Clamp(0.42))
	assert.Equal(t, types.MaxConfidence, Clamp(0.99))
}

func TestExtremeFearTriggers(t *testing.T) {
	ev := NewExtremeFear(ExtremeFearConfig{})
	trail := audit.NewLog()

	picks := ev.Evaluate(fearSnapshot(15), nil, testNow, trail)
	require.Len(t, picks, 2)

	// Symbols come back in sorted order.
	assert.Equal(t, "BTC", picks[0].Symbol)
	assert.Equal(t, "ETH", picks[1].Symbol)

	btc := picks[0]
	assert.Equal(t, KeyExtremeFear, btc.StrategyKey)
	assert.Equal(t, types.DirectionLong, btc.Direction)
	assert.Equal(t, 64000.0, btc.EntryPrice)
	assert.InDelta(t, 67840.0, btc.TakeProfitPrice, 0.01)
	assert.InDelta(t, 60800.0, btc.StopLossPrice, 0.01)
	assert.Equal(t, 0.035, btc.PositionFraction)
	assert.LessOrEqual(t, btc.Confidence, types.MaxConfidence)
	assert.GreaterOrEqual(t, btc.Confidence, types.ConfidenceBase)
	require.NoError(t, btc.Validate())
}

func TestExtremeFearSkipsOnCalmSentiment(t *testing.T) {
	ev := NewExtremeFear(ExtremeFearConfig{})
	trail := audit.NewLog()

	picks := ev.Evaluate(fearSnapshot(68), nil, testNow, trail)
	assert.Empty(t, picks)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, types.AuditStrategySkip, entries[0].Kind)
	assert.Contains(t, entries[0].Detail, "sentiment 68 > threshold 25")
}

func TestCrashReversalThreshold(t *testing.T) {
	ev := NewCrashReversal(CrashReversalConfig{})
	snap := fearSnapshot(50)
	snap.Quotes["BTC"] = types.Quote{Price: 64000, Change24hPct: -12.5}

	picks := ev.Evaluate(snap, nil, testNow, audit.NewLog())
	require.Len(t, picks, 1, "only the crashed symbol qualifies")
	assert.Equal(t, "BTC", picks[0].Symbol)
	assert.Contains(t, picks[0].Reason, "crashed -12.5%")
	require.NoError(t, picks[0].Validate())
}

func TestBTCDominance(t *testing.T) {
	ev := NewBTCDominance(BTCDominanceConfig{})

	t.Run("triggers above threshold", func(t *testing.T) {
		snap := fearSnapshot(50)
		snap.BTCDominancePct = 58.3
		picks := ev.Evaluate(snap, nil, testNow, audit.NewLog())
		require.Len(t, picks, 1)
		assert.Equal(t, "ETH", picks[0].Symbol)
	})

	t.Run("skips when dominance missing", func(t *testing.T) {
		picks := ev.Evaluate(fearSnapshot(50), nil, testNow, audit.NewLog())
		assert.Empty(t, picks)
	})

	t.Run("skips below threshold", func(t *testing.T) {
		snap := fearSnapshot(50)
		snap.BTCDominancePct = 48
		picks := ev.Evaluate(snap, nil, testNow, audit.NewLog())
		assert.Empty(t, picks)
	})
}

func TestRSIReversal(t *testing.T) {
	ev := NewRSIReversal(RSIReversalConfig{})
	snap := types.MarketSnapshot{
		Quotes:      map[string]types.Quote{"BTC": {Price: 60, Change24hPct: -2}},
		PriceSource: "coingecko",
	}

	t.Run("triggers on oversold series", func(t *testing.T) {
		closes := make([]float64, 30)
		for i := range closes {
			closes[i] = 100 - float64(i) // strictly falling, RSI near 0
		}
		picks := ev.Evaluate(snap, Candles{"BTC": closes}, testNow, audit.NewLog())
		require.Len(t, picks, 1)
		assert.Contains(t, picks[0].Reason, "oversold")
		require.NoError(t, picks[0].Validate())
	})

	t.Run("skips without history", func(t *testing.T) {
		trail := audit.NewLog()
		picks := ev.Evaluate(snap, Candles{}, testNow, trail)
		assert.Empty(t, picks)
		require.Equal(t, 1, trail.Len())
		assert.Equal(t, types.AuditStrategySkip, trail.Entries()[0].Kind)
	})
}

func TestRegistryInfos(t *testing.T) {
	reg := NewRegistry(
		NewExtremeFear(ExtremeFearConfig{}),
		NewCrashReversal(CrashReversalConfig{}),
	)
	infos := reg.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, KeyExtremeFear, infos[0].Key)
	assert.NotEmpty(t, infos[0].FullName)
}
