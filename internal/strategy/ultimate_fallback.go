package strategy

import (
	"fmt"
	"strings"
	"time"

	"claws/internal/types"
)

const KeyUltimateFallback = "ultimate_fallback"

const fallbackWarning = "ULTIMATE FALLBACK - VERIFY PRICE BEFORE TRADING"

// UltimateFallbackInfo documents the emergency path in the strategy list.
var UltimateFallbackInfo = Info{
	Key:         KeyUltimateFallback,
	FullName:    "Ultimate Fallback - Manual Override",
	Description: "Emergency mode: every price provider failed. Picks use hardcoded estimates from last known market conditions and require manual verification.",
}

// UltimateFallback produces the emergency picks used when the entire
// provider chain is exhausted. Prices are static estimates, so every pick
// carries an explicit warning and an estimated data source tag.
func UltimateFallback(sentiment int, failedProviders []string, now time.Time) []types.Signal {
	reason := func(symbol string) string {
		return fmt.Sprintf("ALL price providers failed (%s). Fear & Greed = %d. Using estimated %s price. MANUAL VERIFICATION REQUIRED.",
			strings.Join(failedProviders, ", "), sentiment, symbol)
	}
	stamp := now.UTC().Format("20060102_1504")
	return []types.Signal{
		{
			ID:               fmt.Sprintf("%s_BTC_%s", KeyUltimateFallback, stamp),
			Symbol:           "BTC",
			StrategyKey:      KeyUltimateFallback,
			Direction:        types.DirectionLong,
			Confidence:       0.65,
			EntryPrice:       64000,
			TakeProfitPrice:  70000,
			StopLossPrice:    60000,
			PositionFraction: 0.02,
			Reason:           reason("BTC"),
			DataSource:       "estimated",
			Warning:          fallbackWarning,
		},
		{
			ID:               fmt.Sprintf("%s_ETH_%s", KeyUltimateFallback, stamp),
			Symbol:           "ETH",
			StrategyKey:      KeyUltimateFallback,
			Direction:        types.DirectionLong,
			Confidence:       0.62,
			EntryPrice:       1800,
			TakeProfitPrice:  2000,
			StopLossPrice:    1650,
			PositionFraction: 0.015,
			Reason:           reason("ETH"),
			DataSource:       "estimated",
			Warning:          fallbackWarning,
		},
	}
}
