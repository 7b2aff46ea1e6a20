package lifecycle

import (
	"github.com/shopspring/decimal"

	"claws/internal/types"
)

// pnlPct returns the direction-signed percentage move from entry to price,
// rounded to two decimals so repeated evaluation of an unchanged snapshot
// keeps the persisted value byte-stable.
func pnlPct(direction types.Direction, entry, price float64) float64 {
	if entry <= 0 {
		return 0
	}
	e := decimal.NewFromFloat(entry)
	p := decimal.NewFromFloat(price)
	pct := p.Sub(e).Div(e).Mul(decimal.NewFromInt(100))
	if direction == types.DirectionShort {
		pct = pct.Neg()
	}
	f, _ := pct.Round(2).Float64()
	return f
}

// pnlAmount converts a percentage move into currency using the capital
// base and the signal's position fraction.
func pnlAmount(pct, capitalBase, positionPct float64) float64 {
	amount := decimal.NewFromFloat(pct).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromFloat(capitalBase)).
		Mul(decimal.NewFromFloat(positionPct))
	f, _ := amount.Round(2).Float64()
	return f
}

// distancePct is the unsigned percentage gap between the current price and
// an exit threshold.
func distancePct(price, threshold float64) float64 {
	if price <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(price)
	d := decimal.NewFromFloat(threshold).Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Abs()
	f, _ := d.Round(2).Float64()
	return f
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
