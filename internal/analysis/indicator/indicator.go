// Package indicator computes technical indicators over an ordered series
// of closing prices (oldest first). All functions are pure: identical
// input yields identical output, with no hidden state.
package indicator

// RSI computes the relative strength index with Wilder smoothing: the
// first period deltas seed the average gain/loss, subsequent deltas update
// both exponentially with weight 1/period. Returns ok=false when the
// series is shorter than period+1 values. When the average loss is exactly
// zero the result is 100.
func RSI(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// SMA is the arithmetic mean of the last period values. ok=false when the
// series holds fewer than period values.
func SMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	var sum float64
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA seeds with the SMA of the first period values and then applies the
// recurrence ema = (value-ema)*k + ema with k = 2/(period+1). ok=false
// when the series holds fewer than period values.
func EMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	var seed float64
	for _, v := range closes[:period] {
		seed += v
	}
	ema := seed / float64(period)
	k := 2 / float64(period+1)
	for _, v := range closes[period:] {
		ema = (v-ema)*k + ema
	}
	return ema, true
}
