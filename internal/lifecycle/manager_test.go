package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claws/internal/audit"
	"claws/internal/store"
	"claws/internal/types"
)

type memStore struct {
	state store.State
}

func (m *memStore) Load(ctx context.Context) (store.State, error) {
	return m.state, nil
}

func (m *memStore) Update(ctx context.Context, fn func(*store.State) error) (store.State, error) {
	st := m.state
	st.Active = append([]types.Signal(nil), m.state.Active...)
	st.Closed = append([]types.Signal(nil), m.state.Closed...)
	if err := fn(&st); err != nil {
		return store.State{}, err
	}
	m.state = st
	return st, nil
}

func (m *memStore) Close() error { return nil }

func newTestManager(st store.Store) *Manager {
	m := NewManager(Config{CapitalBase: 10000}, st)
	m.SetClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return m
}

func activeLong(symbol, strat string, entry, tp, sl float64) types.Signal {
	return types.Signal{
		ID:               fmt.Sprintf("%s_%s_test", strat, symbol),
		Symbol:           symbol,
		StrategyKey:      strat,
		Direction:        types.DirectionLong,
		Confidence:       0.60,
		EntryPrice:       entry,
		TakeProfitPrice:  tp,
		StopLossPrice:    sl,
		PositionFraction: 0.035,
		Status:           types.StatusActive,
		ActivatedAt:      time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC),
	}
}

func activeShort(symbol, strat string, entry, tp, sl float64) types.Signal {
	s := activeLong(symbol, strat, entry, tp, sl)
	s.Direction = types.DirectionShort
	return s
}

func snapshotWith(prices map[string]float64) types.MarketSnapshot {
	quotes := make(map[string]types.Quote, len(prices))
	for sym, p := range prices {
		quotes[sym] = types.Quote{Price: p}
	}
	return types.MarketSnapshot{Quotes: quotes}
}

func TestRunClosesLongAtTakeProfit(t *testing.T) {
	st := &memStore{state: store.State{Active: []types.Signal{activeLong("BTC", "extreme_fear", 100, 106, 95)}}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 106}), nil, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.ClosedNow, 1)
	closed := out.ClosedNow[0]
	assert.Equal(t, types.StatusClosedTP, closed.Status)
	assert.Equal(t, types.ExitReasonTakeProfit, closed.ExitReason)
	assert.Equal(t, 106.0, closed.ExitPrice)
	assert.Equal(t, 6.0, closed.RealizedPnlPct)
	// 6% of 10000 * 0.035 position fraction
	assert.Equal(t, 21.0, closed.RealizedPnlAmount)
	require.NotNil(t, closed.ClosedAt)
	assert.Empty(t, out.Active)
}

func TestRunClosesLongAtStopLoss(t *testing.T) {
	st := &memStore{state: store.State{Active: []types.Signal{activeLong("BTC", "extreme_fear", 100, 106, 95)}}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 95}), nil, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.ClosedNow, 1)
	assert.Equal(t, types.StatusClosedSL, out.ClosedNow[0].Status)
	assert.Equal(t, -5.0, out.ClosedNow[0].RealizedPnlPct)
}

func TestRunMarksOpenLongToMarket(t *testing.T) {
	st := &memStore{state: store.State{Active: []types.Signal{activeLong("BTC", "extreme_fear", 100, 106, 95)}}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 100.5}), nil, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.Active, 1)
	sig := out.Active[0]
	assert.Equal(t, types.StatusActive, sig.Status)
	assert.Equal(t, 0.5, sig.UnrealizedPnlPct)
	assert.Equal(t, 100.5, sig.CurrentPrice)
	assert.InDelta(t, 5.47, sig.TakeProfitDistPct, 0.001)
	assert.InDelta(t, 5.47, sig.StopLossDistPct, 0.001)
	assert.Empty(t, out.ClosedNow)
}

func TestRunClosesShortSides(t *testing.T) {
	cases := []struct {
		name       string
		price      float64
		wantStatus types.SignalStatus
		wantPct    float64
	}{
		{"take profit", 97, types.StatusClosedTP, 3.0},
		{"stop loss", 102, types.StatusClosedSL, -2.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := &memStore{state: store.State{Active: []types.Signal{activeShort("ETH", "btc_dominance", 100, 97, 102)}}}
			m := newTestManager(st)

			out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"ETH": tc.price}), nil, audit.NewLog())
			require.NoError(t, err)

			require.Len(t, out.ClosedNow, 1)
			assert.Equal(t, tc.wantStatus, out.ClosedNow[0].Status)
			assert.Equal(t, tc.wantPct, out.ClosedNow[0].RealizedPnlPct)
		})
	}
}

func TestRunTakeProfitWinsTies(t *testing.T) {
	// Degenerate thresholds where one tick satisfies both exits.
	sig := activeLong("BTC", "extreme_fear", 100, 100, 100)
	st := &memStore{state: store.State{Active: []types.Signal{sig}}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 100}), nil, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.ClosedNow, 1)
	assert.Equal(t, types.StatusClosedTP, out.ClosedNow[0].Status)
}

func TestRunLeavesMissingSymbolUntouched(t *testing.T) {
	orig := activeLong("SOL", "crash_reversal", 150, 157.5, 144)
	st := &memStore{state: store.State{Active: []types.Signal{orig}}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 64000}), nil, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.Active, 1)
	assert.Equal(t, orig, out.Active[0])
}

func TestRunSkipsUnusablePrice(t *testing.T) {
	st := &memStore{state: store.State{Active: []types.Signal{activeLong("BTC", "extreme_fear", 100, 106, 95)}}}
	m := newTestManager(st)
	trail := audit.NewLog()

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": math.NaN()}), nil, trail)
	require.NoError(t, err)

	require.Len(t, out.Active, 1)
	assert.Equal(t, types.StatusActive, out.Active[0].Status)

	var sawError bool
	for _, e := range trail.Entries() {
		if e.Kind == types.AuditEvaluationError {
			sawError = true
		}
	}
	assert.True(t, sawError, "expected an evaluation_error audit entry")
}

func TestRunActivatesCandidates(t *testing.T) {
	st := &memStore{}
	m := newTestManager(st)
	trail := audit.NewLog()

	cand := activeLong("BTC", "extreme_fear", 64000, 67840, 60800)
	cand.Status = ""
	cand.ActivatedAt = time.Time{}

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"BTC": 64000}), []types.Signal{cand}, trail)
	require.NoError(t, err)

	require.Len(t, out.NewlyOpen, 1)
	opened := out.NewlyOpen[0]
	assert.Equal(t, types.StatusActive, opened.Status)
	assert.Equal(t, m.now().UTC(), opened.ActivatedAt)
	require.Len(t, out.Active, 1)
}

func TestRunDropsDuplicateKeyCandidates(t *testing.T) {
	existing := activeLong("BTC", "extreme_fear", 60000, 63600, 57000)
	st := &memStore{state: store.State{Active: []types.Signal{existing}}}
	m := newTestManager(st)
	trail := audit.NewLog()

	dup := activeLong("BTC", "extreme_fear", 64000, 67840, 60800)
	other := activeLong("ETH", "extreme_fear", 3200, 3392, 3040)

	out, err := m.Run(context.Background(), snapshotWith(nil), []types.Signal{dup, other}, trail)
	require.NoError(t, err)

	require.Len(t, out.NewlyOpen, 1)
	assert.Equal(t, "ETH", out.NewlyOpen[0].Symbol)
	assert.Len(t, out.Active, 2)
	assert.Equal(t, 60000.0, out.Active[0].EntryPrice, "existing signal must not be overwritten")

	var dropped int
	for _, e := range trail.Entries() {
		if e.Kind == types.AuditCandidateDropped {
			dropped++
		}
	}
	assert.Equal(t, 1, dropped)
}

func TestRunCapsNewSignalsByConfidence(t *testing.T) {
	st := &memStore{}
	m := NewManager(Config{CapitalBase: 10000, MaxNewSignals: 2}, st)

	var candidates []types.Signal
	for i, sym := range []string{"BTC", "ETH", "SOL", "XRP"} {
		c := activeLong(sym, "crash_reversal", 100, 105, 96)
		c.Confidence = 0.56 + float64(i)*0.02
		candidates = append(candidates, c)
	}

	out, err := m.Run(context.Background(), snapshotWith(nil), candidates, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.NewlyOpen, 2)
	assert.Equal(t, "XRP", out.NewlyOpen[0].Symbol)
	assert.Equal(t, "SOL", out.NewlyOpen[1].Symbol)
}

func TestRunClampsCandidateConfidence(t *testing.T) {
	st := &memStore{}
	m := newTestManager(st)

	c := activeLong("BTC", "extreme_fear", 100, 106, 95)
	c.Confidence = 0.97

	out, err := m.Run(context.Background(), snapshotWith(nil), []types.Signal{c}, audit.NewLog())
	require.NoError(t, err)

	require.Len(t, out.NewlyOpen, 1)
	assert.Equal(t, types.MaxConfidence, out.NewlyOpen[0].Confidence)
}

func TestRunRejectsInvalidCandidates(t *testing.T) {
	st := &memStore{}
	m := newTestManager(st)
	trail := audit.NewLog()

	bad := activeLong("BTC", "extreme_fear", 100, 95, 106) // tp below entry
	out, err := m.Run(context.Background(), snapshotWith(nil), []types.Signal{bad}, trail)
	require.NoError(t, err)

	assert.Empty(t, out.NewlyOpen)
	assert.Empty(t, out.Active)
}

func TestRunIsIdempotentForUnchangedSnapshot(t *testing.T) {
	st := &memStore{state: store.State{Active: []types.Signal{activeLong("BTC", "extreme_fear", 100, 106, 95)}}}
	m := newTestManager(st)
	snap := snapshotWith(map[string]float64{"BTC": 100.5})

	_, err := m.Run(context.Background(), snap, nil, audit.NewLog())
	require.NoError(t, err)
	first, err := json.Marshal(st.state)
	require.NoError(t, err)

	_, err = m.Run(context.Background(), snap, nil, audit.NewLog())
	require.NoError(t, err)
	second, err := json.Marshal(st.state)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestRunTrimsClosedHistory(t *testing.T) {
	st := &memStore{}
	for i := 0; i < 7; i++ {
		s := activeLong(fmt.Sprintf("C%d", i), "crash_reversal", 100, 105, 96)
		s.Status = types.StatusClosedTP
		st.state.Closed = append(st.state.Closed, s)
	}
	m := NewManager(Config{CapitalBase: 10000, ClosedRetention: 5}, st)

	out, err := m.Run(context.Background(), snapshotWith(nil), nil, audit.NewLog())
	require.NoError(t, err)

	assert.Equal(t, 5, out.Stats.TotalClosed)
	assert.Equal(t, "C2", st.state.Closed[0].Symbol, "oldest closures drop first")
}

func TestRunComputesStats(t *testing.T) {
	win := activeLong("BTC", "extreme_fear", 100, 106, 95)
	win.Status = types.StatusClosedTP
	win.RealizedPnlAmount = 21.0
	loss := activeLong("ETH", "extreme_fear", 100, 106, 95)
	loss.Status = types.StatusClosedSL
	loss.RealizedPnlAmount = -17.5

	open := activeLong("SOL", "crash_reversal", 150, 157.5, 144)
	st := &memStore{state: store.State{
		Active: []types.Signal{open},
		Closed: []types.Signal{win, loss},
	}}
	m := newTestManager(st)

	out, err := m.Run(context.Background(), snapshotWith(map[string]float64{"SOL": 153}), nil, audit.NewLog())
	require.NoError(t, err)

	assert.Equal(t, 2, out.Stats.TotalClosed)
	assert.Equal(t, 1, out.Stats.Wins)
	assert.Equal(t, 1, out.Stats.Losses)
	assert.Equal(t, 50.0, out.Stats.WinRate)
	assert.Equal(t, 3.5, out.Stats.RealizedPnlAmount)
	assert.Equal(t, 1, out.Stats.ActiveCount)
	// SOL moved +2%, amount = 2% of 10000 * 0.035
	assert.Equal(t, 7.0, out.Stats.UnrealizedPnlAmount)
}
