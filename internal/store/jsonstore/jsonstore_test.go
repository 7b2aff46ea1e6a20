package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claws/internal/store"
	"claws/internal/types"
)

func testSignal(symbol string) types.Signal {
	return types.Signal{
		ID:               "extreme_fear_" + symbol + "_test",
		Symbol:           symbol,
		StrategyKey:      "extreme_fear",
		Direction:        types.DirectionLong,
		Confidence:       0.62,
		EntryPrice:       64000,
		TakeProfitPrice:  67840,
		StopLossPrice:    60800,
		PositionFraction: 0.035,
		Status:           types.StatusActive,
		ActivatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Active)
	assert.Empty(t, st.Closed)
}

func TestUpdatePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Update(context.Background(), func(st *store.State) error {
		st.Active = append(st.Active, testSignal("BTC"))
		return nil
	})
	require.NoError(t, err)

	// A fresh store instance sees the same state.
	s2, err := New(dir)
	require.NoError(t, err)
	st, err := s2.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, st.Active, 1)
	assert.Equal(t, "BTC", st.Active[0].Symbol)
	assert.Equal(t, types.StatusActive, st.Active[0].Status)
}

func TestUpdateErrorLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Update(context.Background(), func(st *store.State) error {
		st.Active = append(st.Active, testSignal("BTC"))
		return nil
	})
	require.NoError(t, err)

	_, err = s.Update(context.Background(), func(st *store.State) error {
		st.Active = nil
		return os.ErrInvalid
	})
	require.Error(t, err)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.Active, 1)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, activeFile), []byte(`{"not":"an array"}`), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.Error(t, err)
	var perr *store.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	// direction outside the enum
	bad := `[{"id":"x","symbol":"BTC","strategy":"extreme_fear","direction":"SIDEWAYS","status":"ACTIVE","entry_price":1,"tp_price":2,"sl_price":0.5,"position_pct":0.03}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, activeFile), []byte(bad), 0o644))

	s, err := New(dir)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.Error(t, err)
}

func TestHeldLockBlocksUpdate(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFile), []byte("held\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = s.Update(ctx, func(st *store.State) error { return nil })
	require.Error(t, err)
}

func TestStaleLockIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	lock := filepath.Join(dir, lockFile)
	require.NoError(t, os.WriteFile(lock, []byte("crashed\n"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lock, old, old))

	_, err = s.Update(context.Background(), func(st *store.State) error {
		st.Active = append(st.Active, testSignal("ETH"))
		return nil
	})
	require.NoError(t, err)

	_, statErr := os.Stat(lock)
	assert.True(t, os.IsNotExist(statErr), "lock must be released after update")
}

func TestWritesAreAtomic(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	_, err = s.Update(context.Background(), func(st *store.State) error {
		st.Active = append(st.Active, testSignal("BTC"))
		return nil
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files must not survive a commit")
	}
}
