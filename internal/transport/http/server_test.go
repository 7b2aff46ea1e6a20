package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claws/internal/store"
	"claws/internal/strategy"
	"claws/internal/types"
)

type stubStore struct {
	state store.State
	err   error
}

func (s *stubStore) Load(ctx context.Context) (store.State, error) { return s.state, s.err }

func (s *stubStore) Update(ctx context.Context, fn func(*store.State) error) (store.State, error) {
	if err := fn(&s.state); err != nil {
		return store.State{}, err
	}
	return s.state, nil
}

func (s *stubStore) Close() error { return nil }

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	s, err := NewServer(ServerConfig{
		Store:      st,
		Strategies: []strategy.Info{{Key: "extreme_fear", FullName: "Extreme Fear Contrarian"}},
	})
	require.NoError(t, err)
	return s
}

func doGet(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &stubStore{})
	rec := doGet(s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportBeforeFirstRun(t *testing.T) {
	s := newTestServer(t, &stubStore{})
	rec := doGet(s, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportAfterPublish(t *testing.T) {
	s := newTestServer(t, &stubStore{})
	s.Publish(types.RunReport{RunID: "run-1", GeneratedAt: time.Now()})

	rec := doGet(s, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var rep types.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "run-1", rep.RunID)
}

func TestActiveSignals(t *testing.T) {
	st := &stubStore{state: store.State{Active: []types.Signal{{
		ID: "x", Symbol: "BTC", StrategyKey: "extreme_fear", Status: types.StatusActive,
	}}}}
	s := newTestServer(t, st)

	rec := doGet(s, "/api/signals/active")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Signals []types.Signal `json:"signals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Signals, 1)
	assert.Equal(t, "BTC", body.Signals[0].Symbol)
}

func TestClosedSignalsEmptyIsArray(t *testing.T) {
	s := newTestServer(t, &stubStore{})
	rec := doGet(s, "/api/signals/closed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"signals": []}`, rec.Body.String())
}

func TestStrategies(t *testing.T) {
	s := newTestServer(t, &stubStore{})
	rec := doGet(s, "/api/strategies")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "extreme_fear")
}
