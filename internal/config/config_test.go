package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "app:\n  env: prod\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, cfg.Market.Symbols)
	assert.Equal(t, []string{"coingecko", "binance", "cryptocompare", "coincap"}, cfg.Market.Providers)
	assert.Equal(t, 3, cfg.Market.CallTimeoutSeconds)
	assert.Equal(t, 500, cfg.Market.RetryPauseMS)
	assert.Equal(t, 10000.0, cfg.Signals.CapitalBase)
	assert.Equal(t, 5, cfg.Signals.MaxNew)
	assert.Equal(t, 1000, cfg.Signals.ClosedRetention)
	assert.Equal(t, "json", cfg.Store.Backend)
	assert.True(t, cfg.Scheduler.RunImmediately)
}

func TestLoadNormalizesSymbols(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "market:\n  symbols: [\" btc\", \"eth \"]\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Market.Symbols)
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", "signals:\n  capital_base: 25000\n  max_new: 3\n")
	path := writeConfig(t, dir, "config.yaml", "include:\n  - base.yaml\nsignals:\n  max_new: 4\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Including file wins for keys it sets; the included file fills the rest.
	assert.Equal(t, 4, cfg.Signals.MaxNew)
	assert.Equal(t, 25000.0, cfg.Signals.CapitalBase)
}

func TestLoadRejectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "include: [b.yaml]\n")
	path := writeConfig(t, dir, "b.yaml", "include: [a.yaml]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "market:\n  providers: [yahoo]\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadRejectsBadStoreBackend(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "store:\n  backend: redis\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsWebhookWithoutURL(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "notify:\n  webhook:\n    enabled: true\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestStrategyEnabled(t *testing.T) {
	var s SignalsConfig
	assert.True(t, s.StrategyEnabled("extreme_fear"), "empty list enables everything")

	s.Strategies = []string{"extreme_fear", "crash_reversal"}
	assert.True(t, s.StrategyEnabled("EXTREME_FEAR"))
	assert.False(t, s.StrategyEnabled("rsi_reversal"))
}
