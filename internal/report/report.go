// Package report assembles the per-run output artifact and writes it for
// downstream consumers (dashboard file, HTTP surface, webhook notifier).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"claws/internal/audit"
	"claws/internal/lifecycle"
	"claws/internal/types"
)

const (
	SystemName = "claws"
	Version    = "2.0.0"
)

// Build assembles the full run report from a lifecycle outcome.
func Build(snapshot types.MarketSnapshot, outcome lifecycle.Outcome, trail *audit.Log, capitalBase float64, attempts []types.AttemptRecord, fallback bool, now time.Time) types.RunReport {
	return types.RunReport{
		RunID:         uuid.NewString(),
		GeneratedAt:   now.UTC(),
		System:        SystemName,
		Version:       Version,
		CapitalBase:   capitalBase,
		Snapshot:      snapshot,
		ActiveSignals: outcome.Active,
		NewSignals:    outcome.NewlyOpen,
		RecentClosed:  outcome.RecentClosed,
		Stats:         outcome.Stats,
		AuditLog:      trail.Entries(),
		Metadata: types.ReportMetadata{
			APIsTested:        attempts,
			PickCount:         len(outcome.NewlyOpen),
			FallbackActivated: fallback,
		},
	}
}

// Write persists the report atomically so a concurrent reader never
// observes a half-written artifact.
func Write(path string, rep types.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report dir: %w", err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

// Summary renders the short human-readable digest sent to the notifier.
func Summary(rep types.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s run %s\n", SystemName, rep.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "sentiment: %d (%s, %s)", rep.Snapshot.SentimentValue, rep.Snapshot.SentimentLabel, rep.Snapshot.SentimentSource)
	if rep.Metadata.FallbackActivated {
		b.WriteString(" [fallback prices]")
	}
	b.WriteString("\n")
	if len(rep.NewSignals) == 0 {
		b.WriteString("no new signals\n")
	}
	for _, sig := range rep.NewSignals {
		fmt.Fprintf(&b, "NEW %s %s %s entry=%.4g tp=%.4g sl=%.4g conf=%.0f%%\n",
			sig.Direction, sig.Symbol, sig.StrategyKey, sig.EntryPrice, sig.TakeProfitPrice, sig.StopLossPrice, sig.Confidence*100)
	}
	for _, sig := range rep.RecentClosed {
		if sig.ClosedAt == nil || !sameRun(rep.GeneratedAt, *sig.ClosedAt) {
			continue
		}
		fmt.Fprintf(&b, "CLOSED %s %s %s %+.2f%%\n", sig.Symbol, sig.StrategyKey, sig.ExitReason, sig.RealizedPnlPct)
	}
	fmt.Fprintf(&b, "active=%d closed=%d winrate=%.1f%% realized=%+.2f",
		rep.Stats.ActiveCount, rep.Stats.TotalClosed, rep.Stats.WinRate, rep.Stats.RealizedPnlAmount)
	return b.String()
}

func sameRun(generated, closed time.Time) bool {
	d := generated.Sub(closed)
	if d < 0 {
		d = -d
	}
	return d < time.Minute
}
