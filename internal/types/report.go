package types

import "time"

// PerformanceStats aggregates realized and mark-to-market results across
// the persisted signal collections.
type PerformanceStats struct {
	TotalClosed         int     `json:"total_closed"`
	Wins                int     `json:"wins"`
	Losses              int     `json:"losses"`
	WinRate             float64 `json:"win_rate"`
	RealizedPnlAmount   float64 `json:"realized_pnl_amount"`
	UnrealizedPnlAmount float64 `json:"unrealized_pnl_amount"`
	ActiveCount         int     `json:"active_count"`
}

// AttemptRecord documents one provider call made by a resolver.
type AttemptRecord struct {
	Provider string `json:"provider"`
	Error    string `json:"error,omitempty"`
	OK       bool   `json:"ok"`
}

// ReportMetadata carries run-level observability flags for downstream
// consumers. fallback_activated signals that prices are static estimates.
type ReportMetadata struct {
	APIsTested        []AttemptRecord `json:"apis_tested"`
	PickCount         int             `json:"pick_count"`
	FallbackActivated bool            `json:"fallback_activated"`
}

// RunReport is the full artifact handed to output collaborators after a
// run: dashboard file, HTTP surface, webhook notifier.
type RunReport struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	System      string         `json:"system"`
	Version     string         `json:"version"`
	CapitalBase float64        `json:"capital_base"`
	Snapshot    MarketSnapshot `json:"market_snapshot"`

	ActiveSignals []Signal `json:"active_signals"`
	NewSignals    []Signal `json:"new_signals,omitempty"`
	RecentClosed  []Signal `json:"recent_closed,omitempty"`

	Stats    PerformanceStats `json:"performance_stats"`
	AuditLog []AuditEntry     `json:"audit_log"`
	Metadata ReportMetadata   `json:"metadata"`
}
