package types

import "time"

// AuditKind classifies an audit entry.
type AuditKind string

const (
	AuditProviderAttempt  AuditKind = "provider_attempt"
	AuditProviderSuccess  AuditKind = "provider_success"
	AuditSentiment        AuditKind = "sentiment"
	AuditStrategyTrigger  AuditKind = "strategy_trigger"
	AuditStrategySkip     AuditKind = "strategy_skip"
	AuditSignalActivated  AuditKind = "signal_activated"
	AuditSignalClosed     AuditKind = "signal_closed"
	AuditCandidateDropped AuditKind = "candidate_dropped"
	AuditEvaluationError  AuditKind = "evaluation_error"
	AuditFallback         AuditKind = "fallback"
	AuditPersistence      AuditKind = "persistence"
)

// AuditEntry is one ordered observation in the per-run audit trail. The
// trail is a passive artifact: it is attached to the report verbatim and
// never read back to drive decisions.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      AuditKind      `json:"kind"`
	Detail    string         `json:"detail"`
	Fields    map[string]any `json:"fields,omitempty"`
}
