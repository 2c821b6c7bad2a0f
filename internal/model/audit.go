package model

import "time"

// AuditEntry is one operation-outcome record written by the audit
// worker. Entries are append-only; UserID may be 0 for failed logins
// against unknown nicknames.
type AuditEntry struct {
	ID         int64     `db:"id" json:"id"`
	EventType  string    `db:"event_type" json:"event_type"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Nickname   string    `db:"nickname" json:"nickname"`
	Outcome    string    `db:"outcome" json:"outcome"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// Audit outcomes
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
)
