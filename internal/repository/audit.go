package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"userhub/internal/model"
)

type auditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlx.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create appends an audit entry. Entries are never updated or deleted.
func (r *auditRepository) Create(ctx context.Context, entry *model.AuditEntry) error {
	query := `
		INSERT INTO audit_log (event_type, user_id, nickname, outcome, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		entry.EventType,
		entry.UserID,
		entry.Nickname,
		entry.Outcome,
		entry.OccurredAt,
	).Scan(&entry.ID)

	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}
