package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"userhub/internal/model"
	"userhub/internal/queue"
	"userhub/internal/repository"
)

// Handler turns identity events from the stream into audit rows.
type Handler struct {
	auditRepo repository.AuditRepository
}

// NewHandler creates a new event handler.
func NewHandler(auditRepo repository.AuditRepository) *Handler {
	return &Handler{auditRepo: auditRepo}
}

// HandleEvent validates an event and persists its audit entry.
func (h *Handler) HandleEvent(ctx context.Context, event queue.IdentityEvent) error {
	startTime := time.Now()

	switch event.Type {
	case queue.EventUserCreated, queue.EventUserUpdated, queue.EventUserDeleted, queue.EventUserLogin:
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	outcome := event.Outcome
	if outcome == "" {
		outcome = model.AuditOutcomeSuccess
	}

	entry := &model.AuditEntry{
		EventType:  event.Type,
		UserID:     event.UserID,
		Nickname:   event.Nickname,
		Outcome:    outcome,
		OccurredAt: time.Unix(event.Timestamp, 0).UTC(),
	}

	if err := h.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s nickname=%s duration=%v err=%v",
			event.Type, event.Nickname, time.Since(startTime), err)
		return fmt.Errorf("persist audit entry: %w", err)
	}

	log.Printf("[Worker] HandleEvent OK: type=%s nickname=%s outcome=%s duration=%v",
		event.Type, event.Nickname, outcome, time.Since(startTime))
	return nil
}
