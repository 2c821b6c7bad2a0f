package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the identity stream
const (
	EventUserCreated = "user_created"
	EventUserUpdated = "user_updated"
	EventUserDeleted = "user_deleted"
	EventUserLogin   = "user_login"
)

// Outcomes carried on identity events
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Stream names
const (
	StreamIdentity = "stream:identity"
)

// Consumer group name for audit workers
const (
	ConsumerGroupAudit = "audit_workers"
)

// IdentityEvent is one operation outcome published by the user
// service. The audit worker persists these; nothing in the request
// path ever depends on them being delivered.
type IdentityEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the operation completed

	UserID   int64  `json:"user_id,omitempty"` // 0 for failed logins against unknown nicknames
	Nickname string `json:"nickname,omitempty"`
	Outcome  string `json:"outcome"`
}

// NewUserCreatedEvent records a successful create.
func NewUserCreatedEvent(userID int64, nickname string) IdentityEvent {
	return IdentityEvent{
		Type:      EventUserCreated,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Nickname:  nickname,
		Outcome:   OutcomeSuccess,
	}
}

// NewUserUpdatedEvent records a successful update.
func NewUserUpdatedEvent(userID int64, nickname string) IdentityEvent {
	return IdentityEvent{
		Type:      EventUserUpdated,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Nickname:  nickname,
		Outcome:   OutcomeSuccess,
	}
}

// NewUserDeletedEvent records a successful delete.
func NewUserDeletedEvent(userID int64, nickname string) IdentityEvent {
	return IdentityEvent{
		Type:      EventUserDeleted,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Nickname:  nickname,
		Outcome:   OutcomeSuccess,
	}
}

// NewUserLoginEvent records a login attempt, successful or not.
func NewUserLoginEvent(userID int64, nickname, outcome string) IdentityEvent {
	return IdentityEvent{
		Type:      EventUserLogin,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Nickname:  nickname,
		Outcome:   outcome,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e IdentityEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseIdentityEvent parses an IdentityEvent from Redis stream message values.
func ParseIdentityEvent(values map[string]interface{}) (IdentityEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return IdentityEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event IdentityEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return IdentityEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
