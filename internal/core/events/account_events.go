package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserRegistered  = "account.registered"
	EventTypeRoleGranted     = "account.role_granted"
	EventTypeRoleRevoked     = "account.role_revoked"
	EventTypePasswordChanged = "account.password_changed"
	EventTypeUserRemoved     = "account.removed"
)

// AccountEventTypes lists every event the account service emits.
var AccountEventTypes = []string{
	EventTypeUserRegistered,
	EventTypeRoleGranted,
	EventTypeRoleRevoked,
	EventTypePasswordChanged,
	EventTypeUserRemoved,
}

type AccountEvent struct {
	BaseEvent
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

func NewAccountEvent(eventType, username, role string) *AccountEvent {
	data := map[string]interface{}{"username": username}
	if role != "" {
		data["role"] = role
	}
	return &AccountEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		Username: username,
		Role:     role,
	}
}

// AuditLogger writes each event it receives as one structured log line.
func AuditLogger(lg *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		lg.InfoContext(ctx, "audit",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"occurred_at", event.OccurredAt(),
			"data", event.Payload())
		return nil
	}
}
