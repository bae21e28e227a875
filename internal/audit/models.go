// Package audit records who did what to which consent record. The consent
// record itself is deleted on revoke; this trail is the only place a revoked
// grant leaves a trace.
package audit

import (
	"context"
	"time"
)

// Action names the lifecycle operation an event captures.
type Action string

const (
	ActionGrant  Action = "grant"
	ActionUpdate Action = "update"
	ActionRevoke Action = "revoke"
	ActionRenew  Action = "renew"
)

// Event is emitted from the consent service for every mutation. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID           string    `json:"id"`
	Action       Action    `json:"action"`
	RecordID     int64     `json:"recordId"`
	DocumentName string    `json:"documentName"`
	ActorID      int64     `json:"actorId,omitempty"`
	ClientIP     string    `json:"clientIp,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
