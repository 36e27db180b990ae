// Package events appends conflict-lifecycle events inside the caller's
// transaction. The events table is the notification boundary: external
// delivery (in-app, email, webhooks) consumes it, this engine only
// writes opaque payloads.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Conflict lifecycle event types.
const (
	TypeConflictDetected        = "conflict.detected"
	TypeConflictAssigned        = "conflict.assigned"
	TypeVoteSubmitted           = "vote.submitted"
	TypeVoteRequested           = "vote.requested"
	TypeConflictResolved        = "conflict.resolved"
	TypeConflictDismissed       = "conflict.dismissed"
	TypeConflictEscalated       = "conflict.escalated"
	TypeEscalationRequired      = "conflict.escalation_required"
	TypeResolutionAttemptFailed = "resolution.attempt_failed"
	TypeAgreementComputed       = "agreement.computed"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		ts, evtType, nullable(projectID), entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
