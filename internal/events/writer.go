package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Audit event types.
const (
	ProjectCreated      = "project.created"
	ProjectUpdated      = "project.updated"
	BidSubmitted        = "bid.submitted"
	ProjectTransitioned = "project.transitioned"
	ReviewPosted        = "review.posted"
	UserRatingUpdated   = "user.rating_updated"
)

// Types lists every event type a webhook may subscribe to.
var Types = []string{ProjectCreated, ProjectUpdated, BidSubmitted, ProjectTransitioned, ReviewPosted, UserRatingUpdated}

// Writer appends audit events inside the caller's transaction so the log never
// disagrees with the state it describes.
type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, projectID, entityKind, entityID, actorID string, payload EventPayload) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("append %s: transaction required", evtType)
	}
	now := w.Now
	if now == nil {
		now = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal event payload: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO events(ts,type,project_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), evtType, nullable(projectID), entityKind, nullable(entityID), actorID, string(data))
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", evtType, err)
	}
	return res.LastInsertId()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
