package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeTestInjected       = "TestInjected"
	TypeAttendanceRecorded = "AttendanceRecorded"
	TypeVehicleSaved       = "VehicleDetailsSaved"
	TypeChecklistSubmitted = "ChecklistSubmitted"
	TypeFeedbackSubmitted  = "FeedbackSubmitted"
	TypeRecordUpdated      = "RecordUpdated"
	TypeRecordDeleted      = "RecordDeleted"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Actor     string          `json:"actor,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Log records console actions. EventRepo is the SQL implementation.
type Log interface {
	Append(ctx context.Context, e Event) error
	ListByKey(ctx context.Context, key string, limit int) ([]Event, error)
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if len(e.Data) == 0 {
		e.Data = json.RawMessage("{}")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, actor, data, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		r.siteID, e.Type, e.Key, e.Actor, string(e.Data), time.Now().Unix())
	return err
}

// ListByKey returns the newest events for key first.
func (r *EventRepo) ListByKey(ctx context.Context, key string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, actor, data, created_at FROM event_log
		 WHERE key=$1 ORDER BY seq DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.Actor, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

// NewEvent marshals payload into an Event.
// RecordKey is the event key for a stored record, e.g. "attendance/<id>".
func RecordKey(kind, id string) string { return kind + "/" + id }

func NewEvent(typ, key, actor string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Key: key, Actor: actor, Data: b}, nil
}
