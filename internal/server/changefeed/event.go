// Package changefeed carries the "users changed" signal from its sources
// (Postgres LISTEN/NOTIFY, a Redis stream, or the local process) to every
// interested subscriber.
//
// Events are hints only. Subscribers must treat any event as "re-read the
// collection" and never rely on Op or ID.
package changefeed

import (
	"context"
	"encoding/json"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	// OpResync is emitted after a source reconnects, since notifications
	// may have been lost while it was down.
	OpResync = "resync"
)

type Event struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

// Publisher announces a local write.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// decodeEvent parses a notification payload. A payload that cannot be
// decoded still signals a change.
func decodeEvent(payload string) Event {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Op == "" {
		return Event{Op: OpResync}
	}
	return ev
}
