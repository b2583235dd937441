package publishers

import "time"

// Action names what happened to a record during a sync pass.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event represents one sync mutation published downstream.
type Event struct {
	ImporterID  string    `json:"importer_id"`
	FeedID      string    `json:"feed_id,omitempty"`
	RemoteID    string    `json:"remote_id"`
	ContentType string    `json:"content_type,omitempty"`
	Action      string    `json:"action"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for the given importer mutation.
func NewEvent(importerID, feedID, remoteID, contentType, action string) Event {
	return Event{
		ImporterID:  importerID,
		FeedID:      feedID,
		RemoteID:    remoteID,
		ContentType: contentType,
		Action:      action,
		OccurredAt:  time.Now().UTC(),
	}
}
