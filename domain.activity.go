package main

import (
	"context"
	"time"
)

// Activity actions.
const (
	ActivityCreated = "created"
	ActivityUpdated = "updated"
	ActivityDeleted = "deleted"
)

// ActivityIDPrefix prefixes the journal entries ids.
const ActivityIDPrefix string = "a"

// Activity is a journal entry describing a successful mutation made
// through the admin front end.
type Activity struct {
	ID       string    `json:"id"`
	Session  string    `json:"session"`
	Resource string    `json:"resource"`
	Action   string    `json:"action"`
	EntityID int64     `json:"entityId"`
	At       time.Time `json:"at"`
}

// ActivityRecorder receives activities as they happen.
type ActivityRecorder interface {
	Record(ctx context.Context, activity Activity) error
}

// ActivityJournal stores activities and serves the most recent ones.
type ActivityJournal interface {
	Append(ctx context.Context, activity Activity) error
	Recent(ctx context.Context, limit int) ([]Activity, error)
}

// NopRecorder drops every activity. Used when the journal is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Activity) error { return nil }
