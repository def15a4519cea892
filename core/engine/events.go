package engine

import (
	"context"
	"time"
)

// EventType names an event emitted by the engine.
type EventType string

// Events emitted around each engine operation.
const (
	TransformStart   EventType = "transform.start"
	TransformSuccess EventType = "transform.success"
	TransformFailed  EventType = "transform.failed"
	QueryStart       EventType = "query.start"
	QuerySuccess     EventType = "query.success"
	QueryFailed      EventType = "query.failed"
	ChartStart       EventType = "chart.start"
	ChartSuccess     EventType = "chart.success"
	ChartFailed      EventType = "chart.failed"
	ProfileStart     EventType = "profile.start"
	ProfileSuccess   EventType = "profile.success"
	ProfileFailed    EventType = "profile.failed"
)

// Event describes one step of an engine operation.
type Event struct {
	Type      EventType `json:"type"`
	Operation string    `json:"operation"`
	Rows      int       `json:"rows"`
	Input     any       `json:"input,omitempty"`
	Output    any       `json:"output,omitempty"`
	Error     *string   `json:"error,omitempty"`
	Timestamp int64     `json:"timestamp"`
	Duration  *int64    `json:"duration,omitempty"` // milliseconds, set on success and failure
}

// Callback receives engine events.
type Callback func(ctx context.Context, event Event) error

// Subscription is an active event subscription.
type Subscription struct {
	ID          string    `json:"id"`
	Event       EventType `json:"event"`
	unsubscribe func()
}

type stage struct {
	start, success, failed EventType
}

var stages = map[string]stage{
	"transform": {TransformStart, TransformSuccess, TransformFailed},
	"query":     {QueryStart, QuerySuccess, QueryFailed},
	"chart":     {ChartStart, ChartSuccess, ChartFailed},
	"profile":   {ProfileStart, ProfileSuccess, ProfileFailed},
}

func newEvent(t EventType, operation string, rows int, input, output any, err *string, started time.Time) Event {
	var duration *int64
	if t != stages[operation].start {
		d := time.Since(started).Milliseconds()
		duration = &d
	}
	return Event{
		Type:      t,
		Operation: operation,
		Rows:      rows,
		Input:     input,
		Output:    output,
		Error:     err,
		Timestamp: time.Now().UnixMilli(),
		Duration:  duration,
	}
}
