package activity

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrSourceUnavailable is returned when the activity store cannot be reached
// or does not answer within the fetch timeout.
var ErrSourceUnavailable = errors.New("activity: source unavailable")

// Event is a single time-bucketed activity as reported by the tracker.
type Event struct {
	Start    time.Time
	Duration time.Duration
	App      string
	Title    string
	URL      string // Only set for browser tab events
}

// End returns the time the event stopped.
func (e Event) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Source fetches activity events for a time window.
type Source interface {
	// Fetch returns the events covering [since, until). The returned
	// sequence can only be consumed once.
	Fetch(ctx context.Context, since, until time.Time) (iter.Seq[Event], error)
}

// Clip trims an event to [since, until). The second return value is false
// when nothing of the event falls inside the window.
func Clip(e Event, since, until time.Time) (Event, bool) {
	start := e.Start
	end := e.End()

	if start.Before(since) {
		start = since
	}
	if end.After(until) {
		end = until
	}
	if !end.After(start) {
		return Event{}, false
	}

	e.Start = start
	e.Duration = end.Sub(start)
	return e, true
}
