// Package usage accumulates categorized activity time for the current day
// and decides when threshold and end-of-day notifications are due.
//
// All functions are pure: they take a State and return an updated copy.
package usage

import (
	"maps"
	"time"
)

// ThresholdKey identifies one (category, threshold) pair.
type ThresholdKey struct {
	Category  string
	Threshold time.Duration
}

// State is the mutable daily state owned by the poll loop.
type State struct {
	Day           time.Time                // start of the tracking day
	Totals        map[string]time.Duration // category -> accumulated time
	Uncategorized time.Duration
	Tracked       time.Duration // every event counted once
	Fired         map[ThresholdKey]bool
	SummaryFired  bool
}

// NewState returns an empty state for the day starting at day.
func NewState(day time.Time) State {
	return State{
		Day:    day,
		Totals: make(map[string]time.Duration),
		Fired:  make(map[ThresholdKey]bool),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.Totals = maps.Clone(s.Totals)
	c.Fired = maps.Clone(s.Fired)
	if c.Totals == nil {
		c.Totals = make(map[string]time.Duration)
	}
	if c.Fired == nil {
		c.Fired = make(map[ThresholdKey]bool)
	}
	return c
}

// TriggerKind tells notifications apart.
type TriggerKind string

const (
	KindThreshold TriggerKind = "threshold"
	KindSummary   TriggerKind = "summary"
)

// Trigger is a notification that is due.
type Trigger struct {
	Kind      TriggerKind
	Category  string
	Threshold time.Duration
	Total     time.Duration
	Last      bool     // highest threshold of its category
	Summary   *Summary // set for KindSummary
}

// CategoryTime is one line of a summary.
type CategoryTime struct {
	Name     string
	Duration time.Duration
	Percent  float64
}

// Summary is the end-of-day digest.
type Summary struct {
	Day   time.Time
	Total time.Duration
	Top   []CategoryTime
}
