package usage

import (
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/goodtune/awnotify/internal/activity"
	"github.com/goodtune/awnotify/internal/category"
)

// Classifier maps an event to zero or more category names.
type Classifier interface {
	Classify(ev activity.Event) []string
}

// Thresholds maps a category name to its notification thresholds, ascending.
// The category.TotalCategory entry applies to the total tracked time.
type Thresholds map[string][]time.Duration

// ThresholdsFromRules collects the thresholds declared in a rules file.
func ThresholdsFromRules(rules *category.Rules) Thresholds {
	th := make(Thresholds)
	for _, rule := range rules.Categories {
		if len(rule.Thresholds) > 0 {
			th[rule.Name] = slices.Sorted(slices.Values(rule.Thresholds))
		}
	}
	if len(rules.TotalThresholds) > 0 {
		th[category.TotalCategory] = slices.Sorted(slices.Values(rules.TotalThresholds))
	}
	return th
}

// Accumulate adds the events to a copy of state. Each matching category is
// credited with the full event duration; events matching nothing count as
// uncategorized. Tracked grows by each event's duration exactly once.
func Accumulate(state State, classifier Classifier, events iter.Seq[activity.Event]) State {
	next := state.Clone()
	if events == nil {
		return next
	}

	for ev := range events {
		if ev.Duration <= 0 {
			continue
		}

		next.Tracked += ev.Duration

		names := classifier.Classify(ev)
		if len(names) == 0 {
			next.Uncategorized += ev.Duration
			continue
		}
		for _, name := range names {
			next.Totals[name] += ev.Duration
		}
	}

	return next
}

// Total returns the accumulated time for a category. The total category
// reports the tracked time.
func (s State) Total(name string) time.Duration {
	switch name {
	case category.TotalCategory:
		return s.Tracked
	case category.Uncategorized:
		return s.Uncategorized
	}
	return s.Totals[name]
}

// CheckThresholds marks every threshold that the current totals have reached
// and returns one trigger per newly fired threshold. Triggers are ordered by
// category name, then by ascending threshold. The highest threshold of a
// category is flagged Last.
func CheckThresholds(state State, thresholds Thresholds) (State, []Trigger) {
	next := state.Clone()

	var triggers []Trigger
	for _, name := range slices.Sorted(maps.Keys(thresholds)) {
		total := next.Total(name)
		sorted := slices.Sorted(slices.Values(thresholds[name]))
		for i, threshold := range sorted {
			key := ThresholdKey{Category: name, Threshold: threshold}
			if next.Fired[key] || total < threshold {
				continue
			}
			next.Fired[key] = true
			triggers = append(triggers, Trigger{
				Kind:      KindThreshold,
				Category:  name,
				Threshold: threshold,
				Total:     total,
				Last:      i == len(sorted)-1,
			})
		}
	}

	return next, triggers
}
