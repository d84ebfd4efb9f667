package usage

import (
	"sort"
	"time"
)

// DefaultTopN is the number of categories listed in a summary.
const DefaultTopN = 4

// Summarize builds the end-of-day digest. Total is the tracked time; the top
// list holds up to topN categories by duration (ties by name). Uncategorized
// time is part of the total but never listed.
func Summarize(state State, topN int) Summary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	top := make([]CategoryTime, 0, len(state.Totals))
	for name, d := range state.Totals {
		if d <= 0 {
			continue
		}
		top = append(top, CategoryTime{Name: name, Duration: d})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Duration != top[j].Duration {
			return top[i].Duration > top[j].Duration
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > topN {
		top = top[:topN]
	}

	for i := range top {
		if state.Tracked > 0 {
			top[i].Percent = 100 * float64(top[i].Duration) / float64(state.Tracked)
		}
	}

	return Summary{
		Day:   state.Day,
		Total: state.Tracked,
		Top:   top,
	}
}

// CutoffReached reports whether the end-of-day summary is due: now is at or
// past the first cutoff after the day start and no summary went out today.
func CutoffReached(state State, now time.Time, cutoff TimeOfDay) bool {
	if state.SummaryFired {
		return false
	}
	return !now.Before(CutoffTime(state.Day, cutoff))
}

// MarkSummaryFired returns a copy of state with the summary flag set and the
// trigger carrying the summary.
func MarkSummaryFired(state State, topN int) (State, Trigger) {
	next := state.Clone()
	next.SummaryFired = true
	return next, SummaryTrigger(next, topN)
}

// SummaryTrigger returns a summary trigger without touching state, as used
// by on-demand check-ins.
func SummaryTrigger(state State, topN int) Trigger {
	summary := Summarize(state, topN)
	return Trigger{Kind: KindSummary, Total: summary.Total, Summary: &summary}
}
