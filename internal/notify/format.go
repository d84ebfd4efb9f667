package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/usage"
)

const (
	titleThreshold = "Time spent"
	titleSummary   = "Daily summary"
)

// FormatDuration renders a duration as "2d 3h 5m". Seconds are shown only
// when days, hours and minutes are all zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}

// Format renders a trigger as a notification.
func Format(tr usage.Trigger) (Notification, error) {
	switch tr.Kind {
	case usage.KindThreshold:
		return formatThreshold(tr), nil
	case usage.KindSummary:
		if tr.Summary == nil {
			return Notification{}, errors.New("summary trigger without summary")
		}
		return formatSummary(*tr.Summary), nil
	}
	return Notification{}, fmt.Errorf("unknown trigger kind %q", tr.Kind)
}

func formatThreshold(tr usage.Trigger) Notification {
	// The message names the crossed threshold, not the exact total
	d := FormatDuration(tr.Threshold)

	n := Notification{
		Title:   titleThreshold,
		Body:    fmt.Sprintf("You've been on %s for %s today", tr.Category, d),
		Urgency: UrgencyNormal,
	}
	if tr.Category == category.TotalCategory {
		n.Body = fmt.Sprintf("You've been active for %s today", d)
		// Crossing the last daily limit gets an audible alert
		if tr.Last {
			n.Urgency = UrgencyCritical
		}
	}
	return n
}

func formatSummary(s usage.Summary) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "You've spent a total of %s today.", FormatDuration(s.Total))

	for i, ct := range s.Top {
		if i == 0 {
			fmt.Fprintf(&b, " You did %s for %s (%.0f%%)", ct.Name, FormatDuration(ct.Duration), ct.Percent)
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s (%.0f%%)", ct.Name, FormatDuration(ct.Duration), ct.Percent)
	}

	return Notification{Title: titleSummary, Body: b.String(), Urgency: UrgencyLow}
}
