package usage

import (
	"fmt"
	"time"
)

// DateFormat is the layout used for day keys in storage.
const DateFormat = "2006-01-02"

// TimeOfDay is a wall-clock time (hour and minute) in local time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a time in HH:MM format.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q (want HH:MM): %w", s, err)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// String formats the time as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns t on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// DayStart returns the start of the tracking day containing now: the most
// recent occurrence of start at or before now.
func DayStart(now time.Time, start TimeOfDay) time.Time {
	today := start.On(now)

	// Before today's start time, yesterday is still the current day
	if now.Before(today) {
		return start.On(now.AddDate(0, 0, -1))
	}

	return today
}

// NextDayStart returns the start of the tracking day after the one containing
// now.
func NextDayStart(now time.Time, start TimeOfDay) time.Time {
	return start.On(DayStart(now, start).AddDate(0, 0, 1))
}

// DayKey returns the storage key for the day starting at dayStart.
func DayKey(dayStart time.Time) string {
	return dayStart.Format(DateFormat)
}

// CutoffTime returns the first occurrence of cutoff strictly after dayStart.
func CutoffTime(dayStart time.Time, cutoff TimeOfDay) time.Time {
	at := cutoff.On(dayStart)
	if !at.After(dayStart) {
		at = cutoff.On(dayStart.AddDate(0, 0, 1))
	}
	return at
}
