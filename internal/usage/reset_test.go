package usage

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", TimeOfDay{0, 0}, false},
		{"04:30", TimeOfDay{4, 30}, false},
		{"23:59", TimeOfDay{23, 59}, false},
		{"24:00", TimeOfDay{}, true},
		{"4pm", TimeOfDay{}, true},
		{"", TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if s := (TimeOfDay{4, 5}).String(); s != "04:05" {
		t.Errorf("String() = %q, want 04:05", s)
	}
}

func TestDayStart(t *testing.T) {
	loc := time.UTC
	midnight := TimeOfDay{0, 0}
	fourAM := TimeOfDay{4, 0}

	tests := []struct {
		name  string
		now   time.Time
		start TimeOfDay
		want  time.Time
	}{
		{"midday", time.Date(2024, 3, 10, 12, 0, 0, 0, loc), midnight, time.Date(2024, 3, 10, 0, 0, 0, 0, loc)},
		{"exactly midnight", time.Date(2024, 3, 10, 0, 0, 0, 0, loc), midnight, time.Date(2024, 3, 10, 0, 0, 0, 0, loc)},
		{"before offset", time.Date(2024, 3, 10, 3, 59, 0, 0, loc), fourAM, time.Date(2024, 3, 9, 4, 0, 0, 0, loc)},
		{"after offset", time.Date(2024, 3, 10, 4, 1, 0, 0, loc), fourAM, time.Date(2024, 3, 10, 4, 0, 0, 0, loc)},
		{"month rollover", time.Date(2024, 3, 1, 1, 0, 0, 0, loc), fourAM, time.Date(2024, 2, 29, 4, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayStart(tt.now, tt.start); !got.Equal(tt.want) {
				t.Errorf("DayStart() = %v, want %v", got, tt.want)
			}
			next := NextDayStart(tt.now, tt.start)
			if want := tt.want.AddDate(0, 0, 1); !next.Equal(want) {
				t.Errorf("NextDayStart() = %v, want %v", next, want)
			}
			if !next.After(tt.now) {
				t.Errorf("NextDayStart() = %v is not after %v", next, tt.now)
			}
		})
	}
}

func TestCutoffTime(t *testing.T) {
	dayStart := time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC)

	if got := CutoffTime(dayStart, TimeOfDay{22, 0}); !got.Equal(time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)) {
		t.Errorf("CutoffTime(22:00) = %v", got)
	}
	// A cutoff earlier than the day start belongs to the next calendar day
	if got := CutoffTime(dayStart, TimeOfDay{1, 0}); !got.Equal(time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("CutoffTime(01:00) = %v", got)
	}
	if got := DayKey(dayStart); got != "2024-03-10" {
		t.Errorf("DayKey() = %q", got)
	}
}

func TestTestClock(t *testing.T) {
	c := &TestClock{CurrentTime: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}
	c.Advance(time.Hour)
	if got := c.Now().Hour(); got != 1 {
		t.Errorf("Now().Hour() = %d, want 1", got)
	}
	c.Set(time.Time{})
	if !c.Now().IsZero() {
		t.Error("Set did not move the clock")
	}
}
