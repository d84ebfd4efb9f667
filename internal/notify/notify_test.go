package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/usage"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Minute, "0s"},
		{42 * time.Second, "42s"},
		{61 * time.Second, "1m"},
		{time.Hour, "1h"},
		{time.Hour + 5*time.Minute + 30*time.Second, "1h 5m"},
		{2*24*time.Hour + 3*time.Hour + 5*time.Minute, "2d 3h 5m"},
		{24*time.Hour + 10*time.Second, "1d"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	n, err := Format(usage.Trigger{Kind: usage.KindThreshold, Category: "Work", Threshold: time.Hour, Total: 65 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, "Time spent", n.Title)
	assert.Equal(t, "You've been on Work for 1h today", n.Body)

	n, err = Format(usage.Trigger{Kind: usage.KindThreshold, Category: category.TotalCategory, Threshold: 2 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, "You've been active for 2h today", n.Body)
	assert.Equal(t, UrgencyNormal, n.Urgency)

	n, err = Format(usage.Trigger{Kind: usage.KindThreshold, Category: category.TotalCategory, Threshold: 8 * time.Hour, Last: true})
	require.NoError(t, err)
	assert.Equal(t, UrgencyCritical, n.Urgency)

	// A category's last threshold is not critical, only the daily total's
	n, err = Format(usage.Trigger{Kind: usage.KindThreshold, Category: "Work", Threshold: 2 * time.Hour, Last: true})
	require.NoError(t, err)
	assert.Equal(t, UrgencyNormal, n.Urgency)

	summary := &usage.Summary{
		Total: 4 * time.Hour,
		Top: []usage.CategoryTime{
			{Name: "Work", Duration: 2 * time.Hour, Percent: 50},
			{Name: "Games", Duration: 30 * time.Minute, Percent: 12.4},
		},
	}
	n, err = Format(usage.Trigger{Kind: usage.KindSummary, Summary: summary})
	require.NoError(t, err)
	assert.Equal(t, "Daily summary", n.Title)
	assert.Equal(t, "You've spent a total of 4h today. You did Work for 2h (50%)\n- Games: 30m (12%)", n.Body)

	n, err = Format(usage.Trigger{Kind: usage.KindSummary, Summary: &usage.Summary{}})
	require.NoError(t, err)
	assert.Equal(t, "You've spent a total of 0s today.", n.Body)

	_, err = Format(usage.Trigger{Kind: usage.KindSummary})
	assert.Error(t, err)
	_, err = Format(usage.Trigger{Kind: "bogus"})
	assert.Error(t, err)
}

type recordingSink struct {
	sent []Notification
	err  error
}

func (s *recordingSink) Send(_ context.Context, n Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func TestDispatcher(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, zerolog.Nop())

	err := d.Dispatch(context.Background(), usage.Trigger{Kind: usage.KindThreshold, Category: "Work", Threshold: time.Hour})
	require.NoError(t, err)
	require.Len(t, sink.sent, 1)
	assert.Equal(t, UrgencyNormal, sink.sent[0].Urgency)

	sink.err = errors.New("dbus gone")
	err = d.Dispatch(context.Background(), usage.Trigger{Kind: usage.KindThreshold, Category: "Work", Threshold: 2 * time.Hour})
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	err = d.Dispatch(context.Background(), usage.Trigger{Kind: usage.KindSummary})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestDesktopSink(t *testing.T) {
	var notified, alerted int
	s := &DesktopSink{
		notify: func(title, message string, icon any) error { notified++; return nil },
		alert:  func(title, message string, icon any) error { alerted++; return errors.New("no sound") },
	}

	require.NoError(t, s.Send(context.Background(), Notification{Title: "t", Body: "b", Urgency: UrgencyNormal}))
	err := s.Send(context.Background(), Notification{Title: "t", Body: "b", Urgency: UrgencyCritical})
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 1, notified)
	assert.Equal(t, 1, alerted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Notification{}), ErrDeliveryFailed)
}

func TestNewSink(t *testing.T) {
	s, err := NewSink(SinkLog, "", "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSink{}, s)
	assert.NoError(t, s.Send(context.Background(), Notification{Title: "t", Body: "b"}))

	_, err = NewSink("pager", "", "", zerolog.Nop())
	assert.Error(t, err)
}
