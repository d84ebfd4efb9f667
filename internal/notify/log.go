package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes notifications to the log instead of the desktop. It is used
// on headless machines and under test.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a log sink
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notify-log").Logger()}
}

// Send logs the notification
func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.logger.Info().
		Str("title", n.Title).
		Str("urgency", string(n.Urgency)).
		Msg(n.Body)
	return nil
}
