package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/goodtune/awnotify/internal/metrics"
	"github.com/goodtune/awnotify/internal/usage"
)

// Sink names accepted by NewSink
const (
	SinkDesktop = "desktop"
	SinkLog     = "log"
)

// NewSink builds the named sink
func NewSink(name, appName, icon string, logger zerolog.Logger) (Sink, error) {
	switch name {
	case "", SinkDesktop:
		return NewDesktopSink(appName, icon), nil
	case SinkLog:
		return NewLogSink(logger), nil
	}
	return nil, fmt.Errorf("unknown notification sink %q", name)
}

// Dispatcher formats triggers and hands them to a sink. It keeps no state;
// deduplication happens in usage.State.
type Dispatcher struct {
	sink   Sink
	logger zerolog.Logger
}

// NewDispatcher creates a dispatcher writing to sink
func NewDispatcher(sink Sink, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch formats and sends a trigger. Errors wrap ErrDeliveryFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, tr usage.Trigger) error {
	n, err := Format(tr)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(tr.Kind), "invalid").Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := d.sink.Send(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(tr.Kind), "failed").Inc()
		if !errors.Is(err, ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		return fmt.Errorf("failed to send %s notification: %w", tr.Kind, err)
	}

	metrics.NotificationsTotal.WithLabelValues(string(tr.Kind), "sent").Inc()

	d.logger.Debug().
		Str("kind", string(tr.Kind)).
		Str("category", tr.Category).
		Dur("threshold", tr.Threshold).
		Msg("Notification sent")

	return nil
}
