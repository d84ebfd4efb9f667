package notify

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// DefaultAppName is shown as the notification source.
const DefaultAppName = "ActivityWatch notify"

// DesktopSink delivers notifications through the OS notification service.
type DesktopSink struct {
	icon   string
	notify func(title, message string, icon any) error
	alert  func(title, message string, icon any) error
}

// NewDesktopSink creates a desktop sink. icon may be empty.
func NewDesktopSink(appName, icon string) *DesktopSink {
	if appName == "" {
		appName = DefaultAppName
	}
	beeep.AppName = appName

	return &DesktopSink{
		icon:   icon,
		notify: beeep.Notify,
		alert:  beeep.Alert,
	}
}

// Send shows the notification. Critical notifications also play a sound.
func (s *DesktopSink) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	send := s.notify
	if n.Urgency == UrgencyCritical {
		send = s.alert
	}

	if err := send(n.Title, n.Body, s.icon); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
