// Package notify turns usage triggers into user-facing notifications and
// delivers them through a pluggable sink.
package notify

import (
	"context"
	"errors"
)

// ErrDeliveryFailed is returned when a sink could not deliver a notification.
var ErrDeliveryFailed = errors.New("notify: delivery failed")

// Urgency hints how prominently a notification should be shown.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyCritical Urgency = "critical"
)

// Notification is a formatted message ready for delivery.
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
}

// Sink delivers notifications to the user.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}
