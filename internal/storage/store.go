package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Notifications() NotificationStore
	Usage() UsageStore
}

// NotificationStore keeps the last-sent record per notification key and day.
type NotificationStore interface {
	// Record creates or replaces the record for (rec.Date, rec.Key).
	Record(ctx context.Context, rec NotificationRecord) error
	Get(ctx context.Context, date, key string) (*NotificationRecord, error)
	List(ctx context.Context, date string) ([]NotificationRecord, error)
}

// UsageStore keeps per-category daily totals.
type UsageStore interface {
	// SetDailyUsage stores an absolute total, replacing any previous value.
	SetDailyUsage(ctx context.Context, usage DailyUsage) error
	GetDailyUsage(ctx context.Context, date, category string) (*DailyUsage, error)
	ListDailyUsage(ctx context.Context, date string) ([]DailyUsage, error)
}
