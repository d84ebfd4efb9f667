package storage

import (
	"fmt"
	"sort"
	"time"
)

// RetentionTTL bounds how long backends with expiry keep records.
const RetentionTTL = 90 * 24 * time.Hour

// NotificationRecord is the last-sent record of one logical notification.
type NotificationRecord struct {
	Key       string        `json:"key"`
	Kind      string        `json:"kind"`
	Category  string        `json:"category"`
	Threshold time.Duration `json:"threshold"`
	Date      string        `json:"date"` // YYYY-MM-DD of the tracking day
	SentAt    time.Time     `json:"sent_at"`
}

// DailyUsage is the accumulated time of a category on one tracking day.
type DailyUsage struct {
	Date         string `json:"date"`
	Category     string `json:"category"`
	TotalSeconds int64  `json:"total_seconds"`
}

// NotificationKey builds the deduplication key of a notification.
func NotificationKey(kind, category string, threshold time.Duration) string {
	if category == "" && threshold == 0 {
		return kind
	}
	return fmt.Sprintf("%s:%s:%d", kind, category, int64(threshold/time.Second))
}

// SortNotifications orders records by send time, then key.
func SortNotifications(recs []NotificationRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].SentAt.Equal(recs[j].SentAt) {
			return recs[i].SentAt.Before(recs[j].SentAt)
		}
		return recs[i].Key < recs[j].Key
	})
}

// SortUsage orders usage by total (descending), then category.
func SortUsage(usages []DailyUsage) {
	sort.Slice(usages, func(i, j int) bool {
		if usages[i].TotalSeconds != usages[j].TotalSeconds {
			return usages[i].TotalSeconds > usages[j].TotalSeconds
		}
		return usages[i].Category < usages[j].Category
	})
}
