package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/awnotify/internal/storage"
)

// ttlSeconds is storage.RetentionTTL in the unit EXPIRE takes
var ttlSeconds = int64(storage.RetentionTTL / time.Second)

// keys builds the Redis key layout under a prefix
type keys struct {
	prefix string
}

// notification is {prefix}:notify:{date}:{key}
func (k keys) notification(date, key string) string {
	return fmt.Sprintf("%s:notify:%s:%s", k.prefix, date, key)
}

// notificationIndex is {prefix}:notify:index:{date}
func (k keys) notificationIndex(date string) string {
	return fmt.Sprintf("%s:notify:index:%s", k.prefix, date)
}

// dailyUsage is {prefix}:usage:daily:{date}:{category}
func (k keys) dailyUsage(date, category string) string {
	return fmt.Sprintf("%s:usage:daily:%s:%s", k.prefix, date, category)
}

// dailyUsageIndex is {prefix}:usage:daily:index:{date}
func (k keys) dailyUsageIndex(date string) string {
	return fmt.Sprintf("%s:usage:daily:index:%s", k.prefix, date)
}

// parseNotificationRecord converts a Redis hash to NotificationRecord
func parseNotificationRecord(data map[string]string) (*storage.NotificationRecord, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	sentAt, err := time.Parse(time.RFC3339Nano, data["sent_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse sent_at: %w", err)
	}

	thresholdSeconds, err := strconv.ParseInt(data["threshold_seconds"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse threshold_seconds: %w", err)
	}

	return &storage.NotificationRecord{
		Key:       data["key"],
		Kind:      data["kind"],
		Category:  data["category"],
		Threshold: time.Duration(thresholdSeconds) * time.Second,
		Date:      data["date"],
		SentAt:    sentAt,
	}, nil
}

// parseDailyUsage converts a Redis hash to DailyUsage
func parseDailyUsage(data map[string]string) (*storage.DailyUsage, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	totalSeconds, err := strconv.ParseInt(data["total_seconds"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_seconds: %w", err)
	}

	return &storage.DailyUsage{
		Date:         data["date"],
		Category:     data["category"],
		TotalSeconds: totalSeconds,
	}, nil
}
