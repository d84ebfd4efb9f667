package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goodtune/awnotify/internal/storage"
)

var recordNotification = redis.NewScript(recordNotificationScript)

type notificationStore struct {
	client *redis.Client
	keys   keys
}

// Record creates or replaces a notification record
func (s *notificationStore) Record(ctx context.Context, rec storage.NotificationRecord) error {
	keys := []string{s.keys.notification(rec.Date, rec.Key), s.keys.notificationIndex(rec.Date)}
	args := []interface{}{
		rec.Key,
		rec.Kind,
		rec.Category,
		int64(rec.Threshold / time.Second),
		rec.Date,
		rec.SentAt.Format(time.RFC3339Nano),
		ttlSeconds,
	}

	return recordNotification.Run(ctx, s.client, keys, args...).Err()
}

// Get retrieves the record for a notification key on a date
func (s *notificationStore) Get(ctx context.Context, date, key string) (*storage.NotificationRecord, error) {
	data, err := s.client.HGetAll(ctx, s.keys.notification(date, key)).Result()
	if err != nil {
		return nil, err
	}

	return parseNotificationRecord(data)
}

// List returns every notification recorded on a date
func (s *notificationStore) List(ctx context.Context, date string) ([]storage.NotificationRecord, error) {
	notificationKeys, err := s.client.SMembers(ctx, s.keys.notificationIndex(date)).Result()
	if err != nil {
		return nil, err
	}

	if len(notificationKeys) == 0 {
		return []storage.NotificationRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(notificationKeys))

	for i, key := range notificationKeys {
		cmds[i] = pipe.HGetAll(ctx, s.keys.notification(date, key))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	recs := make([]storage.NotificationRecord, 0, len(notificationKeys))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		rec, err := parseNotificationRecord(data)
		if err == nil {
			recs = append(recs, *rec)
		}
	}

	storage.SortNotifications(recs)
	return recs, nil
}
