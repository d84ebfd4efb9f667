package bolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/goodtune/awnotify/internal/storage"
)

type notificationStore struct {
	db *bbolt.DB
}

func (s *notificationStore) Record(ctx context.Context, rec storage.NotificationRecord) error {
	return putBucketValue(ctx, s.db, bucketNotifications, dayKey(rec.Date, rec.Key), rec)
}

func (s *notificationStore) Get(ctx context.Context, date, key string) (*storage.NotificationRecord, error) {
	return getBucketValue[storage.NotificationRecord](ctx, s.db, bucketNotifications, dayKey(date, key))
}

func (s *notificationStore) List(ctx context.Context, date string) ([]storage.NotificationRecord, error) {
	recs, err := listDay[storage.NotificationRecord](ctx, s.db, bucketNotifications, date)
	if err != nil {
		return nil, err
	}
	storage.SortNotifications(recs)
	return recs, nil
}
