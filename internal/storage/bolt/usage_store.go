package bolt

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/goodtune/awnotify/internal/storage"
)

type usageStore struct {
	db *bbolt.DB
}

func (s *usageStore) SetDailyUsage(ctx context.Context, u storage.DailyUsage) error {
	return putBucketValue(ctx, s.db, bucketDailyUsage, dayKey(u.Date, u.Category), u)
}

func (s *usageStore) GetDailyUsage(ctx context.Context, date, category string) (*storage.DailyUsage, error) {
	return getBucketValue[storage.DailyUsage](ctx, s.db, bucketDailyUsage, dayKey(date, category))
}

func (s *usageStore) ListDailyUsage(ctx context.Context, date string) ([]storage.DailyUsage, error) {
	usages, err := listDay[storage.DailyUsage](ctx, s.db, bucketDailyUsage, date)
	if err != nil {
		return nil, err
	}
	storage.SortUsage(usages)
	return usages, nil
}
