package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/goodtune/awnotify/internal/storage"
)

var setDailyUsage = redis.NewScript(setDailyUsageScript)

type usageStore struct {
	client *redis.Client
	keys   keys
}

// SetDailyUsage stores an absolute daily total
func (s *usageStore) SetDailyUsage(ctx context.Context, u storage.DailyUsage) error {
	keys := []string{s.keys.dailyUsage(u.Date, u.Category), s.keys.dailyUsageIndex(u.Date)}
	args := []interface{}{u.Date, u.Category, u.TotalSeconds, ttlSeconds}

	return setDailyUsage.Run(ctx, s.client, keys, args...).Err()
}

// GetDailyUsage retrieves daily usage for a specific date and category
func (s *usageStore) GetDailyUsage(ctx context.Context, date, category string) (*storage.DailyUsage, error) {
	data, err := s.client.HGetAll(ctx, s.keys.dailyUsage(date, category)).Result()
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	return parseDailyUsage(data)
}

// ListDailyUsage returns all daily usage entries for a specific date
func (s *usageStore) ListDailyUsage(ctx context.Context, date string) ([]storage.DailyUsage, error) {
	// Get all categories for this date
	categories, err := s.client.SMembers(ctx, s.keys.dailyUsageIndex(date)).Result()
	if err != nil {
		return nil, err
	}

	if len(categories) == 0 {
		return []storage.DailyUsage{}, nil
	}

	// Use pipeline for batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(categories))

	for i, category := range categories {
		cmds[i] = pipe.HGetAll(ctx, s.keys.dailyUsage(date, category))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	// Parse results, skipping entries that expired since the index was read
	usages := make([]storage.DailyUsage, 0, len(categories))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		usage, err := parseDailyUsage(data)
		if err == nil {
			usages = append(usages, *usage)
		}
	}

	storage.SortUsage(usages)
	return usages, nil
}
