// Package storagetest holds behaviour tests shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/awnotify/internal/storage"
)

// Run exercises a fresh store. The store is closed by the caller.
func Run(t *testing.T, store storage.Store) {
	t.Run("notifications", func(t *testing.T) { testNotifications(t, store.Notifications()) })
	t.Run("usage", func(t *testing.T) { testUsage(t, store.Usage()) })
}

func testNotifications(t *testing.T, ns storage.NotificationStore) {
	ctx := context.Background()
	sentAt := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	_, err := ns.Get(ctx, "2024-03-10", "threshold:Work:3600")
	require.ErrorIs(t, err, storage.ErrNotFound)

	empty, err := ns.List(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, empty)

	rec := storage.NotificationRecord{
		Key:       storage.NotificationKey("threshold", "Work", time.Hour),
		Kind:      "threshold",
		Category:  "Work",
		Threshold: time.Hour,
		Date:      "2024-03-10",
		SentAt:    sentAt,
	}
	require.NoError(t, ns.Record(ctx, rec))

	got, err := ns.Get(ctx, rec.Date, rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec.Key, got.Key)
	assert.Equal(t, "Work", got.Category)
	assert.Equal(t, time.Hour, got.Threshold)
	assert.True(t, sentAt.Equal(got.SentAt))

	// Resend replaces the record
	rec.SentAt = sentAt.Add(time.Minute)
	require.NoError(t, ns.Record(ctx, rec))

	summary := storage.NotificationRecord{
		Key:    storage.NotificationKey("summary", "", 0),
		Kind:   "summary",
		Date:   "2024-03-10",
		SentAt: sentAt.Add(12 * time.Hour),
	}
	require.NoError(t, ns.Record(ctx, summary))
	require.NoError(t, ns.Record(ctx, storage.NotificationRecord{
		Key: "summary", Kind: "summary", Date: "2024-03-11", SentAt: sentAt.Add(24 * time.Hour),
	}))

	list, err := ns.List(ctx, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, rec.Key, list[0].Key)
	assert.True(t, rec.SentAt.Equal(list[0].SentAt))
	assert.Equal(t, "summary", list[1].Key)
}

func testUsage(t *testing.T, us storage.UsageStore) {
	ctx := context.Background()

	_, err := us.GetDailyUsage(ctx, "2024-03-10", "Work")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, us.SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-10", Category: "Work", TotalSeconds: 600}))
	require.NoError(t, us.SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-10", Category: "Games", TotalSeconds: 900}))
	require.NoError(t, us.SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-11", Category: "Work", TotalSeconds: 60}))

	// Absolute values: writing the same total twice does not double it
	require.NoError(t, us.SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-10", Category: "Work", TotalSeconds: 1200}))
	require.NoError(t, us.SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-10", Category: "Work", TotalSeconds: 1200}))

	got, err := us.GetDailyUsage(ctx, "2024-03-10", "Work")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.TotalSeconds)

	list, err := us.ListDailyUsage(ctx, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Work", list[0].Category)
	assert.Equal(t, "Games", list[1].Category)

	none, err := us.ListDailyUsage(ctx, "2023-01-01")
	require.NoError(t, err)
	assert.Empty(t, none)
}
