package memory

import (
	"context"
	"testing"

	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	store := New()
	defer func() { _ = store.Close() }()

	storagetest.Run(t, store)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New()
	if err := store.Usage().SetDailyUsage(ctx, storage.DailyUsage{Date: "2024-03-10", Category: "Work"}); err == nil {
		t.Error("SetDailyUsage with canceled context: error = nil")
	}
	if _, err := store.Notifications().List(ctx, "2024-03-10"); err == nil {
		t.Error("List with canceled context: error = nil")
	}
}
