package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	storagetest.Run(t, store)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = store.Usage().SetDailyUsage(context.Background(), storage.DailyUsage{
		Date: "2024-03-10", Category: "Work", TotalSeconds: 300,
	})
	if err != nil {
		t.Fatalf("set daily usage: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = store.Close() }()

	usage, err := store.Usage().GetDailyUsage(context.Background(), "2024-03-10", "Work")
	if err != nil {
		t.Fatalf("get daily usage: %v", err)
	}
	if usage.TotalSeconds != 300 {
		t.Fatalf("expected total seconds 300, got %d", usage.TotalSeconds)
	}
}

func TestListDay_PrefixIsolation(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	for _, date := range []string{"2024-03-1", "2024-03-10", "2024-03-11"} {
		if err := store.Usage().SetDailyUsage(ctx, storage.DailyUsage{Date: date, Category: "Work", TotalSeconds: 1}); err != nil {
			t.Fatalf("set daily usage: %v", err)
		}
	}

	usages, err := store.Usage().ListDailyUsage(ctx, "2024-03-1")
	if err != nil {
		t.Fatalf("list daily usage: %v", err)
	}
	if len(usages) != 1 || usages[0].Date != "2024-03-1" {
		t.Fatalf("expected a single entry for 2024-03-1, got %+v", usages)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
