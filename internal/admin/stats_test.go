package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/storage/memory"
	"github.com/goodtune/awnotify/internal/usage"
)

func seed(t *testing.T, store storage.Store, date string) {
	t.Helper()
	ctx := context.Background()

	for name, secs := range map[string]int64{
		"Work":                 7200,
		"Games":                1800,
		"Twitter":              1800,
		category.Uncategorized: 600,
		category.TotalCategory: 10800,
	} {
		require.NoError(t, store.Usage().SetDailyUsage(ctx, storage.DailyUsage{Date: date, Category: name, TotalSeconds: secs}))
	}

	require.NoError(t, store.Notifications().Record(ctx, storage.NotificationRecord{
		Key:       storage.NotificationKey("threshold", "Work", time.Hour),
		Kind:      "threshold",
		Category:  "Work",
		Threshold: time.Hour,
		Date:      date,
		SentAt:    time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
	}))
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, DayReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var report DayReport
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	}
	return rec, report
}

func TestStatsViews_Day(t *testing.T) {
	store := memory.New()
	seed(t, store, "2026-03-02")
	views := NewStatsViews(store, usage.TimeOfDay{}, zerolog.Nop())

	rec, report := get(t, views.Router(), "/api/v1/days/2026-03-02")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, int64(10800), report.TotalSeconds)
	assert.Equal(t, int64(600), report.UncategorizedSeconds)
	require.Len(t, report.Categories, 3)
	assert.Equal(t, "Work", report.Categories[0].Name)
	assert.Equal(t, "2h", report.Categories[0].Formatted)
	// Ties are ordered by name
	assert.Equal(t, "Games", report.Categories[1].Name)
	assert.Equal(t, "Twitter", report.Categories[2].Name)

	require.Len(t, report.Notifications, 1)
	assert.Equal(t, "Work", report.Notifications[0].Category)
	assert.Equal(t, int64(3600), report.Notifications[0].ThresholdSeconds)
}

func TestStatsViews_Today(t *testing.T) {
	store := memory.New()
	seed(t, store, "2026-03-02")
	views := NewStatsViews(store, usage.TimeOfDay{Hour: 4}, zerolog.Nop())

	// 02:00 belongs to the previous tracking day when the day starts at 04:00
	views.SetClock(&usage.TestClock{CurrentTime: time.Date(2026, 3, 3, 2, 0, 0, 0, time.Local)})

	rec, report := get(t, views.Router(), "/api/v1/days/today")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-02", report.Date)
	assert.Equal(t, int64(10800), report.TotalSeconds)
}

func TestStatsViews_EmptyDay(t *testing.T) {
	views := NewStatsViews(memory.New(), usage.TimeOfDay{}, zerolog.Nop())

	rec, report := get(t, views.Router(), "/api/v1/days/2026-01-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, report.Categories)
	assert.Empty(t, report.Notifications)
	assert.Contains(t, rec.Body.String(), `"categories":[]`)
}

func TestStatsViews_BadDate(t *testing.T) {
	views := NewStatsViews(memory.New(), usage.TimeOfDay{}, zerolog.Nop())

	rec, _ := get(t, views.Router(), "/api/v1/days/yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
