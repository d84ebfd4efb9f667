// Package admin serves a read-only JSON view of the stored daily usage and
// notification history next to the metrics endpoint.
package admin

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/notify"
	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/usage"
)

// StatsViews handles statistics-related API requests.
type StatsViews struct {
	store    storage.Store
	dayStart usage.TimeOfDay
	clock    usage.Clock
	logger   zerolog.Logger
}

// NewStatsViews creates a new statistics views instance.
func NewStatsViews(store storage.Store, dayStart usage.TimeOfDay, logger zerolog.Logger) *StatsViews {
	return &StatsViews{
		store:    store,
		dayStart: dayStart,
		clock:    usage.RealClock{},
		logger:   logger.With().Str("handler", "stats").Logger(),
	}
}

// SetClock replaces the time source used to resolve "today"
func (v *StatsViews) SetClock(clock usage.Clock) {
	v.clock = clock
}

// DayReport is the usage of a single tracking day.
type DayReport struct {
	Date                 string             `json:"date"`
	TotalSeconds         int64              `json:"total_seconds"`
	UncategorizedSeconds int64              `json:"uncategorized_seconds"`
	Categories           []CategoryUsage    `json:"categories"`
	Notifications        []NotificationInfo `json:"notifications"`
}

// CategoryUsage is the time spent on one category.
type CategoryUsage struct {
	Name      string `json:"name"`
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}

// NotificationInfo is a notification that was delivered.
type NotificationInfo struct {
	Kind             string    `json:"kind"`
	Category         string    `json:"category,omitempty"`
	ThresholdSeconds int64     `json:"threshold_seconds,omitempty"`
	SentAt           time.Time `json:"sent_at"`
}

// RegisterHTTP adds the stats routes to r.
func (v *StatsViews) RegisterHTTP(r chi.Router) {
	r.Get("/api/v1/days/today", v.handleToday)
	r.Get("/api/v1/days/{date}", v.handleDay)
}

// Router returns a standalone router serving the stats routes.
func (v *StatsViews) Router() http.Handler {
	r := chi.NewRouter()
	v.RegisterHTTP(r)
	return r
}

func (v *StatsViews) handleToday(w http.ResponseWriter, r *http.Request) {
	date := usage.DayKey(usage.DayStart(v.clock.Now(), v.dayStart))
	v.writeDay(w, r, date)
}

func (v *StatsViews) handleDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(usage.DateFormat, date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	v.writeDay(w, r, date)
}

func (v *StatsViews) writeDay(w http.ResponseWriter, r *http.Request, date string) {
	report, err := v.dayReport(r, date)
	if err != nil {
		v.logger.Error().Err(err).Str("date", date).Msg("Failed to build day report")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		v.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func (v *StatsViews) dayReport(r *http.Request, date string) (DayReport, error) {
	ctx := r.Context()

	report := DayReport{
		Date:          date,
		Categories:    []CategoryUsage{},
		Notifications: []NotificationInfo{},
	}

	usages, err := v.store.Usage().ListDailyUsage(ctx, date)
	if err != nil {
		return report, err
	}

	for _, u := range usages {
		switch u.Category {
		case category.TotalCategory:
			report.TotalSeconds = u.TotalSeconds
		case category.Uncategorized:
			report.UncategorizedSeconds = u.TotalSeconds
		default:
			report.Categories = append(report.Categories, CategoryUsage{
				Name:      u.Category,
				Seconds:   u.TotalSeconds,
				Formatted: notify.FormatDuration(time.Duration(u.TotalSeconds) * time.Second),
			})
		}
	}

	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.Name < b.Name
	})

	recs, err := v.store.Notifications().List(ctx, date)
	if err != nil {
		return report, err
	}

	for _, rec := range recs {
		report.Notifications = append(report.Notifications, NotificationInfo{
			Kind:             rec.Kind,
			Category:         rec.Category,
			ThresholdSeconds: int64(rec.Threshold / time.Second),
			SentAt:           rec.SentAt,
		})
	}

	return report, nil
}
