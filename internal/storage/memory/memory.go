// Package memory implements storage.Store in process memory. Records are lost
// when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/goodtune/awnotify/internal/storage"
)

// Store implements the storage.Store interface in memory
type Store struct {
	mu            sync.RWMutex
	notifications map[string]map[string]storage.NotificationRecord // date -> key -> record
	usage         map[string]map[string]storage.DailyUsage         // date -> category -> usage
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		notifications: make(map[string]map[string]storage.NotificationRecord),
		usage:         make(map[string]map[string]storage.DailyUsage),
	}
}

// Close is a no-op
func (s *Store) Close() error { return nil }

// Notifications returns the NotificationStore implementation
func (s *Store) Notifications() storage.NotificationStore { return (*notificationStore)(s) }

// Usage returns the UsageStore implementation
func (s *Store) Usage() storage.UsageStore { return (*usageStore)(s) }

type notificationStore Store

func (s *notificationStore) Record(ctx context.Context, rec storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.notifications[rec.Date]
	if !ok {
		day = make(map[string]storage.NotificationRecord)
		s.notifications[rec.Date] = day
	}
	day[rec.Key] = rec
	return nil
}

func (s *notificationStore) Get(ctx context.Context, date, key string) (*storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.notifications[date][key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (s *notificationStore) List(ctx context.Context, date string) ([]storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]storage.NotificationRecord, 0, len(s.notifications[date]))
	for _, rec := range s.notifications[date] {
		recs = append(recs, rec)
	}
	storage.SortNotifications(recs)
	return recs, nil
}

type usageStore Store

func (s *usageStore) SetDailyUsage(ctx context.Context, u storage.DailyUsage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.usage[u.Date]
	if !ok {
		day = make(map[string]storage.DailyUsage)
		s.usage[u.Date] = day
	}
	day[u.Category] = u
	return nil
}

func (s *usageStore) GetDailyUsage(ctx context.Context, date, category string) (*storage.DailyUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usage[date][category]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *usageStore) ListDailyUsage(ctx context.Context, date string) ([]storage.DailyUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	usages := make([]storage.DailyUsage, 0, len(s.usage[date]))
	for _, u := range s.usage[date] {
		usages = append(usages, u)
	}
	storage.SortUsage(usages)
	return usages, nil
}
