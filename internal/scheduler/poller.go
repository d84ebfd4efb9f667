// Package scheduler runs the poll loop: fetch new activity, accumulate it,
// fire threshold and end-of-day notifications, and persist daily totals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/goodtune/awnotify/internal/activity"
	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/metrics"
	"github.com/goodtune/awnotify/internal/storage"
	"github.com/goodtune/awnotify/internal/systemd"
	"github.com/goodtune/awnotify/internal/usage"
)

const (
	// DefaultInterval is the time between two polls
	DefaultInterval = time.Minute

	// DefaultFetchTimeout bounds a single fetch from the activity source
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBackoff caps the retry delay while the source is down
	DefaultMaxBackoff = 10 * time.Minute
)

// Config holds poll loop settings
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	MaxBackoff   time.Duration
	DayStart     usage.TimeOfDay
	Cutoff       usage.TimeOfDay
	TopN         int
}

// Dispatcher delivers triggers to the user
type Dispatcher interface {
	Dispatch(ctx context.Context, tr usage.Trigger) error
}

// Poller owns the daily usage state. It is not safe for concurrent use; Run
// drives it from a single goroutine.
type Poller struct {
	cfg        Config
	source     activity.Source
	classifier usage.Classifier
	thresholds usage.Thresholds
	dispatcher Dispatcher
	store      storage.Store
	clock      usage.Clock
	logger     zerolog.Logger

	state     usage.State
	cursor    time.Time // end of the latest event seen today
	started   bool
	persisted map[string]int64 // category -> seconds last written
}

// New creates a poller
func New(
	cfg Config,
	source activity.Source,
	classifier usage.Classifier,
	thresholds usage.Thresholds,
	dispatcher Dispatcher,
	store storage.Store,
	logger zerolog.Logger,
) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.TopN <= 0 {
		cfg.TopN = usage.DefaultTopN
	}

	return &Poller{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		thresholds: thresholds,
		dispatcher: dispatcher,
		store:      store,
		clock:      usage.RealClock{},
		logger:     logger.With().Str("component", "poller").Logger(),
		persisted:  make(map[string]int64),
	}
}

// SetClock replaces the time source, for tests
func (p *Poller) SetClock(clock usage.Clock) {
	p.clock = clock
}

// State returns a copy of the current daily state
func (p *Poller) State() usage.State {
	return p.state.Clone()
}

// Run polls until ctx is canceled. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = p.cfg.Interval
	retry.MaxInterval = p.cfg.MaxBackoff
	retry.MaxElapsedTime = 0 // retry forever
	retry.Reset()

	p.logger.Info().
		Dur("interval", p.cfg.Interval).
		Str("day_start", p.cfg.DayStart.String()).
		Str("cutoff", p.cfg.Cutoff.String()).
		Msg("Poller started")

	for {
		err := p.Poll(ctx)
		if ctx.Err() != nil {
			p.logger.Info().Msg("Poller stopped")
			return nil
		}

		if systemd.IsSystemdService() {
			if werr := systemd.NotifyWatchdog(); werr != nil {
				p.logger.Debug().Err(werr).Msg("Failed to notify watchdog")
			}
		}

		wait := p.cfg.Interval
		if err != nil {
			wait = retry.NextBackOff()
			p.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Poll failed")
		} else {
			retry.Reset()
		}

		now := p.clock.Now()
		if untilNextDay := usage.NextDayStart(now, p.cfg.DayStart).Sub(now); untilNextDay < wait {
			wait = untilNextDay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info().Msg("Poller stopped")
			return nil
		case <-timer.C:
		}
	}
}

// Poll runs one cycle. It returns an error wrapping
// activity.ErrSourceUnavailable when nothing could be fetched; the state is
// then left unchanged. Notification and storage failures are logged only.
func (p *Poller) Poll(ctx context.Context) error {
	start := time.Now()
	now := p.clock.Now()

	err := p.rollover(ctx, now)
	if err == nil && now.After(p.cursor) {
		err = p.fetch(ctx, now)
	}
	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()
		metrics.SourceErrors.Inc()
		return err
	}

	next, triggers := usage.CheckThresholds(p.state, p.thresholds)
	p.state = next
	for _, tr := range triggers {
		p.dispatch(ctx, tr, now)
	}

	if usage.CutoffReached(p.state, now, p.cfg.Cutoff) {
		next, tr := usage.MarkSummaryFired(p.state, p.cfg.TopN)
		p.state = next
		p.dispatch(ctx, tr, now)
	}

	p.persist(ctx)
	p.observe()

	metrics.PollsTotal.WithLabelValues("ok").Inc()
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	return nil
}

// Checkin fetches today's activity into a fresh state and sends a summary
// right away. The loop's state is not touched.
func (p *Poller) Checkin(ctx context.Context) (usage.Summary, error) {
	now := p.clock.Now()
	day := usage.DayStart(now, p.cfg.DayStart)

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	events, err := p.source.Fetch(fetchCtx, day, now)
	if err != nil {
		return usage.Summary{}, fmt.Errorf("failed to fetch activity: %w", err)
	}

	state := usage.Accumulate(usage.NewState(day), p.classifier, events)
	tr := usage.SummaryTrigger(state, p.cfg.TopN)

	if err := p.dispatcher.Dispatch(ctx, tr); err != nil {
		return *tr.Summary, err
	}
	return *tr.Summary, nil
}

// rollover starts a new day when the day boundary has passed, and seeds
// fired flags from notifications already sent that day. The previous day is
// first fetched up to its end and persisted; if that fetch fails the old day
// is kept and the rollover is retried on the next poll.
func (p *Poller) rollover(ctx context.Context, now time.Time) error {
	day := usage.DayStart(now, p.cfg.DayStart)
	if p.started && p.state.Day.Equal(day) {
		return nil
	}

	if p.started && day.After(p.state.Day) {
		end := usage.NextDayStart(p.state.Day, p.cfg.DayStart)
		if end.After(p.cursor) {
			if err := p.fetch(ctx, end); err != nil {
				return err
			}
			p.persist(ctx)
		}
	}

	if p.started {
		p.logger.Info().
			Time("previous", p.state.Day).
			Time("day", day).
			Msg("New day, resetting usage")
	}

	p.state = usage.NewState(day)
	p.cursor = day
	p.started = true
	clear(p.persisted)
	metrics.CategorySeconds.Reset()

	p.seed(ctx)
	return nil
}

func (p *Poller) seed(ctx context.Context) {
	date := usage.DayKey(p.state.Day)

	recs, err := p.store.Notifications().List(ctx, date)
	if err != nil {
		p.logger.Error().Err(err).Str("date", date).Msg("Failed to load sent notifications")
		return
	}

	for _, rec := range recs {
		switch usage.TriggerKind(rec.Kind) {
		case usage.KindThreshold:
			p.state.Fired[usage.ThresholdKey{Category: rec.Category, Threshold: rec.Threshold}] = true
		case usage.KindSummary:
			p.state.SummaryFired = true
		}
	}

	if len(recs) > 0 {
		p.logger.Info().
			Str("date", date).
			Int("notifications", len(recs)).
			Msg("Restored notifications already sent today")
	}
}

// fetch accumulates the events in [cursor, until) and moves the cursor to the
// end of the latest one. Events still growing through heartbeats end before
// until, so the cursor stays behind them and their next slice is not lost.
func (p *Poller) fetch(ctx context.Context, until time.Time) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	since := p.cursor
	events, err := p.source.Fetch(fetchCtx, since, until)
	if err != nil {
		if !errors.Is(err, activity.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %v", activity.ErrSourceUnavailable, err)
		}
		return fmt.Errorf("failed to fetch activity: %w", err)
	}

	var count int
	latest := since
	clipped := func(yield func(activity.Event) bool) {
		for raw := range events {
			ev, ok := activity.Clip(raw, since, until)
			if !ok {
				continue
			}
			count++
			if end := ev.End(); end.After(latest) {
				latest = end
			}
			if !yield(ev) {
				return
			}
		}
	}

	p.state = usage.Accumulate(p.state, p.classifier, clipped)
	p.cursor = latest

	metrics.EventsProcessed.Add(float64(count))

	p.logger.Debug().
		Int("events", count).
		Dur("tracked", p.state.Tracked).
		Msg("Activity accumulated")

	return nil
}

func (p *Poller) dispatch(ctx context.Context, tr usage.Trigger, now time.Time) {
	if err := p.dispatcher.Dispatch(ctx, tr); err != nil {
		p.logger.Error().
			Err(err).
			Str("kind", string(tr.Kind)).
			Str("category", tr.Category).
			Msg("Failed to deliver notification")
		return
	}

	p.logger.Info().
		Str("kind", string(tr.Kind)).
		Str("category", tr.Category).
		Dur("threshold", tr.Threshold).
		Dur("total", tr.Total).
		Msg("Notification sent")

	rec := storage.NotificationRecord{
		Key:       storage.NotificationKey(string(tr.Kind), tr.Category, tr.Threshold),
		Kind:      string(tr.Kind),
		Category:  tr.Category,
		Threshold: tr.Threshold,
		Date:      usage.DayKey(p.state.Day),
		SentAt:    now,
	}
	if err := p.store.Notifications().Record(ctx, rec); err != nil {
		p.logger.Error().Err(err).Str("key", rec.Key).Msg("Failed to record notification")
	}
}

// persist writes changed daily totals
func (p *Poller) persist(ctx context.Context) {
	date := usage.DayKey(p.state.Day)

	totals := make(map[string]time.Duration, len(p.state.Totals)+2)
	for name, d := range p.state.Totals {
		totals[name] = d
	}
	totals[category.Uncategorized] = p.state.Uncategorized
	totals[category.TotalCategory] = p.state.Tracked

	for name, d := range totals {
		seconds := int64(d / time.Second)
		if last, ok := p.persisted[name]; ok && last == seconds {
			continue
		}

		err := p.store.Usage().SetDailyUsage(ctx, storage.DailyUsage{
			Date:         date,
			Category:     name,
			TotalSeconds: seconds,
		})
		if err != nil {
			p.logger.Error().Err(err).Str("category", name).Msg("Failed to persist daily usage")
			continue
		}
		p.persisted[name] = seconds
	}
}

func (p *Poller) observe() {
	for name, d := range p.state.Totals {
		metrics.CategorySeconds.WithLabelValues(name).Set(d.Seconds())
	}
	metrics.CategorySeconds.WithLabelValues(category.Uncategorized).Set(p.state.Uncategorized.Seconds())
	metrics.CategorySeconds.WithLabelValues(category.TotalCategory).Set(p.state.Tracked.Seconds())
}
