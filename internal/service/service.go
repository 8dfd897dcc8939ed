// Package service is the write path of the engine. It loads snapshots from a
// storage.Provider, asks the scheduler and reconciler for a changeset, commits
// it atomically and then tells the registered hooks what changed.
//
// Writes are serialized per medication. Operations that span every
// medication (bootstrap, log reconciliation) take a global write lock instead.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/dosekeep/internal/errors"
	"github.com/julianstephens/dosekeep/internal/logger"
	"github.com/julianstephens/dosekeep/internal/models"
	"github.com/julianstephens/dosekeep/internal/scheduler"
	"github.com/julianstephens/dosekeep/internal/storage"
	"github.com/julianstephens/dosekeep/internal/utils"
)

// Bounds for log history reads. Day-keys sort lexically.
const (
	firstDay = "0000-01-01"
	lastDay  = "9999-12-31"
)

type Service struct {
	store storage.Provider
	sched *scheduler.Scheduler
	clock utils.Clock
	hooks []Hook

	global   sync.RWMutex
	medMu    sync.Mutex
	medLocks map[string]*sync.Mutex
}

type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(c utils.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithScheduler replaces the default scheduler. Its Now is always bound to
// the service clock.
func WithScheduler(sched *scheduler.Scheduler) Option {
	return func(s *Service) { s.sched = sched }
}

// WithHook registers a post-commit hook.
func WithHook(h Hook) Option {
	return func(s *Service) { s.hooks = append(s.hooks, h) }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sched:    scheduler.New(),
		clock:    utils.SystemClock(),
		medLocks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched.Now = s.clock.Now
	return s
}

// Store exposes the underlying provider for read-only callers.
func (s *Service) Store() storage.Provider {
	return s.store
}

func (s *Service) lockMedication(id string) func() {
	s.global.RLock()

	s.medMu.Lock()
	l, ok := s.medLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.medLocks[id] = l
	}
	s.medMu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.global.RUnlock()
	}
}

func (s *Service) lockAll() func() {
	s.global.Lock()
	return s.global.Unlock
}

// apply runs plan, commits its changeset, releases the lock and only then
// fires hooks. On any error nothing has been committed.
func (s *Service) apply(ctx context.Context, op Op, medID string, unlock func(), plan func() (storage.Changeset, error)) (storage.Changeset, error) {
	cs, err := plan()
	if err == nil && !cs.IsEmpty() {
		if cerr := s.store.Commit(ctx, cs); cerr != nil {
			err = errors.Storage(string(op), cerr)
		}
	}
	unlock()

	if err != nil {
		logger.Warn("Operation failed", "op", op, "medication_id", medID, "error", err)
		return storage.Changeset{}, err
	}
	if cs.IsEmpty() {
		logger.Debug("Nothing to commit", "op", op, "medication_id", medID)
		return cs, nil
	}

	logger.Debug("Committed changeset", append([]interface{}{"op", op, "medication_id", medID}, cs.Summary()...)...)
	s.fire(ctx, Event{Op: op, MedicationID: medID, Changeset: cs, At: s.clock.Now()})
	return cs, nil
}

// readErr wraps a read failure as retryable unless it is a plain not-found.
func readErr(op Op, err error) error {
	if err == nil || errors.Is(err, errors.ErrNotFound) {
		return err
	}
	return errors.Storage(string(op), err)
}

// env is the per-call view of persisted settings.
type env struct {
	settings models.Settings
	loc      *time.Location
	today    time.Time
	now      time.Time
}

func (s *Service) env(op Op) (env, error) {
	settings, err := s.store.GetSettings()
	if err != nil {
		return env{}, errors.Storage(string(op), err)
	}
	models.ApplyDefaultSettings(&settings)

	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		logger.Warn("Invalid timezone in settings, falling back to local", "timezone", settings.Timezone, "error", err)
		loc = time.Local
	}

	now := s.clock.Now()
	return env{
		settings: settings,
		loc:      loc,
		today:    utils.Today(s.clock, loc),
		now:      now,
	}, nil
}

func (s *Service) schedulerFor(e env) *scheduler.Scheduler {
	sched := *s.sched
	sched.DefaultTimeOfDay = e.settings.DefaultTimeOfDay
	return &sched
}

func (s *Service) snapshot(op Op, medID string) (scheduler.Snapshot, error) {
	med, err := s.store.GetMedication(medID)
	if err != nil {
		return scheduler.Snapshot{}, readErr(op, err)
	}
	occs, err := s.store.GetOccurrencesForMedication(medID)
	if err != nil {
		return scheduler.Snapshot{}, readErr(op, err)
	}
	logs, err := s.store.GetLogsForMedication(medID, firstDay, lastDay)
	if err != nil {
		return scheduler.Snapshot{}, readErr(op, err)
	}
	return scheduler.Snapshot{Medication: med, Occurrences: occs, Logs: logs}, nil
}

// Settings returns the persisted settings with defaults applied.
func (s *Service) Settings() (models.Settings, error) {
	e, err := s.env(OpSettings)
	if err != nil {
		return models.Settings{}, err
	}
	return e.settings, nil
}

// UpdateSettings validates and persists settings.
func (s *Service) UpdateSettings(settings models.Settings) error {
	if !utils.ValidateTimezone(settings.Timezone) {
		return errors.New("invalid timezone: " + settings.Timezone)
	}
	if !utils.ValidateTimeFormat(settings.DefaultTimeOfDay) {
		return errors.New("invalid default time of day (expected HH:MM): " + settings.DefaultTimeOfDay)
	}
	if settings.HorizonDays < 1 || settings.LookbackDays < 1 {
		return errors.New("horizon and lookback days must be at least 1")
	}

	unlock := s.lockAll()
	defer unlock()
	if err := s.store.SaveSettings(settings); err != nil {
		return errors.Storage(string(OpSettings), err)
	}
	return nil
}

// Today returns the current day in the settings timezone.
func (s *Service) Today() (time.Time, error) {
	e, err := s.env(OpSettings)
	if err != nil {
		return time.Time{}, err
	}
	return e.today, nil
}
