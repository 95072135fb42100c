package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/projector"
	"github.com/dennisdiepolder/monti/feedback/internal/storage"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/rs/zerolog"
)

// DefaultWriteRetries is how often a conflicting write is retried
const DefaultWriteRetries = 3

// MonthWriter replaces one month of an operator record. Writers for the same
// operator are serialized in-process; the repository's version check guards
// against other processes.
type MonthWriter struct {
	repo    storage.Repository
	retries int
	locks   *keyLocks
	now     func() time.Time
	logger  zerolog.Logger
}

// NewMonthWriter creates a new MonthWriter
func NewMonthWriter(repo storage.Repository, retries int, logger zerolog.Logger) *MonthWriter {
	if retries < 0 {
		retries = 0
	}
	return &MonthWriter{
		repo:    repo,
		retries: retries,
		locks:   newKeyLocks(),
		now:     time.Now,
		logger:  logger.With().Str("component", "month_writer").Logger(),
	}
}

// WriteMonth stores metrics as month of the operator, creating the record
// if needed, and returns the record as written
func (w *MonthWriter) WriteMonth(ctx context.Context, email, displayName string, month types.Month, m *types.MonthlyMetrics) (*types.OperatorRecord, error) {
	if !month.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownMonth, month)
	}
	key := types.NormalizeEmail(email)
	if key == "" {
		return nil, storage.ErrInvalidRecord
	}

	unlock := w.locks.lock(key)
	defer unlock()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := w.attempt(ctx, key, displayName, month, m)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, storage.ErrConflict) || attempt >= w.retries {
			return nil, err
		}
		w.logger.Debug().
			Err(err).
			Str("email", key).
			Int("attempt", attempt+1).
			Msg("write conflict, retrying")
	}
}

func (w *MonthWriter) attempt(ctx context.Context, key, displayName string, month types.Month, m *types.MonthlyMetrics) (*types.OperatorRecord, error) {
	current, err := w.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var next *types.OperatorRecord
	var expected time.Time
	if current == nil {
		next = types.NewOperatorRecord(key, displayName)
	} else {
		next = current.Clone()
		expected = current.LastUpdatedAt
		if displayName != "" {
			next.DisplayName = displayName
		}
	}

	next.Months[month] = m
	next.CurrentSnapshot, _ = projector.Project(next, "")
	if next.CurrentSnapshot == nil {
		next.CurrentSnapshot = m
	}
	next.LastUpdatedAt = w.nextVersion(expected)

	if err := w.repo.Put(ctx, next, expected); err != nil {
		return nil, err
	}
	metrics.Get().RecordMonthWritten()
	return next, nil
}

// nextVersion is the current time, moved past previous if the clock has
// not advanced beyond it
func (w *MonthWriter) nextVersion(previous time.Time) time.Time {
	now := w.now().UTC()
	if !now.After(previous) {
		now = previous.Add(time.Millisecond)
	}
	return now
}

// keyLocks hands out one mutex per key and forgets it once unused
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[string]*keyLock)}
}

func (k *keyLocks) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
