// Package lockout maintains the per-account failed-login counter and the
// time-boxed lock that throttles credential guessing.
//
// Lock expiry is lazy: there is no background sweep, an expired lock is
// cleared by whichever call observes it next. Updates to an account's
// counter are serialized behind a per-account mutex so concurrent failures
// cannot under-count each other.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avolkova/discograph/internal/common"
)

const (
	// DefaultThreshold is the number of consecutive failures that locks
	// an account.
	DefaultThreshold = 5

	// DefaultDuration is the lockout window length.
	DefaultDuration = 15 * time.Minute
)

// Record is the pair of lockout fields on an account. The account entity
// itself is owned by the user-management system; this package only reads
// and writes these two fields.
type Record struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Store is the persistence boundary for lockout fields.
//
// FindLockoutFields returns common.ErrorNotFound for unknown accounts.
type Store interface {
	FindLockoutFields(ctx context.Context, accountID string) (*Record, error)
	UpdateLockoutFields(ctx context.Context, accountID string, rec *Record) error
}

// Status reports the lock decision for an account.
type Status struct {
	Locked    bool
	Remaining time.Duration
}

// LockedError carries the remaining lock time to the caller. It matches
// common.ErrAccountLocked under errors.Is.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for another %s", e.Remaining.Round(time.Second))
}

func (e *LockedError) Is(target error) bool {
	return target == common.ErrAccountLocked
}

// Tracker applies the lockout state machine on top of a Store.
//
// Unknown accounts fail open: every operation is a no-op reporting "not
// locked", so lockout responses cannot be used to probe which accounts
// exist.
type Tracker struct {
	store     Store
	threshold int
	duration  time.Duration
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker builds a Tracker with the fixed deployment constants
// (5 attempts, 15 minutes).
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store:     store,
		threshold: DefaultThreshold,
		duration:  DefaultDuration,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing updates for one account.
func (t *Tracker) accountLock(accountID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[accountID] = l
	}
	return l
}

// normalize clears a stale lock. It returns the normalized record and
// whether anything changed.
func normalize(rec *Record, now time.Time) (*Record, bool) {
	if rec.LockedUntil != nil && !now.Before(*rec.LockedUntil) {
		return &Record{}, true
	}
	return rec, false
}

// CheckLockout reports whether the account is currently locked and, if so,
// for how much longer. Observing a stale lock clears it as a side effect.
func (t *Tracker) CheckLockout(ctx context.Context, accountID string) (Status, error) {
	l := t.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	rec, err := t.store.FindLockoutFields(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}

	now := t.now()
	rec, changed := normalize(rec, now)
	if changed {
		if err := t.store.UpdateLockoutFields(ctx, accountID, rec); err != nil {
			return Status{}, err
		}
	}

	if rec.LockedUntil != nil {
		return Status{Locked: true, Remaining: rec.LockedUntil.Sub(now)}, nil
	}
	return Status{}, nil
}

// RecordFailure increments the failure counter. Reaching the threshold sets
// the lock; further failures while locked do not extend it.
func (t *Tracker) RecordFailure(ctx context.Context, accountID string) (Status, error) {
	l := t.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	rec, err := t.store.FindLockoutFields(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Status{}, nil
		}
		return Status{}, err
	}

	now := t.now()
	rec, _ = normalize(rec, now)

	rec.FailedAttempts++
	if rec.LockedUntil == nil && rec.FailedAttempts >= t.threshold {
		until := now.Add(t.duration)
		rec.LockedUntil = &until
	}

	if err := t.store.UpdateLockoutFields(ctx, accountID, rec); err != nil {
		return Status{}, err
	}

	if rec.LockedUntil != nil {
		return Status{Locked: true, Remaining: rec.LockedUntil.Sub(now)}, nil
	}
	return Status{}, nil
}

// RecordSuccess unconditionally zeroes the counter and clears the lock.
func (t *Tracker) RecordSuccess(ctx context.Context, accountID string) error {
	l := t.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	_, err := t.store.FindLockoutFields(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	return t.store.UpdateLockoutFields(ctx, accountID, &Record{})
}
