// Package corpus holds the in-memory message corpus. Readers load the current
// snapshot with a single atomic read; the refresher replaces it wholesale.
package corpus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a consistent view of the corpus and refresh health.
type Stats struct {
	Ready               bool       `json:"ready"`
	RecordCount         int        `json:"record_count"`
	UniqueUsers         int        `json:"unique_users"`
	Version             uint64     `json:"version"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
	LastFailureAt       *time.Time `json:"last_failure_at"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastError           string     `json:"last_error,omitempty"`
}

// AgeAt returns how old the snapshot described by s is at now. ok is false
// when no snapshot is installed. It uses only fields of s, so it agrees with
// RecordCount and Version.
func (s Stats) AgeAt(now time.Time) (age time.Duration, ok bool) {
	if !s.Ready || s.LastSuccessAt == nil {
		return 0, false
	}
	return now.Sub(*s.LastSuccessAt), true
}

// FreshAt is Fresh evaluated against s.
func (s Stats) FreshAt(now time.Time, ttl time.Duration) bool {
	age, ok := s.AgeAt(now)
	if !ok {
		return false
	}
	return ttl <= 0 || age < ttl
}

// Store owns the current snapshot and the refresh health counters.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	// mu serializes installers and guards the health counters.
	mu                  sync.Mutex
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	consecutiveFailures int
	lastError           string

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets a custom clock (for testing).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore returns an empty store. Current is nil until the first Install.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns the snapshot in effect, or nil if none was installed yet.
func (s *Store) Current() *Snapshot { return s.current.Load() }

// Ready reports whether at least one snapshot was installed.
func (s *Store) Ready() bool { return s.current.Load() != nil }

// NextVersion returns the next snapshot version. Versions start at 1.
func (s *Store) NextVersion() uint64 { return s.version.Add(1) }

// Install publishes snap as the current snapshot and records a successful
// refresh. Readers holding the previous snapshot are unaffected.
func (s *Store) Install(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Store(snap)
	s.lastSuccessAt = snap.FetchedAt()
	if s.lastSuccessAt.IsZero() {
		s.lastSuccessAt = s.now()
	}
	s.consecutiveFailures = 0
	s.lastError = ""
}

// RecordFailure counts a failed refresh. The current snapshot is left as is.
func (s *Store) RecordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures++
	s.lastFailureAt = s.now()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = "unknown error"
	}
}

// Stats returns the corpus statistics and refresh counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Installs hold mu, so this read matches lastSuccessAt.
	snap := s.current.Load()

	st := Stats{
		ConsecutiveFailures: s.consecutiveFailures,
		LastError:           s.lastError,
		LastSuccessAt:       timePtr(s.lastSuccessAt),
		LastFailureAt:       timePtr(s.lastFailureAt),
	}
	if snap != nil {
		st.Ready = true
		st.RecordCount = snap.Len()
		st.UniqueUsers = snap.UniqueUsers()
		st.Version = snap.Version()
	}
	return st
}

// Age returns how long ago the current snapshot was fetched. ok is false
// when no snapshot is installed.
func (s *Store) Age() (age time.Duration, ok bool) {
	snap := s.current.Load()
	if snap == nil {
		return 0, false
	}
	return s.now().Sub(snap.FetchedAt()), true
}

// Fresh reports whether a snapshot is installed and younger than ttl.
// A non-positive ttl disables the age check.
func (s *Store) Fresh(ttl time.Duration) bool {
	age, ok := s.Age()
	if !ok {
		return false
	}
	return ttl <= 0 || age < ttl
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
