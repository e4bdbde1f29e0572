package corpus

import (
	"strings"
	"time"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

// Snapshot is an immutable, versioned copy of the corpus. Records keep the
// upstream fetch order, which is the tie-break for pagination.
type Snapshot struct {
	records     []model.Message
	keys        []SearchKey
	version     uint64
	fetchedAt   time.Time
	uniqueUsers int
}

// NewSnapshot copies records into a new Snapshot. The caller's slice may be
// reused afterwards.
func NewSnapshot(records []model.Message, version uint64, fetchedAt time.Time) *Snapshot {
	owned := make([]model.Message, len(records))
	copy(owned, records)

	keys := make([]SearchKey, len(owned))
	users := make(map[string]struct{}, len(owned))
	for i, r := range owned {
		keys[i] = SearchKey{
			Message:  strings.ToLower(r.Message),
			UserName: strings.ToLower(r.UserName),
			UserID:   strings.ToLower(r.UserID),
		}
		users[r.UserID] = struct{}{}
	}

	return &Snapshot{
		records:     owned,
		keys:        keys,
		version:     version,
		fetchedAt:   fetchedAt,
		uniqueUsers: len(users),
	}
}

// SearchKey holds the lower-cased searchable fields of one record.
type SearchKey struct {
	Message  string
	UserName string
	UserID   string
}

// Contains reports whether folded is a substring of any field.
func (k SearchKey) Contains(folded string) bool {
	return strings.Contains(k.Message, folded) ||
		strings.Contains(k.UserName, folded) ||
		strings.Contains(k.UserID, folded)
}

// Records returns the snapshot's records. The slice must not be modified.
func (s *Snapshot) Records() []model.Message { return s.records }

// SearchKeys returns the folded fields, index-aligned with Records.
func (s *Snapshot) SearchKeys() []SearchKey { return s.keys }

// Len returns the record count.
func (s *Snapshot) Len() int { return len(s.records) }

// Version returns the version assigned at construction.
func (s *Snapshot) Version() uint64 { return s.version }

// FetchedAt returns the completion time of the fetch that produced the snapshot.
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// UniqueUsers returns the number of distinct user ids.
func (s *Snapshot) UniqueUsers() int { return s.uniqueUsers }
