// Package mirror maintains one client's best-known view of a room's message
// log: locally pending sends layered over the authoritative log, with
// dedup against at-least-once push delivery.
package mirror

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"proofroom.app/engine/internal/model"
)

// Config makes the pending-to-canonical matching explicit instead of an
// implicit timing coincidence: a confirmed message replaces a pending one
// only when the identity fields match and their timestamps are within
// MatchWindow of each other.
type Config struct {
	MatchWindow time.Duration
}

const defaultMatchWindow = 30 * time.Second

// Store holds the merged view. All mutating calls are serialized internally;
// within one client there is no other concurrent mutation.
type Store struct {
	mu      sync.Mutex
	cfg     Config
	entries []model.Message // arrival order; Snapshot sorts by CreatedAt
	byID    map[string]int  // canonical id -> entries index
	byLocal map[string]int  // local id -> entries index, pending only
}

func New(cfg Config) *Store {
	if cfg.MatchWindow <= 0 {
		cfg.MatchWindow = defaultMatchWindow
	}
	return &Store{
		cfg:     cfg,
		byID:    make(map[string]int),
		byLocal: make(map[string]int),
	}
}

// InsertPending adds a locally created message before the network round-trip
// completes, assigning a local id when the caller did not. The returned copy
// carries the local id the caller needs for Confirm/Drop.
func (s *Store) InsertPending(msg model.Message) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.LocalID == "" {
		msg.LocalID = uuid.NewString()
	}
	msg.Pending = true
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	s.byLocal[msg.LocalID] = len(s.entries)
	s.entries = append(s.entries, msg)
	return msg
}

// MergeIncoming applies a message arriving from the log, via initial fetch,
// push delivery, or an append ack observed by another participant.
//
// Precedence: same canonical id overwrites in place (idempotent redelivery);
// otherwise a pending record with matching identity fields inside the match
// window is replaced by the confirmed copy; otherwise the message is new and
// appended. After any sequence of calls each logical message is visible
// exactly once.
func (s *Store) MergeIncoming(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID != "" {
		if idx, ok := s.byID[msg.ID]; ok {
			s.entries[idx] = msg
			return
		}
	}

	if idx, ok := s.matchPendingLocked(&msg); ok {
		s.replacePendingLocked(idx, msg)
		return
	}

	if msg.ID != "" {
		s.byID[msg.ID] = len(s.entries)
	}
	s.entries = append(s.entries, msg)
}

// ConfirmPending retires a pending record with its canonical replacement.
// The sending client calls this from the append ack, where the local id is
// known and no field-matching heuristic is needed.
func (s *Store) ConfirmPending(localID string, canonical model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byLocal[localID]
	if !ok {
		// The push channel may have delivered the confirmed copy first and
		// already retired the pending record; merge idempotently instead.
		if canonical.ID != "" {
			if i, seen := s.byID[canonical.ID]; seen {
				s.entries[i] = canonical
				return true
			}
		}
		return false
	}
	s.replacePendingLocked(idx, canonical)
	return true
}

// DropPending rolls back an optimistic insert whose send failed. The caller
// is responsible for surfacing the failure; the record is never silently
// kept as if sent.
func (s *Store) DropPending(localID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byLocal[localID]
	if !ok {
		return false
	}
	delete(s.byLocal, localID)
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.reindexLocked()
	return true
}

// MarkRead flips the read flag of every confirmed message for the given role.
func (s *Store) MarkRead(role model.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Pending {
			continue
		}
		if s.entries[i].ReadBy == nil {
			s.entries[i].ReadBy = make(map[model.Role]bool)
		}
		s.entries[i].ReadBy[role] = true
	}
}

// Reset replaces the store contents from a full refetch. Pending records are
// kept only if the fetched log does not already contain their confirmed copy.
func (s *Store) Reset(msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]model.Message, 0)
	for _, e := range s.entries {
		if e.Pending {
			pending = append(pending, e)
		}
	}

	s.entries = s.entries[:0]
	s.byID = make(map[string]int)
	s.byLocal = make(map[string]int)

	for _, m := range msgs {
		if m.ID != "" {
			if _, ok := s.byID[m.ID]; ok {
				continue
			}
			s.byID[m.ID] = len(s.entries)
		}
		s.entries = append(s.entries, m)
	}

	for _, p := range pending {
		if _, ok := s.matchPendingTargetLocked(&p); ok {
			continue
		}
		s.byLocal[p.LocalID] = len(s.entries)
		s.entries = append(s.entries, p)
	}
}

// Snapshot returns a copy of the current view ordered by CreatedAt, with
// arrival order breaking ties.
func (s *Store) Snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.entries))
	copy(out, s.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// matchPendingLocked finds a pending record the incoming confirmed message
// plausibly corresponds to.
func (s *Store) matchPendingLocked(msg *model.Message) (int, bool) {
	if msg.Pending {
		return 0, false
	}
	// Scan in arrival order so the oldest matching pending record wins when
	// two identical sends race inside the window.
	for idx, e := range s.entries {
		if !e.Pending || !e.SameLogical(msg) {
			continue
		}
		if absDuration(msg.CreatedAt.Sub(e.CreatedAt)) > s.cfg.MatchWindow {
			continue
		}
		return idx, true
	}
	return 0, false
}

// matchPendingTargetLocked is matchPendingLocked inverted: does the already
// stored set contain a confirmed copy of this pending record.
func (s *Store) matchPendingTargetLocked(pending *model.Message) (int, bool) {
	for i := range s.entries {
		e := s.entries[i]
		if e.Pending || !pending.SameLogical(&e) {
			continue
		}
		if absDuration(e.CreatedAt.Sub(pending.CreatedAt)) <= s.cfg.MatchWindow {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) replacePendingLocked(idx int, canonical model.Message) {
	prev := s.entries[idx]
	delete(s.byLocal, prev.LocalID)
	// Keep the local id so callers holding it can still correlate.
	canonical.LocalID = prev.LocalID
	canonical.Pending = false
	s.entries[idx] = canonical
	if canonical.ID != "" {
		s.byID[canonical.ID] = idx
	}
}

func (s *Store) reindexLocked() {
	for id := range s.byID {
		delete(s.byID, id)
	}
	for id := range s.byLocal {
		delete(s.byLocal, id)
	}
	for i, e := range s.entries {
		if e.Pending {
			s.byLocal[e.LocalID] = i
		} else if e.ID != "" {
			s.byID[e.ID] = i
		}
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
