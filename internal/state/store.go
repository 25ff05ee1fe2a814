package state

import (
	"fmt"
	"sync"
	"time"
)

// SyncResult summarizes one completed exchange with the backend.
type SyncResult struct {
	Op       string // pull, push, login or mirror
	Merged   int    // records touched by the pull-merge
	Uploaded int    // local-only records that received a server id
	Pending  int    // records still lacking a server id afterwards
	Finished time.Time
}

// Snapshot is the sync state shown in the status bar.
type Snapshot struct {
	Last                SyncResult
	HasResult           bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	Notice              string
	NoticeAt            time.Time
}

// IsOffline returns true when the backend has failed several times in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent sync updates with UI reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of a sync operation. When err is non-nil the
// previous result is kept and the error is recorded for visibility.
func (s *Store) Update(result *SyncResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = now
		s.snapshot.ConsecutiveFailures++
		return
	}

	if result != nil {
		s.snapshot.Last = *result
		if s.snapshot.Last.Finished.IsZero() {
			s.snapshot.Last.Finished = now
		}
		s.snapshot.HasResult = true
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = now
	s.snapshot.ConsecutiveFailures = 0
}

// Notice records a transient message for the user, such as "saved locally,
// sync failed". An empty message clears it.
func (s *Store) Notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Notice = msg
	if msg == "" {
		s.snapshot.NoticeAt = time.Time{}
		return
	}
	s.snapshot.NoticeAt = time.Now()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
