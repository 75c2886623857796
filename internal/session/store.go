package session

import (
	"sync"

	"shiftbot-backend/internal/models"
)

// Store holds one ShiftSession per worker. The store lock only protects the
// map; per-worker state is protected by the session's own mutex, so events
// for different workers never contend.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*models.ShiftSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*models.ShiftSession)}
}

// Get returns the worker's session if one exists.
func (s *Store) Get(workerID int64) (*models.ShiftSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[workerID]
	return sess, ok
}

// GetOrCreate returns the worker's session, creating an idle one on first
// contact. There is exactly one session per worker at any time.
func (s *Store) GetOrCreate(workerID int64) *models.ShiftSession {
	s.mu.RLock()
	sess, ok := s.sessions[workerID]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[workerID]; ok {
		return sess
	}
	sess = &models.ShiftSession{WorkerID: workerID, Stage: models.StageIdle}
	s.sessions[workerID] = sess
	return sess
}

// Snapshot returns the current sessions. Used by the manager API; callers
// must lock each session before reading its fields.
func (s *Store) Snapshot() []*models.ShiftSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ShiftSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
