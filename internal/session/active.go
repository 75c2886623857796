package session

import "sync"

// ActiveSet is the process-wide map marking which workers currently have an
// open shift. It is the single source of truth for both menu rendering and
// the check scheduler; only the start/finish transitions mutate it. Timer
// callbacks must read it at fire time rather than caching the flag.
type ActiveSet struct {
	mu     sync.RWMutex
	active map[int64]bool
}

func NewActiveSet() *ActiveSet {
	return &ActiveSet{active: make(map[int64]bool)}
}

func (a *ActiveSet) SetActive(workerID int64, on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if on {
		a.active[workerID] = true
	} else {
		delete(a.active, workerID)
	}
}

func (a *ActiveSet) IsActive(workerID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active[workerID]
}

// IDs returns the workers with an open shift.
func (a *ActiveSet) IDs() []int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]int64, 0, len(a.active))
	for id := range a.active {
		ids = append(ids, id)
	}
	return ids
}
