package registry

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"shiftbot-backend/internal/models"
)

var (
	// ErrAlreadyRegistered is a normal outcome, not a failure: the caller
	// re-shows the menu instead of surfacing an error.
	ErrAlreadyRegistered = errors.New("worker already registered")
	ErrInvalidPhone      = errors.New("invalid phone number")
	ErrNotFound          = errors.New("worker not found")
)

// Persistence is the durable backing of the registry.
type Persistence interface {
	LoadAll() (map[int64]models.Worker, error)
	Append(models.Worker) error
}

// Registry holds the registered workers. All workers are loaded at startup;
// registrations append to storage before becoming visible, so a successful
// Register is durably visible to every subsequent Lookup.
type Registry struct {
	mu      sync.RWMutex
	workers map[int64]models.Worker
	store   Persistence
}

func New(store Persistence) (*Registry, error) {
	workers, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load workers: %w", err)
	}
	log.Printf("✅ Worker registry loaded: %d workers", len(workers))
	return &Registry{workers: workers, store: store}, nil
}

// Register adds a worker. Registering a known id is a no-op that returns the
// existing worker together with ErrAlreadyRegistered.
func (r *Registry) Register(id int64, phone, fullName string) (models.Worker, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return models.Worker{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.workers[id]; ok {
		return existing, ErrAlreadyRegistered
	}

	worker := models.Worker{ID: id, Phone: normalized, FullName: fullName}
	if err := r.store.Append(worker); err != nil {
		return models.Worker{}, fmt.Errorf("failed to persist worker %d: %w", id, err)
	}
	r.workers[id] = worker
	log.Printf("✅ Worker registered: %d (%s)", id, fullName)
	return worker, nil
}

// Lookup returns the worker for the given id.
func (r *Registry) Lookup(id int64) (models.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	worker, ok := r.workers[id]
	if !ok {
		return models.Worker{}, ErrNotFound
	}
	return worker, nil
}

// All returns every registered worker.
func (r *Registry) All() []models.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	return out
}
