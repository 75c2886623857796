package registry

import (
	"errors"
	"testing"

	"shiftbot-backend/internal/models"
)

type memoryStore struct {
	workers   map[int64]models.Worker
	appendErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{workers: make(map[int64]models.Worker)}
}

func (m *memoryStore) LoadAll() (map[int64]models.Worker, error) {
	out := make(map[int64]models.Worker, len(m.workers))
	for id, w := range m.workers {
		out[id] = w
	}
	return out, nil
}

func (m *memoryStore) Append(w models.Worker) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.workers[w.ID] = w
	return nil
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+32481234567", "32481234567", false},
		{"+3248123456", "3248123456", false},
		{"0481234567", "0481234567", false},
		{" +32 481 234 567 ", "32481234567", false},
		{"0481 23 45 67", "0481234567", false},
		{"", "", true},
		{"abc", "", true},
		{"+3248123", "", true},
		{"+3248123456789", "", true},
		{"048123456", "", true},
		{"04812345678", "", true},
		{"+33481234567", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q) error = %v, want ErrInvalidPhone", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegisterAndLookup(t *testing.T) {
	reg, err := New(newMemoryStore())
	if err != nil {
		t.Fatal(err)
	}

	w, err := reg.Register(100, "+32481234567", "Иванов Иван")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if w.Phone != "32481234567" {
		t.Errorf("stored phone = %q, want normalized %q", w.Phone, "32481234567")
	}

	got, err := reg.Lookup(100)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != w {
		t.Errorf("Lookup = %+v, want %+v", got, w)
	}
}

func TestRegisterDuplicateReturnsExisting(t *testing.T) {
	reg, err := New(newMemoryStore())
	if err != nil {
		t.Fatal(err)
	}

	first, err := reg.Register(100, "0481234567", "Первый")
	if err != nil {
		t.Fatal(err)
	}

	second, err := reg.Register(100, "0499999999", "Другой")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("duplicate Register error = %v, want ErrAlreadyRegistered", err)
	}
	if second != first {
		t.Errorf("duplicate Register returned %+v, want original %+v", second, first)
	}

	got, _ := reg.Lookup(100)
	if got.FullName != "Первый" {
		t.Errorf("duplicate registration overwrote worker: %+v", got)
	}
}

func TestRegisterInvalidPhone(t *testing.T) {
	reg, err := New(newMemoryStore())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Register(100, "not a phone", "Иванов"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("Register error = %v, want ErrInvalidPhone", err)
	}
	if _, err := reg.Lookup(100); !errors.Is(err, ErrNotFound) {
		t.Errorf("worker registered despite invalid phone")
	}
}

func TestRegisterPersistFailureNotCached(t *testing.T) {
	store := newMemoryStore()
	reg, err := New(store)
	if err != nil {
		t.Fatal(err)
	}

	store.appendErr = errors.New("disk full")
	if _, err := reg.Register(100, "0481234567", "Иванов"); err == nil {
		t.Fatal("expected persist error")
	}
	if _, err := reg.Lookup(100); !errors.Is(err, ErrNotFound) {
		t.Errorf("worker cached despite persist failure")
	}

	store.appendErr = nil
	if _, err := reg.Register(100, "0481234567", "Иванов"); err != nil {
		t.Fatalf("retry after persist failure: %v", err)
	}
}

func TestLoadedWorkersVisible(t *testing.T) {
	store := newMemoryStore()
	store.workers[7] = models.Worker{ID: 7, Phone: "0481234567", FullName: "Существующий"}

	reg, err := New(store)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Lookup(7); err != nil {
		t.Errorf("pre-existing worker not loaded: %v", err)
	}
	if _, err := reg.Register(7, "0481234567", "Существующий"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("re-registering loaded worker: err = %v", err)
	}
}
