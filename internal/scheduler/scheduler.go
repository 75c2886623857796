package scheduler

import (
	"log"
	"time"

	"shiftbot-backend/internal/models"
)

// ActiveSet is the shared active-shift map the scheduler consults at fire
// time. Reading it then, instead of caching a flag when the timer was armed,
// is what makes cancellation safe when a finish races a firing check.
type ActiveSet interface {
	IsActive(workerID int64) bool
}

// SlotWriter records an intermediate location into the worksheet slot.
type SlotWriter interface {
	WriteIntermediate(headerRow int64, slot int, coords models.Coordinates) error
}

const maxIntermediate = 2

// Scheduler arms the delayed "are you still working" checks for active
// shifts and accepts the unsolicited location reports they produce. Timer
// callbacks run on their own goroutines and touch only the active-set and
// the notify hook, never conversation state.
type Scheduler struct {
	active ActiveSet
	ledger SlotWriter
	// notify asks the worker for a location; also fans out to the dashboard.
	notify func(workerID int64)

	offsets   []time.Duration
	grace     time.Duration
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

func New(active ActiveSet, ledger SlotWriter, notify func(workerID int64)) *Scheduler {
	return &Scheduler{
		active:    active,
		ledger:    ledger,
		notify:    notify,
		offsets:   []time.Duration{3 * time.Hour, 6 * time.Hour},
		grace:     5 * time.Minute,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Arm schedules the one-shot checks at the fixed offsets from the shift
// start and stores their handles on the session. Caller holds the session
// lock.
func (s *Scheduler) Arm(sess *models.ShiftSession) {
	workerID := sess.WorkerID
	timers := make([]*time.Timer, 0, len(s.offsets))
	for _, offset := range s.offsets {
		delay := offset - s.now().Sub(sess.ShiftStart)
		if delay < 0 {
			delay = 0
		}
		timers = append(timers, s.afterFunc(delay, func() {
			s.fire(workerID)
		}))
	}
	sess.CheckTimers = timers
}

// Disarm cancels any outstanding checks. Safe to call when nothing is armed
// or a timer already fired.
func (s *Scheduler) Disarm(sess *models.ShiftSession) {
	for _, t := range sess.CheckTimers {
		t.Stop()
	}
	sess.CheckTimers = nil
}

func (s *Scheduler) fire(workerID int64) {
	// The shift may have finished after this timer became unstoppable.
	if !s.active.IsActive(workerID) {
		return
	}
	log.Printf("⏰ Intermediate check fired for worker %d", workerID)
	s.notify(workerID)
}

// AcceptLocation handles an unsolicited location report during an active
// shift. The slot is chosen by arrival order, not by which timer fired: an
// early voluntary report still consumes a slot, so at most two intermediate
// points are ever recorded. Caller holds the session lock.
func (s *Scheduler) AcceptLocation(sess *models.ShiftSession, coords models.Coordinates) (bool, error) {
	if !s.active.IsActive(sess.WorkerID) || sess.Finishing {
		return false, nil
	}
	if sess.LedgerRow == 0 || sess.ShiftStart.IsZero() {
		return false, nil
	}
	if s.now().Sub(sess.ShiftStart) < s.grace {
		return false, nil
	}
	if sess.IntermediateCount >= maxIntermediate {
		return false, nil
	}

	slot := sess.IntermediateCount
	if err := s.ledger.WriteIntermediate(sess.LedgerRow, slot, coords); err != nil {
		return false, err
	}
	sess.IntermediateCount++
	log.Printf("📍 Intermediate location %d recorded for worker %d", sess.IntermediateCount, sess.WorkerID)
	return true, nil
}
