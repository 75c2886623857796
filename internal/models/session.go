package models

import (
	"sync"
	"time"
)

// Stage identifies where a worker currently is in the shift conversation.
type Stage string

const (
	StageIdle                 Stage = "idle"
	StageRegPhone             Stage = "reg_phone"
	StageRegName              Stage = "reg_name"
	StageAwaitingDriving      Stage = "awaiting_driving_choice"
	StageAwaitingStartMileage Stage = "awaiting_start_mileage"
	StageAwaitingCarChoice    Stage = "awaiting_car_choice"
	StageAwaitingStartLoc     Stage = "awaiting_start_location"
	StageActive               Stage = "active"
	StageAwaitingFinishLoc    Stage = "awaiting_finish_location"
	StageAwaitingFinishMile   Stage = "awaiting_finish_mileage"
)

// NotApplicable is the worksheet value for fields of a shift without a vehicle.
const NotApplicable = "-"

// MenuState says which main-menu button a worker should currently see.
type MenuState string

const (
	MenuCanStart       MenuState = "can_start"
	MenuInProgressOnly MenuState = "in_progress_only"
	MenuCanFinish      MenuState = "can_finish"
)

// ShiftSession is the per-worker conversation and shift state. All reads and
// writes go through Lock/Unlock; timer callbacks and conversation events for
// the same worker may otherwise interleave.
type ShiftSession struct {
	mu sync.Mutex

	WorkerID int64
	Stage    Stage

	// pending registration input
	PendingPhone string

	DrivingToday bool
	Vehicle      string
	StartMileage string

	StartTime   time.Time
	StartCoords *Coordinates
	// ShiftStart is the instant the start location was accepted, captured in
	// the fixed shift timezone. Elapsed-time gates (1h menu, 5m grace, 3h/6h
	// checks) are all computed from it.
	ShiftStart time.Time

	// LedgerRow is the header row of this worker's block in the month
	// worksheet. Zero means no row has been resolved yet.
	LedgerRow         int64
	IntermediateCount int

	FinishCoords *Coordinates
	// Finishing guards the explicit finish flow: while set, unsolicited
	// location reports are ignored.
	Finishing bool

	// CheckTimers holds the outstanding 3h/6h check timers, nil once
	// disarmed.
	CheckTimers []*time.Timer
}

func (s *ShiftSession) Lock()   { s.mu.Lock() }
func (s *ShiftSession) Unlock() { s.mu.Unlock() }

// ClearTransient resets everything except the worker identity. Used by
// /cancel and by the corrupted-session recovery path.
func (s *ShiftSession) ClearTransient() {
	s.Stage = StageIdle
	s.PendingPhone = ""
	s.DrivingToday = false
	s.Vehicle = ""
	s.StartMileage = ""
	s.StartTime = time.Time{}
	s.StartCoords = nil
	s.ShiftStart = time.Time{}
	s.LedgerRow = 0
	s.IntermediateCount = 0
	s.FinishCoords = nil
	s.Finishing = false
	s.CheckTimers = nil
}

// Elapsed returns how long the shift has been running at the given instant.
func (s *ShiftSession) Elapsed(now time.Time) time.Duration {
	if s.ShiftStart.IsZero() {
		return 0
	}
	return now.Sub(s.ShiftStart)
}
