package workflow

import (
	"errors"
	"time"

	"shiftbot-backend/internal/models"
)

// ErrBlockNotFound is returned by Ledger.FindOpenBlock when the worker has no
// block in the current month worksheet yet.
var ErrBlockNotFound = errors.New("worker block not found")

// StartRecord is what gets written into the day row when a shift starts.
type StartRecord struct {
	Vehicle      string
	StartMileage string
	StartTime    time.Time
	StartCoords  models.Coordinates
}

// FinishRecord is what gets written into the day row when a shift ends.
type FinishRecord struct {
	FinishTime    time.Time
	FinishCoords  models.Coordinates
	FinishMileage string
}

// Ledger persists shift data into the per-month worksheet. Rows are addressed
// by the block header row plus the day of month, resolved in the fixed shift
// timezone. The engine never touches column layout; that belongs to the
// implementation.
type Ledger interface {
	FindOpenBlock(phone string) (int64, error)
	CreateBlock(w models.Worker) (int64, error)
	WriteStart(headerRow int64, rec StartRecord) error
	WriteIntermediate(headerRow int64, slot int, coords models.Coordinates) error
	WriteFinish(headerRow int64, rec FinishRecord) error
}

// Transport sends prompts and keyboards back to a worker. Inbound events
// arrive through Engine.HandleEvent; this is the outbound half.
type Transport interface {
	SendText(workerID int64, text string) error
	RemoveKeyboard(workerID int64, text string) error
	SendMenu(workerID int64, state models.MenuState) error
	SendChoices(workerID int64, text string, options []string) error
	RequestLocation(workerID int64, text string) error
	RequestContact(workerID int64, text string) error
}

// Fleet lists the assignable vehicle labels in catalog order.
type Fleet interface {
	List() ([]string, error)
}

// Checks is the intermediate-check scheduler as seen by the engine. Arm and
// Disarm are called inside the session lock on the start/finish transitions;
// AcceptLocation handles unsolicited location reports during an active shift.
type Checks interface {
	Arm(sess *models.ShiftSession)
	Disarm(sess *models.ShiftSession)
	AcceptLocation(sess *models.ShiftSession, coords models.Coordinates) (bool, error)
}

// EventSink receives shift lifecycle notifications for the manager dashboard.
// May be nil.
type EventSink interface {
	ShiftChanged(w models.Worker, status string)
}
