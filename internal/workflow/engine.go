package workflow

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/registry"
	"shiftbot-backend/internal/session"
)

// Main menu buttons. The worker taps these; they arrive back as plain text.
const (
	BtnStartShift   = "Приступаю"
	BtnFinishShift  = "Завершаю"
	BtnShiftRunning = "Идёт смена"
	BtnYes          = "Да"
	BtnNo           = "Нет"
)

// MsgCheckLocation is the prompt the intermediate-check scheduler sends when
// a 3h/6h timer fires.
const MsgCheckLocation = "Вы всё ещё на смене? Отправьте, пожалуйста, свою геолокацию."

const (
	msgAlreadyRegistered = "Вы уже зарегистрированы!"
	msgAskPhone          = "Введите, пожалуйста, ваш бельгийский номер телефона:"
	msgBadPhone          = "Неверный формат номера. Введите номер в формате +32XXXXXXXXX или 0XXXXXXXXX:"
	msgAskName           = "Введите ваше ФИО:"
	msgRegistered        = "Регистрация завершена."
	msgNotRegistered     = "Вы не зарегистрированы. Отправьте /start для регистрации."
	msgAskDriving        = "Вы будете за рулём?"
	msgAskStartMileage   = "Введите начальный пробег автомобиля:"
	msgBadMileage        = "Неверный формат. Введите, пожалуйста, только числа для пробега."
	msgEmptyFleet        = "Список автомобилей пуст. Обратитесь к администратору."
	msgChooseCar         = "Выберите автомобиль из списка:"
	msgUnknownCar        = "Выбранный автомобиль отсутствует в списке. Пожалуйста, выберите автомобиль:"
	msgAskStartLocation  = "Отправьте, пожалуйста, свою геолокацию для начала смены."
	msgNoLocation        = "Геолокация не получена. Нажмите кнопку 'Поделиться геолокацией'."
	msgShiftStarted      = "Рабочий день начат. Данные записаны."
	msgAskFinishLocation = "Вы завершаете рабочий день.\nОтправьте, пожалуйста, свою геолокацию для завершения смены."
	msgAskFinishMileage  = "Введите конечный пробег автомобиля:"
	msgBadFinishMileage  = "Введите, пожалуйста, числовое значение для конечного пробега."
	msgShiftFinished     = "Рабочий день завершён. Данные сохранены."
	msgShiftTooShort     = "Смена еще не длится 1 час. Для завершения смены подождите, пожалуйста."
	msgCancelled         = "Действие отменено."
	msgNoShiftRecord     = "Ошибка: запись текущей смены не найдена."
	msgSomethingWrong    = "Что-то пошло не так. Попробуйте ещё раз."
)

// Engine is the shift lifecycle state machine. One HandleEvent call processes
// one inbound event for one worker; all session reads and writes happen under
// that worker's session lock, so conversation events and timer callbacks for
// the same worker never interleave.
type Engine struct {
	registry  *registry.Registry
	fleet     Fleet
	store     *session.Store
	active    *session.ActiveSet
	ledger    Ledger
	transport Transport
	checks    Checks
	events    EventSink
	loc       *time.Location
	now       func() time.Time
}

func NewEngine(
	reg *registry.Registry,
	fleet Fleet,
	store *session.Store,
	active *session.ActiveSet,
	ledger Ledger,
	transport Transport,
	checks Checks,
	events EventSink,
	loc *time.Location,
) *Engine {
	return &Engine{
		registry:  reg,
		fleet:     fleet,
		store:     store,
		active:    active,
		ledger:    ledger,
		transport: transport,
		checks:    checks,
		events:    events,
		loc:       loc,
		now:       time.Now,
	}
}

// HandleEvent dispatches one inbound event for the originating worker.
func (e *Engine) HandleEvent(ev Event) {
	sess := e.store.GetOrCreate(ev.WorkerID)
	sess.Lock()
	defer sess.Unlock()

	switch ev.Command {
	case "start":
		e.handleStartCommand(sess)
		return
	case "cancel":
		e.handleCancel(sess)
		return
	case "menu":
		e.sendMenu(sess)
		return
	}

	switch sess.Stage {
	case models.StageIdle:
		e.handleIdle(sess, ev)
	case models.StageRegPhone:
		e.handleRegPhone(sess, ev)
	case models.StageRegName:
		e.handleRegName(sess, ev)
	case models.StageAwaitingDriving:
		e.handleDrivingChoice(sess, ev)
	case models.StageAwaitingStartMileage:
		e.handleStartMileage(sess, ev)
	case models.StageAwaitingCarChoice:
		e.handleCarChoice(sess, ev)
	case models.StageAwaitingStartLoc:
		e.handleStartLocation(sess, ev)
	case models.StageActive:
		e.handleActive(sess, ev)
	case models.StageAwaitingFinishLoc:
		e.handleFinishLocation(sess, ev)
	case models.StageAwaitingFinishMile:
		e.handleFinishMileage(sess, ev)
	}
}

// ------------------------------ Registration

func (e *Engine) handleStartCommand(sess *models.ShiftSession) {
	if _, err := e.registry.Lookup(sess.WorkerID); err == nil {
		e.send(sess.WorkerID, msgAlreadyRegistered)
		e.sendMenu(sess)
		return
	}
	sess.Stage = models.StageRegPhone
	if err := e.transport.RequestContact(sess.WorkerID, msgAskPhone); err != nil {
		log.Printf("❌ Failed to ask for phone (worker %d): %v", sess.WorkerID, err)
	}
}

func (e *Engine) handleRegPhone(sess *models.ShiftSession, ev Event) {
	raw := ev.Contact
	if raw == "" {
		raw = ev.Text
	}
	if _, err := registry.NormalizePhone(raw); err != nil {
		e.send(sess.WorkerID, msgBadPhone)
		return
	}
	sess.PendingPhone = raw
	sess.Stage = models.StageRegName
	e.removeKeyboard(sess.WorkerID, msgAskName)
}

func (e *Engine) handleRegName(sess *models.ShiftSession, ev Event) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		e.send(sess.WorkerID, msgAskName)
		return
	}

	_, err := e.registry.Register(sess.WorkerID, sess.PendingPhone, name)
	switch {
	case errors.Is(err, registry.ErrAlreadyRegistered):
		sess.Stage = models.StageIdle
		sess.PendingPhone = ""
		e.send(sess.WorkerID, msgAlreadyRegistered)
		e.sendMenu(sess)
	case errors.Is(err, registry.ErrInvalidPhone):
		// The phone was validated a stage ago; restart that step.
		sess.Stage = models.StageRegPhone
		sess.PendingPhone = ""
		e.send(sess.WorkerID, msgBadPhone)
	case err != nil:
		log.Printf("❌ Registration failed for worker %d: %v", sess.WorkerID, err)
		e.send(sess.WorkerID, msgSomethingWrong)
	default:
		sess.Stage = models.StageIdle
		sess.PendingPhone = ""
		e.send(sess.WorkerID, msgRegistered)
		e.sendMenu(sess)
	}
}

// ------------------------------ Shift start

func (e *Engine) handleIdle(sess *models.ShiftSession, ev Event) {
	switch ev.Text {
	case BtnStartShift:
		if _, err := e.registry.Lookup(sess.WorkerID); err != nil {
			e.send(sess.WorkerID, msgNotRegistered)
			return
		}
		sess.Stage = models.StageAwaitingDriving
		e.sendChoices(sess.WorkerID, msgAskDriving, []string{BtnYes, BtnNo})
	case BtnFinishShift, BtnShiftRunning:
		// Stale keyboard from a previous shift; just re-render the menu.
		e.sendMenu(sess)
	}
}

func (e *Engine) handleDrivingChoice(sess *models.ShiftSession, ev Event) {
	switch ev.Text {
	case BtnYes:
		sess.DrivingToday = true
		sess.Stage = models.StageAwaitingStartMileage
		e.removeKeyboard(sess.WorkerID, msgAskStartMileage)
	case BtnNo:
		sess.DrivingToday = false
		sess.Vehicle = models.NotApplicable
		sess.StartMileage = models.NotApplicable
		sess.Stage = models.StageAwaitingStartLoc
		e.requestLocation(sess.WorkerID, msgAskStartLocation)
	default:
		e.sendChoices(sess.WorkerID, msgAskDriving, []string{BtnYes, BtnNo})
	}
}

func (e *Engine) handleStartMileage(sess *models.ShiftSession, ev Event) {
	mileage := strings.TrimSpace(ev.Text)
	if !isDigits(mileage) {
		e.send(sess.WorkerID, msgBadMileage)
		return
	}
	sess.StartMileage = mileage

	cars, err := e.fleet.List()
	if err != nil {
		log.Printf("❌ Failed to load vehicle catalog: %v", err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}
	if len(cars) == 0 {
		sess.ClearTransient()
		e.removeKeyboard(sess.WorkerID, msgEmptyFleet)
		return
	}

	sess.Stage = models.StageAwaitingCarChoice
	e.sendChoices(sess.WorkerID, msgChooseCar, cars)
}

func (e *Engine) handleCarChoice(sess *models.ShiftSession, ev Event) {
	cars, err := e.fleet.List()
	if err != nil {
		log.Printf("❌ Failed to load vehicle catalog: %v", err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}

	chosen := strings.TrimSpace(ev.Text)
	for _, car := range cars {
		if car == chosen {
			sess.Vehicle = chosen
			sess.Stage = models.StageAwaitingStartLoc
			e.requestLocation(sess.WorkerID, msgAskStartLocation)
			return
		}
	}
	e.sendChoices(sess.WorkerID, msgUnknownCar, cars)
}

func (e *Engine) handleStartLocation(sess *models.ShiftSession, ev Event) {
	if ev.Location == nil {
		e.requestLocation(sess.WorkerID, msgNoLocation)
		return
	}

	worker, err := e.registry.Lookup(sess.WorkerID)
	if err != nil {
		// Starting a shift without a registration record means the session
		// is corrupted; reset rather than write under an unknown identity.
		log.Printf("❌ Session corrupted: worker %d reached start-location unregistered", sess.WorkerID)
		sess.ClearTransient()
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}

	headerRow, err := e.ledger.FindOpenBlock(worker.Phone)
	if errors.Is(err, ErrBlockNotFound) {
		headerRow, err = e.ledger.CreateBlock(worker)
	}
	if err != nil {
		log.Printf("❌ Failed to resolve ledger block for %s: %v", worker.Phone, err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}

	now := e.now().In(e.loc)
	vehicle := sess.Vehicle
	if vehicle == "" {
		vehicle = models.NotApplicable
	}
	mileage := sess.StartMileage
	if mileage == "" {
		mileage = models.NotApplicable
	}

	err = e.ledger.WriteStart(headerRow, StartRecord{
		Vehicle:      vehicle,
		StartMileage: mileage,
		StartTime:    now,
		StartCoords:  *ev.Location,
	})
	if err != nil {
		log.Printf("❌ Failed to write shift start for %s: %v", worker.Phone, err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}

	sess.Vehicle = vehicle
	sess.StartMileage = mileage
	sess.StartTime = now
	sess.StartCoords = ev.Location
	sess.ShiftStart = now
	sess.LedgerRow = headerRow
	sess.IntermediateCount = 0
	sess.Finishing = false
	sess.Stage = models.StageActive

	e.active.SetActive(sess.WorkerID, true)
	e.checks.Arm(sess)

	log.Printf("✅ Shift started: worker %d (%s), vehicle %q", sess.WorkerID, worker.FullName, vehicle)

	e.removeKeyboard(sess.WorkerID, msgShiftStarted)
	e.sendMenu(sess)
	if e.events != nil {
		e.events.ShiftChanged(worker, "started")
	}
}

// ------------------------------ Active shift

func (e *Engine) handleActive(sess *models.ShiftSession, ev Event) {
	switch {
	case ev.Text == BtnFinishShift:
		sess.Finishing = true
		sess.Stage = models.StageAwaitingFinishLoc
		e.requestLocation(sess.WorkerID, msgAskFinishLocation)
	case ev.Text == BtnShiftRunning:
		// Informational self-loop; no transition.
		e.send(sess.WorkerID, msgShiftTooShort)
	case ev.Location != nil:
		e.handleUnsolicitedLocation(sess, *ev.Location)
	}
}

func (e *Engine) handleUnsolicitedLocation(sess *models.ShiftSession, coords models.Coordinates) {
	accepted, err := e.checks.AcceptLocation(sess, coords)
	if err != nil {
		log.Printf("❌ Failed to record intermediate location for worker %d: %v", sess.WorkerID, err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}
	if !accepted {
		return
	}
	e.removeKeyboard(sess.WorkerID, fmt.Sprintf("Промежуточная геолокация %d записана.", sess.IntermediateCount))
	e.sendMenu(sess)
}

// ------------------------------ Shift finish

func (e *Engine) handleFinishLocation(sess *models.ShiftSession, ev Event) {
	if ev.Location == nil {
		e.requestLocation(sess.WorkerID, msgNoLocation)
		return
	}
	sess.FinishCoords = ev.Location

	if sess.DrivingToday {
		sess.Stage = models.StageAwaitingFinishMile
		e.send(sess.WorkerID, msgAskFinishMileage)
		return
	}
	e.recordFinish(sess, models.NotApplicable)
}

func (e *Engine) handleFinishMileage(sess *models.ShiftSession, ev Event) {
	// The finish flow already owns the location it needs.
	if ev.Location != nil {
		return
	}
	mileage := strings.TrimSpace(ev.Text)
	if !isDigits(mileage) {
		e.send(sess.WorkerID, msgBadFinishMileage)
		return
	}
	e.recordFinish(sess, mileage)
}

func (e *Engine) recordFinish(sess *models.ShiftSession, mileage string) {
	if sess.LedgerRow == 0 || sess.FinishCoords == nil {
		// No row to write to: retrying would land the data in the wrong
		// place, so reset and tell the worker something went wrong.
		log.Printf("❌ Session corrupted: worker %d finishing without a ledger row", sess.WorkerID)
		e.checks.Disarm(sess)
		e.active.SetActive(sess.WorkerID, false)
		sess.ClearTransient()
		e.send(sess.WorkerID, msgNoShiftRecord)
		e.sendMenu(sess)
		return
	}

	// Disarm before the finish write completes; a check that already fired
	// re-reads the active-set and backs off on its own.
	e.checks.Disarm(sess)

	now := e.now().In(e.loc)
	err := e.ledger.WriteFinish(sess.LedgerRow, FinishRecord{
		FinishTime:    now,
		FinishCoords:  *sess.FinishCoords,
		FinishMileage: mileage,
	})
	if err != nil {
		log.Printf("❌ Failed to write shift finish for worker %d: %v", sess.WorkerID, err)
		e.send(sess.WorkerID, msgSomethingWrong)
		return
	}

	e.active.SetActive(sess.WorkerID, false)
	sess.ClearTransient()

	log.Printf("🏁 Shift finished: worker %d", sess.WorkerID)

	e.removeKeyboard(sess.WorkerID, msgShiftFinished)
	e.sendMenu(sess)
	if e.events != nil {
		if worker, err := e.registry.Lookup(sess.WorkerID); err == nil {
			e.events.ShiftChanged(worker, "finished")
		}
	}
}

// ------------------------------ Commands and helpers

func (e *Engine) handleCancel(sess *models.ShiftSession) {
	wasActive := e.active.IsActive(sess.WorkerID)
	e.checks.Disarm(sess)
	if wasActive {
		e.active.SetActive(sess.WorkerID, false)
	}
	sess.ClearTransient()
	e.removeKeyboard(sess.WorkerID, msgCancelled)
}

func (e *Engine) sendMenu(sess *models.ShiftSession) {
	state := DeriveMenuState(e.active.IsActive(sess.WorkerID), sess.ShiftStart, e.now().In(e.loc))
	if err := e.transport.SendMenu(sess.WorkerID, state); err != nil {
		log.Printf("❌ Failed to send menu to worker %d: %v", sess.WorkerID, err)
	}
}

func (e *Engine) send(workerID int64, text string) {
	if err := e.transport.SendText(workerID, text); err != nil {
		log.Printf("❌ Failed to send message to worker %d: %v", workerID, err)
	}
}

func (e *Engine) removeKeyboard(workerID int64, text string) {
	if err := e.transport.RemoveKeyboard(workerID, text); err != nil {
		log.Printf("❌ Failed to send message to worker %d: %v", workerID, err)
	}
}

func (e *Engine) sendChoices(workerID int64, text string, options []string) {
	if err := e.transport.SendChoices(workerID, text, options); err != nil {
		log.Printf("❌ Failed to send keyboard to worker %d: %v", workerID, err)
	}
}

func (e *Engine) requestLocation(workerID int64, text string) {
	if err := e.transport.RequestLocation(workerID, text); err != nil {
		log.Printf("❌ Failed to request location from worker %d: %v", workerID, err)
	}
}

// isDigits reports whether s is non-empty and consists solely of decimal
// digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
