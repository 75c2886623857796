package workflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/registry"
	"shiftbot-backend/internal/session"
)

// ------------------------------ fakes

type memoryStore struct {
	workers map[int64]models.Worker
}

func (m *memoryStore) LoadAll() (map[int64]models.Worker, error) { return m.workers, nil }
func (m *memoryStore) Append(w models.Worker) error {
	m.workers[w.ID] = w
	return nil
}

type fakeLedger struct {
	ops *[]string

	blocks     map[string]int64
	nextRow    int64
	starts     []StartRecord
	intermeds  []models.Coordinates
	finishes   []FinishRecord
	writeErr   error
	findErr    error
	createErr  error
	finishErr  error
	intermErr  error
	createdFor []string
}

func newFakeLedger(ops *[]string) *fakeLedger {
	return &fakeLedger{ops: ops, blocks: make(map[string]int64), nextRow: 2}
}

func (f *fakeLedger) record(op string) {
	if f.ops != nil {
		*f.ops = append(*f.ops, op)
	}
}

func (f *fakeLedger) FindOpenBlock(phone string) (int64, error) {
	if f.findErr != nil {
		return 0, f.findErr
	}
	if row, ok := f.blocks[phone]; ok {
		return row, nil
	}
	return 0, ErrBlockNotFound
}

func (f *fakeLedger) CreateBlock(w models.Worker) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	row := f.nextRow
	f.nextRow += 33
	f.blocks[w.Phone] = row
	f.createdFor = append(f.createdFor, w.Phone)
	return row, nil
}

func (f *fakeLedger) WriteStart(headerRow int64, rec StartRecord) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.record("write_start")
	f.starts = append(f.starts, rec)
	return nil
}

func (f *fakeLedger) WriteIntermediate(headerRow int64, slot int, coords models.Coordinates) error {
	if f.intermErr != nil {
		return f.intermErr
	}
	f.record(fmt.Sprintf("write_intermediate_%d", slot))
	f.intermeds = append(f.intermeds, coords)
	return nil
}

func (f *fakeLedger) WriteFinish(headerRow int64, rec FinishRecord) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	f.record("write_finish")
	f.finishes = append(f.finishes, rec)
	return nil
}

type sentMessage struct {
	kind    string // "text", "remove", "menu", "choices", "location", "contact"
	text    string
	state   models.MenuState
	options []string
}

type fakeTransport struct {
	sent []sentMessage
}

func (f *fakeTransport) SendText(workerID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "text", text: text})
	return nil
}

func (f *fakeTransport) RemoveKeyboard(workerID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "remove", text: text})
	return nil
}

func (f *fakeTransport) SendMenu(workerID int64, state models.MenuState) error {
	f.sent = append(f.sent, sentMessage{kind: "menu", state: state})
	return nil
}

func (f *fakeTransport) SendChoices(workerID int64, text string, options []string) error {
	f.sent = append(f.sent, sentMessage{kind: "choices", text: text, options: options})
	return nil
}

func (f *fakeTransport) RequestLocation(workerID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "location", text: text})
	return nil
}

func (f *fakeTransport) RequestContact(workerID int64, text string) error {
	f.sent = append(f.sent, sentMessage{kind: "contact", text: text})
	return nil
}

func (f *fakeTransport) last() sentMessage {
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

// lastMenu returns the most recent menu render.
func (f *fakeTransport) lastMenu() (models.MenuState, bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == "menu" {
			return f.sent[i].state, true
		}
	}
	return "", false
}

type fakeFleet struct {
	cars []string
	err  error
}

func (f *fakeFleet) List() ([]string, error) { return f.cars, f.err }

type fakeChecks struct {
	ops *[]string

	armed    int
	disarmed int
	ledger   Ledger
	active   *session.ActiveSet
	grace    bool // reject reports when set
}

func (f *fakeChecks) record(op string) {
	if f.ops != nil {
		*f.ops = append(*f.ops, op)
	}
}

func (f *fakeChecks) Arm(sess *models.ShiftSession) {
	f.record("arm")
	f.armed++
}

func (f *fakeChecks) Disarm(sess *models.ShiftSession) {
	f.record("disarm")
	f.disarmed++
	sess.CheckTimers = nil
}

func (f *fakeChecks) AcceptLocation(sess *models.ShiftSession, coords models.Coordinates) (bool, error) {
	if !f.active.IsActive(sess.WorkerID) || sess.Finishing || sess.LedgerRow == 0 || f.grace {
		return false, nil
	}
	if sess.IntermediateCount >= 2 {
		return false, nil
	}
	if err := f.ledger.WriteIntermediate(sess.LedgerRow, sess.IntermediateCount, coords); err != nil {
		return false, err
	}
	sess.IntermediateCount++
	return true, nil
}

type fakeSink struct {
	events []string
}

func (f *fakeSink) ShiftChanged(w models.Worker, status string) {
	f.events = append(f.events, fmt.Sprintf("%d:%s", w.ID, status))
}

// ------------------------------ harness

type harness struct {
	engine    *Engine
	reg       *registry.Registry
	store     *session.Store
	active    *session.ActiveSet
	ledger    *fakeLedger
	transport *fakeTransport
	fleet     *fakeFleet
	checks    *fakeChecks
	sink      *fakeSink
	now       time.Time
	ops       []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:  session.NewStore(),
		active: session.NewActiveSet(),
		fleet: &fakeFleet{cars: []string{
			"Peugeot Expert(большой), 2FVK026",
			"Peugeot Partner(маленький), 2GJD511",
		}},
		transport: &fakeTransport{},
		sink:      &fakeSink{},
		now:       time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	h.ledger = newFakeLedger(&h.ops)
	h.checks = &fakeChecks{ops: &h.ops, ledger: h.ledger, active: h.active}

	reg, err := registry.New(&memoryStore{workers: make(map[int64]models.Worker)})
	if err != nil {
		t.Fatal(err)
	}
	h.reg = reg

	h.engine = NewEngine(reg, h.fleet, h.store, h.active, h.ledger, h.transport, h.checks, h.sink, time.UTC)
	h.engine.now = func() time.Time { return h.now }
	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) text(id int64, text string) {
	h.engine.HandleEvent(Event{WorkerID: id, Text: text})
}

func (h *harness) command(id int64, cmd string) {
	h.engine.HandleEvent(Event{WorkerID: id, Command: cmd})
}

func (h *harness) location(id int64, lat, lng float64) {
	h.engine.HandleEvent(Event{WorkerID: id, Location: &models.Coordinates{Latitude: lat, Longitude: lng}})
}

func (h *harness) register(t *testing.T, id int64, phone, name string) {
	t.Helper()
	h.command(id, "start")
	h.engine.HandleEvent(Event{WorkerID: id, Contact: phone})
	h.text(id, name)
	if _, err := h.reg.Lookup(id); err != nil {
		t.Fatalf("registration did not stick: %v", err)
	}
}

func (h *harness) startDrivingShift(t *testing.T, id int64) {
	t.Helper()
	h.text(id, BtnStartShift)
	h.text(id, BtnYes)
	h.text(id, "10500")
	h.text(id, "Peugeot Expert(большой), 2FVK026")
	h.location(id, 50.85, 4.35)
	if !h.active.IsActive(id) {
		t.Fatal("shift did not become active")
	}
}

func (h *harness) stage(id int64) models.Stage {
	sess := h.store.GetOrCreate(id)
	sess.Lock()
	defer sess.Unlock()
	return sess.Stage
}

// ------------------------------ tests

func TestRegistrationFlow(t *testing.T) {
	h := newHarness(t)

	h.command(1, "start")
	if got := h.transport.last(); got.kind != "contact" {
		t.Fatalf("after /start: last message = %+v, want contact request", got)
	}
	if h.stage(1) != models.StageRegPhone {
		t.Fatalf("stage = %s", h.stage(1))
	}

	// Bad phone keeps the worker on the phone step.
	h.text(1, "abc")
	if got := h.transport.last(); got.text != msgBadPhone {
		t.Fatalf("bad phone reply = %q", got.text)
	}
	if h.stage(1) != models.StageRegPhone {
		t.Fatalf("stage after bad phone = %s", h.stage(1))
	}

	h.text(1, "+32 498 123 456")
	if h.stage(1) != models.StageRegName {
		t.Fatalf("stage after phone = %s", h.stage(1))
	}

	h.text(1, "Иванов Иван")
	if h.stage(1) != models.StageIdle {
		t.Fatalf("stage after name = %s", h.stage(1))
	}
	worker, err := h.reg.Lookup(1)
	if err != nil {
		t.Fatal(err)
	}
	if worker.Phone != "32498123456" {
		t.Errorf("stored phone = %q", worker.Phone)
	}
	if state, ok := h.transport.lastMenu(); !ok || state != models.MenuCanStart {
		t.Errorf("menu after registration = %q", state)
	}
}

func TestRegistrationIdempotent(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")

	h.command(1, "start")
	if got := h.transport.last(); got.kind != "menu" {
		t.Fatalf("re-/start last message = %+v, want menu", got)
	}
	if h.stage(1) != models.StageIdle {
		t.Errorf("re-/start moved stage to %s", h.stage(1))
	}
}

func TestDrivingShiftLifecycle(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")

	h.text(1, BtnStartShift)
	if got := h.transport.last(); got.kind != "choices" || len(got.options) != 2 {
		t.Fatalf("driving prompt = %+v", got)
	}

	h.text(1, BtnYes)
	if h.stage(1) != models.StageAwaitingStartMileage {
		t.Fatalf("stage after Да = %s", h.stage(1))
	}

	// Non-numeric mileage is rejected, the stage holds.
	h.text(1, "abc")
	if got := h.transport.last(); got.text != msgBadMileage {
		t.Fatalf("bad mileage reply = %q", got.text)
	}

	h.text(1, "10500")
	if got := h.transport.last(); got.kind != "choices" || len(got.options) != 2 {
		t.Fatalf("car choices = %+v", got)
	}

	// Unknown car re-prompts with the catalog.
	h.text(1, "Жигули")
	if got := h.transport.last(); got.text != msgUnknownCar {
		t.Fatalf("unknown car reply = %q", got.text)
	}

	h.text(1, "Peugeot Expert(большой), 2FVK026")
	if h.stage(1) != models.StageAwaitingStartLoc {
		t.Fatalf("stage after car = %s", h.stage(1))
	}

	// Text instead of a location re-prompts.
	h.text(1, "вот я")
	if got := h.transport.last(); got.text != msgNoLocation {
		t.Fatalf("missing location reply = %q", got.text)
	}

	h.location(1, 50.85, 4.35)

	if h.stage(1) != models.StageActive {
		t.Fatalf("stage after location = %s", h.stage(1))
	}
	if !h.active.IsActive(1) {
		t.Fatal("active set not flipped")
	}
	if h.checks.armed != 1 {
		t.Fatalf("checks armed %d times", h.checks.armed)
	}
	if len(h.ledger.starts) != 1 {
		t.Fatalf("start writes = %d", len(h.ledger.starts))
	}
	start := h.ledger.starts[0]
	if start.Vehicle != "Peugeot Expert(большой), 2FVK026" || start.StartMileage != "10500" {
		t.Errorf("start record = %+v", start)
	}
	if start.StartCoords != (models.Coordinates{Latitude: 50.85, Longitude: 4.35}) {
		t.Errorf("start coords = %+v", start.StartCoords)
	}
	if len(h.ledger.createdFor) != 1 || h.ledger.createdFor[0] != "0498123456" {
		t.Errorf("block created for %v", h.ledger.createdFor)
	}
	if state, _ := h.transport.lastMenu(); state != models.MenuInProgressOnly {
		t.Errorf("menu right after start = %q", state)
	}
	if len(h.sink.events) != 1 || h.sink.events[0] != "1:started" {
		t.Errorf("sink events = %v", h.sink.events)
	}

	// Intermediate report four hours in.
	h.advance(4 * time.Hour)
	h.location(1, 50.9, 4.4)
	if len(h.ledger.intermeds) != 1 {
		t.Fatalf("intermediate writes = %d", len(h.ledger.intermeds))
	}

	// Finish: location then mileage.
	h.text(1, BtnFinishShift)
	if h.stage(1) != models.StageAwaitingFinishLoc {
		t.Fatalf("stage after Завершаю = %s", h.stage(1))
	}
	h.location(1, 50.95, 4.45)
	if h.stage(1) != models.StageAwaitingFinishMile {
		t.Fatalf("stage after finish location = %s", h.stage(1))
	}
	h.text(1, "10640")

	if h.stage(1) != models.StageIdle {
		t.Fatalf("stage after finish = %s", h.stage(1))
	}
	if h.active.IsActive(1) {
		t.Fatal("active set not cleared")
	}
	if len(h.ledger.finishes) != 1 {
		t.Fatalf("finish writes = %d", len(h.ledger.finishes))
	}
	finish := h.ledger.finishes[0]
	if finish.FinishMileage != "10640" {
		t.Errorf("finish record = %+v", finish)
	}
	if finish.FinishCoords != (models.Coordinates{Latitude: 50.95, Longitude: 4.45}) {
		t.Errorf("finish coords = %+v", finish.FinishCoords)
	}
	if state, _ := h.transport.lastMenu(); state != models.MenuCanStart {
		t.Errorf("menu after finish = %q", state)
	}
	if len(h.sink.events) != 2 || h.sink.events[1] != "1:finished" {
		t.Errorf("sink events = %v", h.sink.events)
	}

	// The checks must be disarmed before the finish row is written.
	var disarmIdx, finishIdx int
	for i, op := range h.ops {
		switch op {
		case "disarm":
			disarmIdx = i
		case "write_finish":
			finishIdx = i
		}
	}
	if disarmIdx > finishIdx {
		t.Errorf("disarm after finish write: ops = %v", h.ops)
	}
}

func TestNonDrivingShift(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")

	h.text(1, BtnStartShift)
	h.text(1, BtnNo)
	if h.stage(1) != models.StageAwaitingStartLoc {
		t.Fatalf("stage after Нет = %s", h.stage(1))
	}
	h.location(1, 50.85, 4.35)

	start := h.ledger.starts[0]
	if start.Vehicle != models.NotApplicable || start.StartMileage != models.NotApplicable {
		t.Errorf("non-driving start record = %+v", start)
	}

	// Finish skips the mileage question entirely.
	h.advance(2 * time.Hour)
	h.text(1, BtnFinishShift)
	h.location(1, 50.9, 4.4)

	if h.stage(1) != models.StageIdle {
		t.Fatalf("stage after finish = %s", h.stage(1))
	}
	if got := h.ledger.finishes[0].FinishMileage; got != models.NotApplicable {
		t.Errorf("finish mileage = %q, want %q", got, models.NotApplicable)
	}
}

func TestSecondShiftSameDayReusesBlock(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")

	h.startDrivingShift(t, 1)
	h.advance(2 * time.Hour)
	h.text(1, BtnFinishShift)
	h.location(1, 50.9, 4.4)
	h.text(1, "10640")

	h.startDrivingShift(t, 1)
	if len(h.ledger.createdFor) != 1 {
		t.Errorf("block created twice: %v", h.ledger.createdFor)
	}
	if len(h.ledger.starts) != 2 {
		t.Errorf("start writes = %d", len(h.ledger.starts))
	}
}

func TestStartUnregistered(t *testing.T) {
	h := newHarness(t)

	h.text(1, BtnStartShift)
	if got := h.transport.last(); got.text != msgNotRegistered {
		t.Fatalf("unregistered start reply = %q", got.text)
	}
	if h.stage(1) != models.StageIdle {
		t.Errorf("stage = %s", h.stage(1))
	}
}

func TestEmptyFleetAbortsStart(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.fleet.cars = nil

	h.text(1, BtnStartShift)
	h.text(1, BtnYes)
	h.text(1, "10500")

	if got := h.transport.last(); got.text != msgEmptyFleet {
		t.Fatalf("empty fleet reply = %q", got.text)
	}
	if h.stage(1) != models.StageIdle {
		t.Errorf("stage = %s", h.stage(1))
	}
}

func TestShiftRunningButton(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.startDrivingShift(t, 1)

	h.text(1, BtnShiftRunning)
	if got := h.transport.last(); got.text != msgShiftTooShort {
		t.Fatalf("reply = %q", got.text)
	}
	if h.stage(1) != models.StageActive {
		t.Errorf("stage = %s", h.stage(1))
	}

	// Typing Завершаю before the hour is still honored; the gate only shapes
	// the menu.
	h.text(1, BtnFinishShift)
	if h.stage(1) != models.StageAwaitingFinishLoc {
		t.Errorf("typed finish before the hour: stage = %s", h.stage(1))
	}
}

func TestCancelDuringActiveShift(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.startDrivingShift(t, 1)

	h.command(1, "cancel")

	if h.stage(1) != models.StageIdle {
		t.Errorf("stage after cancel = %s", h.stage(1))
	}
	if h.active.IsActive(1) {
		t.Error("cancel left the shift active")
	}
	if h.checks.disarmed == 0 {
		t.Error("cancel did not disarm checks")
	}
	if got := h.transport.last(); got.text != msgCancelled {
		t.Errorf("cancel reply = %q", got.text)
	}
}

func TestCancelDuringRegistration(t *testing.T) {
	h := newHarness(t)
	h.command(1, "start")
	h.engine.HandleEvent(Event{WorkerID: 1, Contact: "0498123456"})

	h.command(1, "cancel")
	if h.stage(1) != models.StageIdle {
		t.Errorf("stage after cancel = %s", h.stage(1))
	}

	// The half-done registration left nothing behind.
	if _, err := h.reg.Lookup(1); err == nil {
		t.Error("cancelled registration persisted a worker")
	}
}

func TestFinishWithoutLedgerRowResets(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.startDrivingShift(t, 1)

	// Corrupt the session the way a lost row would.
	sess := h.store.GetOrCreate(1)
	sess.Lock()
	sess.LedgerRow = 0
	sess.Unlock()

	h.advance(2 * time.Hour)
	h.text(1, BtnFinishShift)
	h.location(1, 50.9, 4.4)
	h.text(1, "10640")

	if h.stage(1) != models.StageIdle {
		t.Errorf("stage = %s", h.stage(1))
	}
	if h.active.IsActive(1) {
		t.Error("corrupted finish left the shift active")
	}
	if len(h.ledger.finishes) != 0 {
		t.Error("finish written without a ledger row")
	}
}

func TestFinishWriteErrorKeepsStage(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.startDrivingShift(t, 1)

	h.advance(2 * time.Hour)
	h.ledger.finishErr = errors.New("sheets unavailable")

	h.text(1, BtnFinishShift)
	h.location(1, 50.9, 4.4)
	h.text(1, "10640")

	// The worker can retry the mileage once the ledger recovers.
	if h.stage(1) != models.StageAwaitingFinishMile {
		t.Fatalf("stage after failed write = %s", h.stage(1))
	}

	h.ledger.finishErr = nil
	h.text(1, "10640")
	if h.stage(1) != models.StageIdle {
		t.Errorf("stage after retry = %s", h.stage(1))
	}
	if len(h.ledger.finishes) != 1 {
		t.Errorf("finish writes = %d", len(h.ledger.finishes))
	}
}

func TestIntermediateCapAndMenu(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.startDrivingShift(t, 1)
	h.advance(3 * time.Hour)

	h.location(1, 50.9, 4.4)
	h.location(1, 50.91, 4.41)
	h.location(1, 50.92, 4.42) // over the cap, silently ignored

	if len(h.ledger.intermeds) != 2 {
		t.Fatalf("intermediate writes = %d, want 2", len(h.ledger.intermeds))
	}
	if h.stage(1) != models.StageActive {
		t.Errorf("stage = %s", h.stage(1))
	}
	if state, _ := h.transport.lastMenu(); state != models.MenuCanFinish {
		t.Errorf("menu after intermediates = %q", state)
	}
}

func TestMenuCommand(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")

	h.command(1, "menu")
	if state, ok := h.transport.lastMenu(); !ok || state != models.MenuCanStart {
		t.Fatalf("menu = %q", state)
	}

	h.startDrivingShift(t, 1)
	h.advance(30 * time.Minute)
	h.command(1, "menu")
	if state, _ := h.transport.lastMenu(); state != models.MenuInProgressOnly {
		t.Errorf("menu at 30m = %q", state)
	}

	h.advance(31 * time.Minute)
	h.command(1, "menu")
	if state, _ := h.transport.lastMenu(); state != models.MenuCanFinish {
		t.Errorf("menu at 61m = %q", state)
	}
}

func TestWorkersIsolated(t *testing.T) {
	h := newHarness(t)
	h.register(t, 1, "0498123456", "Иванов Иван")
	h.register(t, 2, "0477654321", "Петров Пётр")

	h.startDrivingShift(t, 1)

	if h.active.IsActive(2) {
		t.Error("second worker marked active")
	}
	if h.stage(2) != models.StageIdle {
		t.Errorf("second worker stage = %s", h.stage(2))
	}

	// Worker 2 starts their own shift without disturbing worker 1.
	h.text(2, BtnStartShift)
	h.text(2, BtnNo)
	h.location(2, 51.0, 4.0)

	if !h.active.IsActive(1) || !h.active.IsActive(2) {
		t.Error("both workers should be active")
	}
	if len(h.ledger.createdFor) != 2 {
		t.Errorf("blocks created for %v", h.ledger.createdFor)
	}
}
