package handlers

import (
	"net/http"
	"sort"
	"time"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/registry"
	"shiftbot-backend/internal/session"
	"shiftbot-backend/pkg/utils"
)

// ActiveWorker is a dashboard view of one worker with an open shift.
type ActiveWorker struct {
	Worker            models.Worker `json:"worker"`
	Stage             string        `json:"stage"`
	Vehicle           string        `json:"vehicle,omitempty"`
	ShiftStart        time.Time     `json:"shift_start"`
	ElapsedSeconds    int64         `json:"elapsed_seconds"`
	IntermediateCount int           `json:"intermediate_count"`
}

// GetWorkers lists every registered worker.
func GetWorkers(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workers := reg.All()
		sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"workers": workers,
		})
	}
}

// GetActiveWorkers reports the workers currently on shift. Each session is
// locked while its fields are read; a shift finishing concurrently simply
// drops out of the next poll.
func GetActiveWorkers(reg *registry.Registry, store *session.Store, active *session.ActiveSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		out := make([]ActiveWorker, 0)

		for _, sess := range store.Snapshot() {
			sess.Lock()
			workerID := sess.WorkerID
			if !active.IsActive(workerID) {
				sess.Unlock()
				continue
			}
			entry := ActiveWorker{
				Stage:             string(sess.Stage),
				Vehicle:           sess.Vehicle,
				ShiftStart:        sess.ShiftStart,
				ElapsedSeconds:    int64(sess.Elapsed(now).Seconds()),
				IntermediateCount: sess.IntermediateCount,
			}
			sess.Unlock()

			worker, err := reg.Lookup(workerID)
			if err != nil {
				continue
			}
			entry.Worker = worker
			out = append(out, entry)
		}

		sort.Slice(out, func(i, j int) bool { return out[i].Worker.ID < out[j].Worker.ID })
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"active":  out,
		})
	}
}
