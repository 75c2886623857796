package services

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/internal/websocket"
)

// ShiftNotifier fans shift lifecycle events out to the manager dashboard:
// a WebSocket broadcast for connected sessions and an FCM push for the rest.
// It implements workflow.EventSink. The FCM service may be nil when push is
// not configured.
type ShiftNotifier struct {
	hub *websocket.Hub
	fcm *FCMService
	db  *sqlx.DB
}

func NewShiftNotifier(hub *websocket.Hub, fcm *FCMService, db *sqlx.DB) *ShiftNotifier {
	return &ShiftNotifier{hub: hub, fcm: fcm, db: db}
}

// ShiftChanged notifies managers that a worker started or finished a shift.
// Runs inside the worker's event handling; the slow parts go to a goroutine.
func (n *ShiftNotifier) ShiftChanged(w models.Worker, status string) {
	event := map[string]interface{}{
		"type": "worker_shift_change",
		"data": map[string]interface{}{
			"worker_id": w.ID,
			"full_name": w.FullName,
			"phone":     w.Phone,
			"status":    status,
			"timestamp": time.Now().Unix(),
		},
	}
	n.hub.BroadcastToRole("manager", event)
	n.hub.BroadcastToRole("admin", event)

	if n.fcm == nil {
		return
	}
	title := "Смена начата"
	if status == "finished" {
		title = "Смена завершена"
	}
	body := fmt.Sprintf("%s (%s)", w.FullName, w.Phone)
	go n.push(title, body, map[string]string{
		"type":      "worker_shift_change",
		"worker_id": fmt.Sprintf("%d", w.ID),
		"status":    status,
	})
}

// CheckFired notifies managers that an intermediate check went out to a
// worker. Wired as part of the scheduler's notify hook.
func (n *ShiftNotifier) CheckFired(w models.Worker) {
	event := map[string]interface{}{
		"type": "intermediate_check",
		"data": map[string]interface{}{
			"worker_id": w.ID,
			"full_name": w.FullName,
			"timestamp": time.Now().Unix(),
		},
	}
	n.hub.BroadcastToRole("manager", event)
	n.hub.BroadcastToRole("admin", event)
}

func (n *ShiftNotifier) push(title, body string, data map[string]string) {
	var tokens []string
	if err := n.db.Select(&tokens, `SELECT token FROM fcm_tokens`); err != nil {
		log.Printf("❌ Failed to load FCM tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}
	if err := n.fcm.SendMulticast(tokens, title, body, data); err != nil {
		log.Printf("❌ Failed to push shift notification: %v", err)
	}
}
