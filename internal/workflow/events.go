package workflow

import "shiftbot-backend/internal/models"

// Event is one inbound update from a worker, already stripped of transport
// details. Exactly one of Command / Contact / Location / Text carries the
// payload; Text is always set for plain messages.
type Event struct {
	WorkerID int64
	// Command is a slash command without the slash: "start", "menu", "cancel".
	Command string
	// Contact is the phone number from a shared contact card.
	Contact string
	// Location is a shared GPS point.
	Location *models.Coordinates
	// Text is the trimmed message text.
	Text string
}
