package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"shiftbot-backend/internal/models"
	"shiftbot-backend/pkg/utils"
)

// GetVehicles lists the fleet catalog in keyboard order.
func GetVehicles(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var vehicles []models.Vehicle
		err := db.Select(&vehicles, `SELECT id, label, position FROM vehicles ORDER BY position, id`)
		if err != nil {
			log.Printf("❌ Failed to load vehicles: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to load vehicles")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"vehicles": vehicles,
		})
	}
}

type createVehicleRequest struct {
	Label    string `json:"label"`
	Position int    `json:"position"`
}

// CreateVehicle adds a vehicle to the catalog. Workers see it on the next
// shift start; there is no cache to invalidate.
func CreateVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createVehicleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Label = strings.TrimSpace(req.Label)
		if req.Label == "" {
			utils.RespondError(w, http.StatusBadRequest, "Label is required")
			return
		}

		var vehicle models.Vehicle
		err := db.Get(&vehicle,
			`INSERT INTO vehicles (label, position) VALUES ($1, $2) RETURNING id, label, position`,
			req.Label, req.Position,
		)
		if err != nil {
			log.Printf("❌ Failed to create vehicle %q: %v", req.Label, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to create vehicle")
			return
		}

		log.Printf("✅ Vehicle added to catalog: %s", vehicle.Label)
		utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"vehicle": vehicle,
		})
	}
}

// DeleteVehicle removes a vehicle from the catalog by id.
func DeleteVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		res, err := db.Exec(`DELETE FROM vehicles WHERE id = $1`, id)
		if err != nil {
			log.Printf("❌ Failed to delete vehicle %s: %v", id, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete vehicle")
			return
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			utils.RespondError(w, http.StatusNotFound, "Vehicle not found")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}
}
