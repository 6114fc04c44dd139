package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chainfolio/backend/internal/db"
)

type HealthHandler struct {
	database *db.DB
}

// NewHealthHandler creates the health handler. The database is optional;
// without one the check only reports the process as up.
func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{database: database}
}

// HandleHealth handles GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := map[string]string{"status": "ok"}
	code := http.StatusOK

	if h.database != nil {
		if err := h.database.Health(); err != nil {
			status["status"] = "degraded"
			status["db"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["db"] = "ok"
		}
	}

	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
