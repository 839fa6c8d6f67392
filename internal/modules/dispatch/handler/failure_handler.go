package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/middleware"
	"buyerdispatch/internal/modules/dispatch/service"
	"buyerdispatch/internal/modules/dispatch/types"
)

// FailureHandler records §4.G's out-of-band purchase failures.
type FailureHandler struct {
	db      *sqlx.DB
	tracker *service.ExecutionTracker
}

func NewFailureHandler(db *sqlx.DB, tracker *service.ExecutionTracker) *FailureHandler {
	return &FailureHandler{db: db, tracker: tracker}
}

func (h *FailureHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/failures", h.RecordFailure)
}

func (h *FailureHandler) RecordFailure(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var f types.PurchaseFailure
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "staff identity required"})
		return
	}
	actor := types.Staff{ID: claims.StaffID, Role: claims.Role}

	tx, err := h.db.BeginTxx(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	defer tx.Rollback()

	alternatives, err := h.tracker.RecordFailure(r.Context(), tx, actor, &f)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"failure":               f,
		"alternative_suggestions": alternatives,
	})
}
