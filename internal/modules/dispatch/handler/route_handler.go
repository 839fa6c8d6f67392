package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/middleware"
	"buyerdispatch/internal/modules/dispatch/service"
	"buyerdispatch/internal/modules/dispatch/types"
)

// RouteHandler exposes the execution-side stop-completion endpoint. Per
// §5's concurrency model, each call opens its own private transaction
// scoped to the one route being updated.
type RouteHandler struct {
	db      *sqlx.DB
	tracker *service.ExecutionTracker
}

func NewRouteHandler(db *sqlx.DB, tracker *service.ExecutionTracker) *RouteHandler {
	return &RouteHandler{db: db, tracker: tracker}
}

func (h *RouteHandler) RegisterRoutes(router *httprouter.Router) {
	router.PATCH("/routes/:route_id/stops/:stop_id", h.CompleteStop)
}

type completeStopRequest struct {
	StopStatus types.RouteStopStatus `json:"stop_status"`
}

func (h *RouteHandler) CompleteStop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	routeID, err := strconv.ParseInt(ps.ByName("route_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid route_id"})
		return
	}
	stopID, err := strconv.ParseInt(ps.ByName("stop_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stop_id"})
		return
	}

	var req completeStopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	if err := h.tracker.CompleteStop(r.Context(), tx, actor, routeID, stopID, req.StopStatus); err != nil {
		writeError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
