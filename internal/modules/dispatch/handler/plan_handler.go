package handler

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/middleware"
	"buyerdispatch/internal/modules/dispatch/service"
)

// PlanHandler exposes the §6 planning endpoints: assign, route, and the
// combined dispatch that runs the full pipeline.
type PlanHandler struct {
	orchestrator *service.PlanOrchestrator
}

func NewPlanHandler(orchestrator *service.PlanOrchestrator) *PlanHandler {
	return &PlanHandler{orchestrator: orchestrator}
}

func (h *PlanHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/plan/assign", h.Assign)
	router.POST("/plan/routes", h.Routes)
	router.POST("/plan/dispatch", h.Dispatch)
}

func (h *PlanHandler) Assign(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	summary, err := h.orchestrator.AssignOnly(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assigned_count": summary.AssignedCount,
		"assigned_tasks": summary.AssignedTasks,
		"staff_count":    summary.StaffCount,
	})
}

func (h *PlanHandler) Routes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	routeIDs, err := h.orchestrator.RouteOnly(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"route_ids": routeIDs})
}

func (h *PlanHandler) Dispatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := parseDate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "staff identity required"})
		return
	}
	if !service.Can(claims.Role, service.ActionDispatchPlan) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "staff is not authorized to dispatch a plan"})
		return
	}

	result, err := h.orchestrator.PlanDay(r.Context(), date, true)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assigned_count": result.AssignSummary.AssignedCount,
		"assigned_tasks": result.AssignSummary.AssignedTasks,
		"staff_count":    result.AssignSummary.StaffCount,
		"route_ids":      result.RouteIDs,
		"dispatched":     result.Dispatched,
	})
}

func parseDate(r *http.Request) (time.Time, error) {
	q := r.URL.Query().Get("date")
	if q == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", q)
}
