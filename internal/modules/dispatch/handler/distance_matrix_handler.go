package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/julienschmidt/httprouter"

	"buyerdispatch/internal/middleware"
	"buyerdispatch/internal/modules/dispatch/service"
)

// DistanceMatrixHandler exposes the §4.B recompute endpoint.
type DistanceMatrixHandler struct {
	db      *sqlx.DB
	builder *service.DistanceMatrixBuilder
}

func NewDistanceMatrixHandler(db *sqlx.DB, builder *service.DistanceMatrixBuilder) *DistanceMatrixHandler {
	return &DistanceMatrixHandler{db: db, builder: builder}
}

func (h *DistanceMatrixHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/distance-matrix/recompute", h.Recompute)
}

func (h *DistanceMatrixHandler) Recompute(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "staff identity required"})
		return
	}
	if !service.Can(claims.Role, service.ActionRecomputeMatrix) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "staff is not authorized to recompute the distance matrix"})
		return
	}

	tx, err := h.db.BeginTxx(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	defer tx.Rollback()

	count, err := h.builder.Recompute(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"edges_updated": count})
}
