package handler

import (
	"encoding/json"
	"net/http"

	"buyerdispatch/pkg/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a DispatchError to its taxonomy-declared HTTP status;
// anything else is an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	if de, ok := apperrors.As(err); ok {
		writeJSON(w, de.HTTPStatus(), map[string]string{"code": string(de.Code), "message": de.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "INTERNAL", "message": err.Error()})
}
