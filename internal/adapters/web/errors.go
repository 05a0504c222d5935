package web

import (
	"encoding/json"
	"net/http"

	"pharmacy-inventory/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// kindStatus maps the service error taxonomy to HTTP status codes.
// Anything unmapped is a 500.
var kindStatus = map[core.Kind]int{
	core.KindValidation:        http.StatusBadRequest,
	core.KindUnknownMedicine:   http.StatusUnprocessableEntity,
	core.KindUnknownUnit:       http.StatusUnprocessableEntity,
	core.KindInsufficientStock: http.StatusConflict,
	core.KindOverReceipt:       http.StatusConflict,
	core.KindPOMismatch:        http.StatusUnprocessableEntity,
	core.KindConflict:          http.StatusConflict,
	core.KindNotFound:          http.StatusNotFound,
	core.KindLockTimeout:       http.StatusServiceUnavailable,
}

// writeServiceError translates a service failure into the JSON error shape,
// keeping the machine-readable kind as the code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		writeError(w, r, err.Error(), "INTERNAL", http.StatusInternalServerError)
		return
	}
	writeError(w, r, err.Error(), string(kind), status)
}
