package web

import (
	"net/http"

	"pharmacy-inventory/internal/app"
)

// apiPostProduction handles POST /api/productions.
func (h *Handler) apiPostProduction(w http.ResponseWriter, r *http.Request) {
	var req app.PostProductionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.PostProduction(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetProduction handles GET /api/productions/{number}.
func (h *Handler) apiGetProduction(w http.ResponseWriter, r *http.Request) {
	number, ok := documentNumber(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetProduction(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReleaseProduction handles POST /api/productions/{number}/release.
func (h *Handler) apiReleaseProduction(w http.ResponseWriter, r *http.Request) {
	number, ok := documentNumber(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ReleaseProduction(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
