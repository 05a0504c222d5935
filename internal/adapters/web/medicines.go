package web

import (
	"net/http"
	"time"

	"pharmacy-inventory/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiRegisterMedicine handles POST /api/medicines.
func (h *Handler) apiRegisterMedicine(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterMedicineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.RegisterMedicine(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListMedicines handles GET /api/medicines.
func (h *Handler) apiListMedicines(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListMedicines(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetMedicine handles GET /api/medicines/{barcode}.
func (h *Handler) apiGetMedicine(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetMedicine(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetBalance handles GET /api/medicines/{barcode}/balance.
func (h *Handler) apiGetBalance(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetBalance(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListMovements handles GET /api/medicines/{barcode}/movements.
// Optional from/to query parameters bound the range (RFC 3339).
func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid from timestamp: "+v, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, r, "invalid to timestamp: "+v, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		to = t
	}
	result, err := h.svc.ListMovements(r.Context(), chi.URLParam(r, "barcode"), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
