package web

import (
	"net/http"

	"pharmacy-inventory/internal/app"
)

// apiPostSalesInvoice handles POST /api/sales-invoices.
func (h *Handler) apiPostSalesInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.PostSalesInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.PostSalesInvoice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetSalesInvoice handles GET /api/sales-invoices/{number}.
func (h *Handler) apiGetSalesInvoice(w http.ResponseWriter, r *http.Request) {
	number, ok := documentNumber(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSalesInvoice(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
