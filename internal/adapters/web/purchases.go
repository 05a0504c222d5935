package web

import (
	"net/http"

	"pharmacy-inventory/internal/app"
)

// apiCreatePurchaseOrder handles POST /api/purchase-orders.
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreatePurchaseOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetPurchaseOrder handles GET /api/purchase-orders/{number}.
func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := documentNumber(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseOrder(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiPostPurchaseInvoice handles POST /api/purchase-invoices.
func (h *Handler) apiPostPurchaseInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.PostPurchaseInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.PostPurchaseInvoice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiGetPurchaseInvoice handles GET /api/purchase-invoices/{number}.
func (h *Handler) apiGetPurchaseInvoice(w http.ResponseWriter, r *http.Request) {
	number, ok := documentNumber(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetPurchaseInvoice(r.Context(), number)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
