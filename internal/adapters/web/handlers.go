package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pharmacy-inventory/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	// Document payloads are small; 1 MB keeps abuse bounded.
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))

		r.Post("/api/medicines", h.apiRegisterMedicine)
		r.Get("/api/medicines", h.apiListMedicines)
		r.Get("/api/medicines/{barcode}", h.apiGetMedicine)
		r.Get("/api/medicines/{barcode}/balance", h.apiGetBalance)
		r.Get("/api/medicines/{barcode}/movements", h.apiListMovements)

		r.Post("/api/purchase-orders", h.apiCreatePurchaseOrder)
		r.Get("/api/purchase-orders/{number}", h.apiGetPurchaseOrder)

		r.Post("/api/purchase-invoices", h.apiPostPurchaseInvoice)
		r.Get("/api/purchase-invoices/{number}", h.apiGetPurchaseInvoice)

		r.Post("/api/productions", h.apiPostProduction)
		r.Get("/api/productions/{number}", h.apiGetProduction)
		r.Post("/api/productions/{number}/release", h.apiReleaseProduction)

		r.Post("/api/sales-invoices", h.apiPostSalesInvoice)
		r.Get("/api/sales-invoices/{number}", h.apiGetSalesInvoice)

		r.Post("/api/suppliers", h.apiCreateSupplier)
		r.Get("/api/suppliers", h.apiListSuppliers)
		r.Post("/api/customers", h.apiCreateCustomer)
		r.Get("/api/customers", h.apiListCustomers)
	})

	h.router = r
	return r
}

// health reports service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// documentNumber extracts the {number} URL parameter.
func documentNumber(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		writeError(w, r, "invalid document number "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// decodeJSON decodes the request body into v and writes an appropriate error
// response on failure. Returns HTTP 413 when the body exceeds the size limit
// set by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
