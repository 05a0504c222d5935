package app

import (
	"context"
	"time"
)

// ApplicationService is the single interface the web adapter and the
// command-line tools call. It decouples transport from business logic.
// Implementations must contain no HTTP types and no display logic.
type ApplicationService interface {
	// RegisterMedicine creates a medicine with its packaging tiers. An
	// opening quantity is posted as an initial stock receipt.
	RegisterMedicine(ctx context.Context, req RegisterMedicineRequest) (*MedicineResult, error)

	// GetMedicine returns one medicine by barcode, tiers included.
	GetMedicine(ctx context.Context, barcode string) (*MedicineResult, error)

	// ListMedicines returns all registered medicines.
	ListMedicines(ctx context.Context) (*MedicineListResult, error)

	// GetBalance returns the current base-unit balance of a medicine.
	GetBalance(ctx context.Context, barcode string) (*BalanceResult, error)

	// ListMovements returns a medicine's stock movements, optionally
	// bounded by time. Zero bounds mean unbounded.
	ListMovements(ctx context.Context, barcode string, from, to time.Time) (*MovementListResult, error)

	// CreatePurchaseOrder records an order with all lines unreceived.
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)

	// GetPurchaseOrder returns an order with its derived fulfillment state.
	GetPurchaseOrder(ctx context.Context, number int64) (*PurchaseOrderResult, error)

	// PostPurchaseInvoice stores the invoice, advances the linked purchase
	// order if one is named, and increases stock for every line.
	PostPurchaseInvoice(ctx context.Context, req PostPurchaseInvoiceRequest) (*PurchaseInvoiceResult, error)

	// GetPurchaseInvoice returns a posted invoice.
	GetPurchaseInvoice(ctx context.Context, number int64) (*PurchaseInvoiceResult, error)

	// PostProduction posts a compounding batch, or records it pending when
	// the request withholds the stock update.
	PostProduction(ctx context.Context, req PostProductionRequest) (*ProductionResult, error)

	// ReleaseProduction posts the movements of a pending batch.
	ReleaseProduction(ctx context.Context, number int64) (*ProductionResult, error)

	// GetProduction returns a batch with its inputs.
	GetProduction(ctx context.Context, number int64) (*ProductionResult, error)

	// PostSalesInvoice decrements stock for every sold line.
	PostSalesInvoice(ctx context.Context, req PostSalesInvoiceRequest) (*SalesInvoiceResult, error)

	// GetSalesInvoice returns a posted sales invoice.
	GetSalesInvoice(ctx context.Context, number int64) (*SalesInvoiceResult, error)

	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResult, error)
	ListSuppliers(ctx context.Context) (*SupplierListResult, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResult, error)
	ListCustomers(ctx context.Context) (*CustomerListResult, error)
}
