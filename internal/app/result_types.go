package app

import (
	"pharmacy-inventory/internal/core"

	"github.com/shopspring/decimal"
)

// MedicineResult is returned by medicine registration and lookup.
type MedicineResult struct {
	Medicine *core.Medicine `json:"medicine"`
}

type MedicineListResult struct {
	Medicines []core.Medicine `json:"medicines"`
}

// BalanceResult reports the on-hand base-unit quantity of one medicine.
type BalanceResult struct {
	MedicineBarcode string          `json:"medicineBarcode"`
	Balance         decimal.Decimal `json:"balance"`
}

type MovementListResult struct {
	MedicineBarcode string               `json:"medicineBarcode"`
	Movements       []core.StockMovement `json:"movements"`
}

// PurchaseOrderResult carries the order with its derived fulfillment state.
type PurchaseOrderResult struct {
	Order *core.PurchaseOrder `json:"order"`
}

// PurchaseInvoiceResult is returned by invoice posting. Balances hold the
// post-receipt stock per medicine; Order is the reconciled purchase order
// when the invoice named one.
type PurchaseInvoiceResult struct {
	Invoice  *core.PurchaseInvoice `json:"invoice"`
	Balances []core.LineBalance    `json:"balances,omitempty"`
	Order    *core.PurchaseOrder   `json:"order,omitempty"`
}

// ProductionResult is returned by batch posting and release. Warnings carry
// soft-check findings such as a cost mismatch on an otherwise posted batch.
type ProductionResult struct {
	Batch    *core.ProductionBatch `json:"batch"`
	Balances []core.LineBalance    `json:"balances,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

type SalesInvoiceResult struct {
	Invoice  *core.SalesInvoice `json:"invoice"`
	Balances []core.LineBalance `json:"balances,omitempty"`
}

type SupplierResult struct {
	Supplier *core.Supplier `json:"supplier"`
}

type SupplierListResult struct {
	Suppliers []core.Supplier `json:"suppliers"`
}

type CustomerResult struct {
	Customer *core.Customer `json:"customer"`
}

type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}
