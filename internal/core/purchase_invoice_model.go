package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseInvoiceLine struct {
	ID              int             `json:"id"`
	LineNo          int             `json:"lineNo"`
	MedicineID      int             `json:"medicineId"`
	MedicineBarcode string          `json:"medicineBarcode"`
	MedicineName    string          `json:"medicineName"`
	Qty             decimal.Decimal `json:"qty"`
	UnitName        string          `json:"unitName"`
	Price           decimal.Decimal `json:"price"`
	DiscountPct     decimal.Decimal `json:"discountPct"`
	TaxPct          decimal.Decimal `json:"taxPct"`
	BatchNumber     string          `json:"batchNumber"`
	ExpiryDate      *time.Time      `json:"expiryDate,omitempty"`
}

type PurchaseInvoice struct {
	ID           int                   `json:"id"`
	Number       int64                 `json:"number"`
	SupplierID   int                   `json:"supplierId"`
	SupplierName string                `json:"supplierName"`
	// PONumber links the invoice to a purchase order; zero means the
	// invoice was a direct purchase and no order reconciliation happens.
	PONumber    int64                 `json:"purchaseOrderNumber,omitempty"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	Discount    decimal.Decimal       `json:"discount"`
	Tax         decimal.Decimal       `json:"tax"`
	TotalPrice  decimal.Decimal       `json:"totalPrice"`
	Description string                `json:"description"`
	InvoiceDate string                `json:"invoiceDate"`
	Lines       []PurchaseInvoiceLine `json:"lines"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// LineBalance reports the stock balance of one medicine after an invoice,
// production or sale was posted against it.
type LineBalance struct {
	MedicineBarcode string          `json:"medicineBarcode"`
	MedicineName    string          `json:"medicineName"`
	Balance         decimal.Decimal `json:"balance"`
}
