package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesInvoiceLine struct {
	ID              int             `json:"id"`
	LineNo          int             `json:"lineNo"`
	MedicineID      int             `json:"medicineId"`
	MedicineBarcode string          `json:"medicineBarcode"`
	MedicineName    string          `json:"medicineName"`
	Qty             decimal.Decimal `json:"qty"`
	UnitName        string          `json:"unitName"`
	Price           decimal.Decimal `json:"price"`
	DiscountPct     decimal.Decimal `json:"discountPct"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type SalesInvoice struct {
	ID            int                `json:"id"`
	Number        int64              `json:"number"`
	CustomerID    int                `json:"customerId"`
	CustomerName  string             `json:"customerName"`
	PaymentMethod string             `json:"paymentMethod"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Discount      decimal.Decimal    `json:"discount"`
	Tax           decimal.Decimal    `json:"tax"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	PaidAmount    decimal.Decimal    `json:"paidAmount"`
	ChangeAmount  decimal.Decimal    `json:"changeAmount"`
	InvoiceDate   string             `json:"invoiceDate"`
	// AllowBackorder lets lines drive stock negative instead of failing.
	AllowBackorder bool               `json:"allowBackorder,omitempty"`
	Lines          []SalesInvoiceLine `json:"lines"`
	CreatedAt      time.Time          `json:"createdAt"`
}
