package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentState is derived from line quantities on every read; it is
// never stored. The progression Open → Partial → Fulfilled is monotonic
// because received quantities only grow.
type FulfillmentState string

const (
	StateOpen      FulfillmentState = "OPEN"
	StatePartial   FulfillmentState = "PARTIAL"
	StateFulfilled FulfillmentState = "FULFILLED"
)

// POLine is one purchase order line. OrderedQty is in the line's own unit;
// ReceivedQtyBase is tracked in base units so receipt comparisons are
// exact. ReceivedQty is the display conversion back into the line's unit.
type POLine struct {
	ID              int             `json:"id"`
	LineNo          int             `json:"lineNo"`
	MedicineID      int             `json:"-"`
	MedicineBarcode string          `json:"medicineBarcode"`
	MedicineName    string          `json:"medicineName"`
	OrderedQty      decimal.Decimal `json:"orderedQty"`
	ReceivedQty     decimal.Decimal `json:"receivedQty"`
	UnitName        string          `json:"unit"`
	Remarks         string          `json:"remarks,omitempty"`

	OrderedQtyBase  decimal.Decimal `json:"-"`
	ReceivedQtyBase decimal.Decimal `json:"-"`
}

// Fulfilled reports whether the line is completely received.
func (l POLine) Fulfilled() bool {
	return l.ReceivedQtyBase.GreaterThanOrEqual(l.OrderedQtyBase)
}

// PurchaseOrder is an order placed with a supplier, identified by its
// caller-supplied number.
type PurchaseOrder struct {
	ID           int              `json:"id"`
	Number       int64            `json:"number"`
	SupplierID   int              `json:"supplierId"`
	SupplierName string           `json:"supplierName"`
	Company      string           `json:"company,omitempty"`
	InvoiceDate  string           `json:"invoiceDate"` // YYYY-MM-DD
	State        FulfillmentState `json:"state"`
	Lines        []POLine         `json:"lines"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// DeriveFulfillment classifies a line set: OPEN when nothing has been
// received, FULFILLED when every line is complete, PARTIAL otherwise.
func DeriveFulfillment(lines []POLine) FulfillmentState {
	if len(lines) == 0 {
		return StateOpen
	}
	anyReceived := false
	allFulfilled := true
	for _, l := range lines {
		if l.ReceivedQtyBase.IsPositive() {
			anyReceived = true
		}
		if !l.Fulfilled() {
			allFulfilled = false
		}
	}
	switch {
	case allFulfilled:
		return StateFulfilled
	case anyReceived:
		return StatePartial
	default:
		return StateOpen
	}
}

// ReceiptLine is one invoice line's contribution to a purchase order,
// already converted to base units by the reconciler.
type ReceiptLine struct {
	Medicine *Medicine
	QtyBase  decimal.Decimal
}
