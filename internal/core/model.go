package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitTier is one packaging level of a medicine. Tier 1 is the base unit
// (RatioToBase = 1); every stock balance is kept in base units.
type UnitTier struct {
	TierNo      int             `json:"tierNo"`
	Name        string          `json:"name"`
	RatioToBase decimal.Decimal `json:"ratioToBase"`
	Price       decimal.Decimal `json:"price"`
	DiscountPct decimal.Decimal `json:"discountPct"`
}

// Medicine is the master record for one stock-keeping item.
// Qty is the cached base-unit balance, a projection of the movement ledger.
type Medicine struct {
	ID          int             `json:"id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	Units       []UnitTier      `json:"units"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MovementReason classifies a stock movement.
type MovementReason string

const (
	ReasonSale              MovementReason = "SALE"
	ReasonPurchaseReceipt   MovementReason = "PURCHASE_RECEIPT"
	ReasonProductionConsume MovementReason = "PRODUCTION_CONSUME"
	ReasonProductionOutput  MovementReason = "PRODUCTION_OUTPUT"
)

// StockMovement is one immutable, signed ledger entry. Delta is in base
// units. Movements are append-only; balances are the sum of deltas.
type StockMovement struct {
	ID              int64           `json:"id"`
	MedicineID      int             `json:"medicineId"`
	MedicineBarcode string          `json:"medicineBarcode,omitempty"`
	Delta           decimal.Decimal `json:"delta"`
	Reason          MovementReason  `json:"reason"`
	SourceDoc       string          `json:"sourceDoc"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Supplier is a vendor master record referenced by purchase documents.
type Supplier struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Terms         string    `json:"terms,omitempty"`
	Taxable       bool      `json:"taxable"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Customer is a buyer master record referenced by sales invoices.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
