package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductionStatus string

const (
	// ProductionPending holds a validated batch whose movements were
	// withheld. Releasing it later posts them.
	ProductionPending ProductionStatus = "PENDING"
	ProductionPosted  ProductionStatus = "POSTED"
)

type ProductionInput struct {
	ID              int             `json:"id"`
	LineNo          int             `json:"lineNo"`
	MedicineID      int             `json:"medicineId"`
	MedicineBarcode string          `json:"medicineBarcode"`
	MedicineName    string          `json:"medicineName"`
	Qty             decimal.Decimal `json:"qty"`
	UnitName        string          `json:"unitName"`
	Cost            decimal.Decimal `json:"cost"`
}

type ProductionBatch struct {
	ID                int               `json:"id"`
	Number            int64             `json:"number"`
	OutputBarcode     string            `json:"outputBarcode"`
	OutputName        string            `json:"outputName,omitempty"`
	OutputQty         decimal.Decimal   `json:"outputQty"`
	OutputUnit        string            `json:"outputUnit"`
	ProductionDate    string            `json:"productionDate"`
	Description       string            `json:"description"`
	Status            ProductionStatus  `json:"status"`
	UpdatedToStock    bool              `json:"updatedToStock"`
	UpdatedToAccount  bool              `json:"updatedToAccount"`
	TotalCost         decimal.Decimal   `json:"totalCost"`
	Inputs            []ProductionInput `json:"inputs"`
	CreatedAt         time.Time         `json:"createdAt"`
	PostedAt          *time.Time        `json:"postedAt,omitempty"`
}
