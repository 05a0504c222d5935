package app

import (
	"github.com/shopspring/decimal"
)

// RegisterMedicineRequest creates a medicine master record with its
// packaging tiers. Tiers are listed smallest first; the first tier is the
// base unit and must have ratio 1.
type RegisterMedicineRequest struct {
	Barcode     string          `json:"barcode" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Units       []UnitTierInput `json:"units" validate:"required,min=1,dive"`
	OpeningQty  decimal.Decimal `json:"openingQty"`
}

type UnitTierInput struct {
	Name        string          `json:"name" validate:"required"`
	RatioToBase decimal.Decimal `json:"ratioToBase" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	DiscountPct decimal.Decimal `json:"discountPct"`
}

type CreatePurchaseOrderRequest struct {
	Number      int64         `json:"number" validate:"required,gt=0"`
	SupplierID  int           `json:"supplierId" validate:"required,gt=0"`
	Company     string        `json:"company"`
	InvoiceDate string        `json:"invoiceDate" validate:"required,datetime=2006-01-02"`
	Lines       []POLineInput `json:"lines" validate:"required,min=1,dive"`
}

type POLineInput struct {
	MedicineBarcode string          `json:"medicineBarcode" validate:"required"`
	OrderedQty      decimal.Decimal `json:"orderedQty" validate:"required"`
	Unit            string          `json:"unit" validate:"required"`
	Remarks         string          `json:"remarks"`
}

type PostPurchaseInvoiceRequest struct {
	Number              int64               `json:"number" validate:"required,gt=0"`
	SupplierID          int                 `json:"supplierId" validate:"required,gt=0"`
	PurchaseOrderNumber int64               `json:"purchaseOrderNumber"`
	Subtotal            decimal.Decimal     `json:"subtotal"`
	Discount            decimal.Decimal     `json:"discount"`
	Tax                 decimal.Decimal     `json:"tax"`
	TotalPrice          decimal.Decimal     `json:"totalPrice"`
	Description         string              `json:"description"`
	InvoiceDate         string              `json:"invoiceDate" validate:"required,datetime=2006-01-02"`
	Lines               []PurchaseLineInput `json:"lines" validate:"required,min=1,dive"`
}

type PurchaseLineInput struct {
	MedicineBarcode string          `json:"medicineBarcode" validate:"required"`
	Qty             decimal.Decimal `json:"qty" validate:"required"`
	Unit            string          `json:"unit" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	DiscountPct     decimal.Decimal `json:"discountPct"`
	TaxPct          decimal.Decimal `json:"taxPct"`
	BatchNumber     string          `json:"batchNumber"`
	ExpiryDate      string          `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}

type PostProductionRequest struct {
	Number           int64                  `json:"number" validate:"required,gt=0"`
	OutputBarcode    string                 `json:"outputBarcode" validate:"required"`
	OutputQty        decimal.Decimal        `json:"outputQty" validate:"required"`
	OutputUnit       string                 `json:"outputUnit" validate:"required"`
	ProductionDate   string                 `json:"productionDate" validate:"required,datetime=2006-01-02"`
	Description      string                 `json:"description"`
	UpdatedToStock   bool                   `json:"updatedToStock"`
	UpdatedToAccount bool                   `json:"updatedToAccount"`
	TotalCost        decimal.Decimal        `json:"totalCost"`
	Inputs           []ProductionInputInput `json:"inputs" validate:"required,min=1,dive"`
}

type ProductionInputInput struct {
	MedicineBarcode string          `json:"medicineBarcode" validate:"required"`
	Qty             decimal.Decimal `json:"qty" validate:"required"`
	Unit            string          `json:"unit" validate:"required"`
	Cost            decimal.Decimal `json:"cost"`
}

type PostSalesInvoiceRequest struct {
	Number         int64           `json:"number" validate:"required,gt=0"`
	CustomerID     int             `json:"customerId" validate:"required,gt=0"`
	PaymentMethod  string          `json:"paymentMethod"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`
	InvoiceDate    string          `json:"invoiceDate" validate:"required,datetime=2006-01-02"`
	AllowBackorder bool            `json:"allowBackorder"`
	Lines          []SaleLineInput `json:"lines" validate:"required,min=1,dive"`
}

type SaleLineInput struct {
	MedicineBarcode string          `json:"medicineBarcode" validate:"required"`
	Qty             decimal.Decimal `json:"qty" validate:"required"`
	Unit            string          `json:"unit" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	DiscountPct     decimal.Decimal `json:"discountPct"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type CreateSupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	ContactPerson string `json:"contactPerson"`
	Terms         string `json:"terms"`
	Taxable       bool   `json:"taxable"`
}

type CreateCustomerRequest struct {
	Name string `json:"name" validate:"required"`
}
