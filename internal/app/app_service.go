package app

import (
	"context"
	"errors"
	"time"

	"pharmacy-inventory/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// validate is shared; validator instances cache struct metadata.
var validate = validator.New()

type appService struct {
	pool        *pgxpool.Pool
	ledger      *core.StockLedger
	medicines   core.MedicineService
	orders      core.PurchaseOrderService
	invoices    core.PurchaseInvoiceService
	productions core.ProductionService
	sales       core.SalesService
	partners    core.PartnerService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	ledger *core.StockLedger,
	medicines core.MedicineService,
	orders core.PurchaseOrderService,
	invoices core.PurchaseInvoiceService,
	productions core.ProductionService,
	sales core.SalesService,
	partners core.PartnerService,
) ApplicationService {
	return &appService{
		pool:        pool,
		ledger:      ledger,
		medicines:   medicines,
		orders:      orders,
		invoices:    invoices,
		productions: productions,
		sales:       sales,
		partners:    partners,
	}
}

// checkRequest maps struct tag violations onto the shared error taxonomy so
// adapters see one kind for every malformed payload.
func checkRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return core.E(core.KindValidation, "field %q fails rule %q", f.Field(), f.Tag())
		}
		return core.E(core.KindValidation, "invalid payload: %v", err)
	}
	return nil
}

func (s *appService) RegisterMedicine(ctx context.Context, req RegisterMedicineRequest) (*MedicineResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	med := core.Medicine{
		Barcode:     req.Barcode,
		Name:        req.Name,
		Description: req.Description,
	}
	for i, u := range req.Units {
		med.Units = append(med.Units, core.UnitTier{
			TierNo:      i + 1,
			Name:        u.Name,
			RatioToBase: u.RatioToBase,
			Price:       u.Price,
			DiscountPct: u.DiscountPct,
		})
	}
	created, err := s.medicines.Register(ctx, med, req.OpeningQty, s.ledger)
	if err != nil {
		return nil, err
	}
	return &MedicineResult{Medicine: created}, nil
}

func (s *appService) GetMedicine(ctx context.Context, barcode string) (*MedicineResult, error) {
	med, err := s.medicines.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return &MedicineResult{Medicine: med}, nil
}

func (s *appService) ListMedicines(ctx context.Context) (*MedicineListResult, error) {
	meds, err := s.medicines.List(ctx)
	if err != nil {
		return nil, err
	}
	return &MedicineListResult{Medicines: meds}, nil
}

func (s *appService) GetBalance(ctx context.Context, barcode string) (*BalanceResult, error) {
	qty, err := s.ledger.Balance(ctx, barcode)
	if err != nil {
		return nil, err
	}
	return &BalanceResult{MedicineBarcode: barcode, Balance: qty}, nil
}

func (s *appService) ListMovements(ctx context.Context, barcode string, from, to time.Time) (*MovementListResult, error) {
	moves, err := s.ledger.Movements(ctx, barcode, from, to)
	if err != nil {
		return nil, err
	}
	return &MovementListResult{MedicineBarcode: barcode, Movements: moves}, nil
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	po := core.PurchaseOrder{
		Number:      req.Number,
		SupplierID:  req.SupplierID,
		Company:     req.Company,
		InvoiceDate: req.InvoiceDate,
	}
	for _, l := range req.Lines {
		po.Lines = append(po.Lines, core.POLine{
			MedicineBarcode: l.MedicineBarcode,
			OrderedQty:      l.OrderedQty,
			UnitName:        l.Unit,
			Remarks:         l.Remarks,
		})
	}
	created, err := s.orders.CreateOrder(ctx, po)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: created}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, number int64) (*PurchaseOrderResult, error) {
	po, err := s.orders.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: po}, nil
}

func (s *appService) PostPurchaseInvoice(ctx context.Context, req PostPurchaseInvoiceRequest) (*PurchaseInvoiceResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	inv := core.PurchaseInvoice{
		Number:      req.Number,
		SupplierID:  req.SupplierID,
		PONumber:    req.PurchaseOrderNumber,
		Subtotal:    req.Subtotal,
		Discount:    req.Discount,
		Tax:         req.Tax,
		TotalPrice:  req.TotalPrice,
		Description: req.Description,
		InvoiceDate: req.InvoiceDate,
	}
	for _, l := range req.Lines {
		expiry, err := parseDate(l.ExpiryDate)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, core.PurchaseInvoiceLine{
			MedicineBarcode: l.MedicineBarcode,
			Qty:             l.Qty,
			UnitName:        l.Unit,
			Price:           l.Price,
			DiscountPct:     l.DiscountPct,
			TaxPct:          l.TaxPct,
			BatchNumber:     l.BatchNumber,
			ExpiryDate:      expiry,
		})
	}
	posted, balances, err := s.invoices.PostInvoice(ctx, inv)
	if err != nil {
		return nil, err
	}
	result := &PurchaseInvoiceResult{Invoice: posted, Balances: balances}
	if posted.PONumber != 0 {
		order, err := s.orders.GetOrder(ctx, posted.PONumber)
		if err != nil {
			return nil, err
		}
		result.Order = order
	}
	return result, nil
}

func (s *appService) GetPurchaseInvoice(ctx context.Context, number int64) (*PurchaseInvoiceResult, error) {
	inv, err := s.invoices.GetInvoice(ctx, number)
	if err != nil {
		return nil, err
	}
	return &PurchaseInvoiceResult{Invoice: inv}, nil
}

func (s *appService) PostProduction(ctx context.Context, req PostProductionRequest) (*ProductionResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	batch := core.ProductionBatch{
		Number:           req.Number,
		OutputBarcode:    req.OutputBarcode,
		OutputQty:        req.OutputQty,
		OutputUnit:       req.OutputUnit,
		ProductionDate:   req.ProductionDate,
		Description:      req.Description,
		UpdatedToStock:   req.UpdatedToStock,
		UpdatedToAccount: req.UpdatedToAccount,
		TotalCost:        req.TotalCost,
	}
	for _, in := range req.Inputs {
		batch.Inputs = append(batch.Inputs, core.ProductionInput{
			MedicineBarcode: in.MedicineBarcode,
			Qty:             in.Qty,
			UnitName:        in.Unit,
			Cost:            in.Cost,
		})
	}
	posted, balances, warnings, err := s.productions.PostBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Batch: posted, Balances: balances, Warnings: warnings}, nil
}

func (s *appService) ReleaseProduction(ctx context.Context, number int64) (*ProductionResult, error) {
	posted, balances, warnings, err := s.productions.ReleaseBatch(ctx, number)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Batch: posted, Balances: balances, Warnings: warnings}, nil
}

func (s *appService) GetProduction(ctx context.Context, number int64) (*ProductionResult, error) {
	batch, err := s.productions.GetBatch(ctx, number)
	if err != nil {
		return nil, err
	}
	return &ProductionResult{Batch: batch}, nil
}

func (s *appService) PostSalesInvoice(ctx context.Context, req PostSalesInvoiceRequest) (*SalesInvoiceResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	inv := core.SalesInvoice{
		Number:         req.Number,
		CustomerID:     req.CustomerID,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       req.Subtotal,
		Discount:       req.Discount,
		Tax:            req.Tax,
		TotalPrice:     req.TotalPrice,
		PaidAmount:     req.PaidAmount,
		ChangeAmount:   req.ChangeAmount,
		InvoiceDate:    req.InvoiceDate,
		AllowBackorder: req.AllowBackorder,
	}
	if inv.PaymentMethod == "" {
		inv.PaymentMethod = "CASH"
	}
	for _, l := range req.Lines {
		inv.Lines = append(inv.Lines, core.SalesInvoiceLine{
			MedicineBarcode: l.MedicineBarcode,
			Qty:             l.Qty,
			UnitName:        l.Unit,
			Price:           l.Price,
			DiscountPct:     l.DiscountPct,
			Subtotal:        l.Subtotal,
		})
	}
	posted, balances, err := s.sales.PostInvoice(ctx, inv)
	if err != nil {
		return nil, err
	}
	return &SalesInvoiceResult{Invoice: posted, Balances: balances}, nil
}

func (s *appService) GetSalesInvoice(ctx context.Context, number int64) (*SalesInvoiceResult, error) {
	inv, err := s.sales.GetInvoice(ctx, number)
	if err != nil {
		return nil, err
	}
	return &SalesInvoiceResult{Invoice: inv}, nil
}

func (s *appService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	sup, err := s.partners.CreateSupplier(ctx, core.Supplier{
		Name:          req.Name,
		Address:       req.Address,
		Phone:         req.Phone,
		ContactPerson: req.ContactPerson,
		Terms:         req.Terms,
		Taxable:       req.Taxable,
	})
	if err != nil {
		return nil, err
	}
	return &SupplierResult{Supplier: sup}, nil
}

func (s *appService) ListSuppliers(ctx context.Context) (*SupplierListResult, error) {
	sups, err := s.partners.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: sups}, nil
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	cust, err := s.partners.CreateCustomer(ctx, core.Customer{Name: req.Name})
	if err != nil {
		return nil, err
	}
	return &CustomerResult{Customer: cust}, nil
}

func (s *appService) ListCustomers(ctx context.Context) (*CustomerListResult, error) {
	custs, err := s.partners.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: custs}, nil
}

// parseDate accepts an optional YYYY-MM-DD string.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, core.E(core.KindValidation, "invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
