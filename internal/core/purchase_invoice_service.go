package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseInvoiceService posts supplier invoices: stores the document,
// increases stock for every line, and when the invoice names a purchase
// order also advances that order's received quantities. The whole posting
// is one transaction; any failing line rolls everything back.
type PurchaseInvoiceService interface {
	PostInvoice(ctx context.Context, inv PurchaseInvoice) (*PurchaseInvoice, []LineBalance, error)
	GetInvoice(ctx context.Context, number int64) (*PurchaseInvoice, error)
}

type purchaseInvoiceService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
	orders PurchaseOrderService
}

func NewPurchaseInvoiceService(pool *pgxpool.Pool, ledger *StockLedger, orders PurchaseOrderService) PurchaseInvoiceService {
	return &purchaseInvoiceService{pool: pool, ledger: ledger, orders: orders}
}

type invoiceLine struct {
	med     *Medicine
	line    PurchaseInvoiceLine
	qtyBase decimal.Decimal
}

func (s *purchaseInvoiceService) PostInvoice(ctx context.Context, inv PurchaseInvoice) (*PurchaseInvoice, []LineBalance, error) {
	if len(inv.Lines) == 0 {
		return nil, nil, E(KindValidation, "purchase invoice must have at least one line")
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	// Validate every line before anything is written.
	var lines []invoiceLine
	for i, l := range inv.Lines {
		med, err := medicineByBarcode(ctx, tx, l.MedicineBarcode)
		if err != nil {
			return nil, nil, err
		}
		if !l.Qty.IsPositive() {
			return nil, nil, E(KindValidation, "line %d: quantity must be positive, got %s", i+1, l.Qty)
		}
		qtyBase, err := ToBaseUnits(med, l.Qty, l.UnitName)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, invoiceLine{med: med, line: l, qtyBase: qtyBase})
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_invoices (number, supplier_id, purchase_order_number, subtotal, discount, tax, total_price, description, invoice_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, inv.Number, inv.SupplierID, nullableNumber(inv.PONumber), inv.Subtotal, inv.Discount, inv.Tax,
		inv.TotalPrice, inv.Description, inv.InvoiceDate).Scan(&invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, E(KindConflict, "purchase invoice %d already exists", inv.Number)
		}
		return nil, nil, fmt.Errorf("insert purchase invoice %d: %w", inv.Number, err)
	}

	for i, il := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_invoice_lines (invoice_id, line_no, medicine_id, qty, unit_name, price, discount_pct, tax_pct, batch_number, expiry_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, invoiceID, i+1, il.med.ID, il.line.Qty, il.line.UnitName, il.line.Price,
			il.line.DiscountPct, il.line.TaxPct, il.line.BatchNumber, il.line.ExpiryDate); err != nil {
			return nil, nil, fmt.Errorf("insert invoice line %d: %w", i+1, err)
		}
	}

	// Reconcile the purchase order before touching stock so an over-receipt
	// aborts without any movement written.
	if inv.PONumber != 0 {
		// One receipt per medicine: lines for the same medicine merge so the
		// per-(line, invoice) idempotency guard cannot swallow the second.
		byMedicine := map[int]int{}
		var receipts []ReceiptLine
		for _, il := range lines {
			if idx, ok := byMedicine[il.med.ID]; ok {
				receipts[idx].QtyBase = receipts[idx].QtyBase.Add(il.qtyBase)
				continue
			}
			byMedicine[il.med.ID] = len(receipts)
			receipts = append(receipts, ReceiptLine{Medicine: il.med, QtyBase: il.qtyBase})
		}
		if err := s.orders.ApplyReceiptTx(ctx, tx, inv.PONumber, inv.Number, receipts); err != nil {
			return nil, nil, err
		}
	}

	// Medicine rows are locked in ascending barcode order. Line numbers in
	// the movement keys follow the invoice, not the lock order, so reposts
	// of the same invoice always hit the same keys.
	type keyed struct {
		il     invoiceLine
		lineNo int
	}
	posting := make([]keyed, 0, len(lines))
	for i, il := range lines {
		posting = append(posting, keyed{il: il, lineNo: i + 1})
	}
	sort.Slice(posting, func(a, b int) bool {
		return posting[a].il.med.Barcode < posting[b].il.med.Barcode
	})

	balances := map[string]LineBalance{}
	for _, p := range posting {
		balance, err := s.ledger.PostMovementTx(ctx, tx, Movement{
			MedicineID:     p.il.med.ID,
			Barcode:        p.il.med.Barcode,
			Delta:          p.il.qtyBase,
			Reason:         ReasonPurchaseReceipt,
			SourceDoc:      fmt.Sprintf("PI-%d", inv.Number),
			IdempotencyKey: fmt.Sprintf("pi-%d-line-%d", inv.Number, p.lineNo),
		})
		if err != nil {
			return nil, nil, err
		}
		balances[p.il.med.Barcode] = LineBalance{
			MedicineBarcode: p.il.med.Barcode,
			MedicineName:    p.il.med.Name,
			Balance:         balance,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit purchase invoice %d: %w", inv.Number, err)
	}

	// Balances reported in invoice line order, once per medicine.
	var out []LineBalance
	seen := map[string]bool{}
	for _, il := range lines {
		if seen[il.med.Barcode] {
			continue
		}
		seen[il.med.Barcode] = true
		out = append(out, balances[il.med.Barcode])
	}

	posted, err := s.GetInvoice(ctx, inv.Number)
	if err != nil {
		return nil, nil, err
	}
	return posted, out, nil
}

func (s *purchaseInvoiceService) GetInvoice(ctx context.Context, number int64) (*PurchaseInvoice, error) {
	inv := &PurchaseInvoice{}
	var poNumber *int64
	err := s.pool.QueryRow(ctx, `
		SELECT pi.id, pi.number, pi.supplier_id, s.name, pi.purchase_order_number,
		       pi.subtotal, pi.discount, pi.tax, pi.total_price, pi.description,
		       pi.invoice_date::text, pi.created_at
		FROM purchase_invoices pi
		JOIN suppliers s ON s.id = pi.supplier_id
		WHERE pi.number = $1
	`, number).Scan(&inv.ID, &inv.Number, &inv.SupplierID, &inv.SupplierName, &poNumber,
		&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.TotalPrice, &inv.Description,
		&inv.InvoiceDate, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindNotFound, "purchase invoice %d not found", number)
		}
		return nil, fmt.Errorf("fetch purchase invoice %d: %w", number, err)
	}
	if poNumber != nil {
		inv.PONumber = *poNumber
	}

	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.line_no, l.medicine_id, m.barcode, m.name, l.qty, l.unit_name,
		       l.price, l.discount_pct, l.tax_pct, l.batch_number, l.expiry_date
		FROM purchase_invoice_lines l
		JOIN medicines m ON m.id = l.medicine_id
		WHERE l.invoice_id = $1
		ORDER BY l.line_no
	`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch invoice lines for %d: %w", number, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l PurchaseInvoiceLine
		if err := rows.Scan(&l.ID, &l.LineNo, &l.MedicineID, &l.MedicineBarcode, &l.MedicineName,
			&l.Qty, &l.UnitName, &l.Price, &l.DiscountPct, &l.TaxPct, &l.BatchNumber, &l.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

// nullableNumber maps the zero value to NULL for optional document links.
func nullableNumber(n int64) *int64 {
	if n == 0 {
		return nil
	}
	return &n
}
