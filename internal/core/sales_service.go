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

// SalesService posts sales invoices against the ledger. A sale only touches
// stock; purchase orders and productions are never consulted.
type SalesService interface {
	PostInvoice(ctx context.Context, inv SalesInvoice) (*SalesInvoice, []LineBalance, error)
	GetInvoice(ctx context.Context, number int64) (*SalesInvoice, error)
}

type salesService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
}

func NewSalesService(pool *pgxpool.Pool, ledger *StockLedger) SalesService {
	return &salesService{pool: pool, ledger: ledger}
}

func (s *salesService) PostInvoice(ctx context.Context, inv SalesInvoice) (*SalesInvoice, []LineBalance, error) {
	if len(inv.Lines) == 0 {
		return nil, nil, E(KindValidation, "sales invoice must have at least one line")
	}
	// A cash sale must cover the total minus the change handed back.
	if inv.PaidAmount.LessThan(inv.TotalPrice.Sub(inv.ChangeAmount)) {
		return nil, nil, E(KindValidation,
			"paid amount %s does not cover total %s less change %s",
			inv.PaidAmount, inv.TotalPrice, inv.ChangeAmount)
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	type saleLine struct {
		med     *Medicine
		line    SalesInvoiceLine
		lineNo  int
		qtyBase decimal.Decimal
	}
	var lines []saleLine
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
		lines = append(lines, saleLine{med: med, line: l, lineNo: i + 1, qtyBase: qtyBase})
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO sales_invoices (number, customer_id, payment_method, subtotal, discount, tax, total_price, paid_amount, change_amount, invoice_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, inv.Number, inv.CustomerID, inv.PaymentMethod, inv.Subtotal, inv.Discount, inv.Tax,
		inv.TotalPrice, inv.PaidAmount, inv.ChangeAmount, inv.InvoiceDate).Scan(&invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, E(KindConflict, "sales invoice %d already exists", inv.Number)
		}
		return nil, nil, fmt.Errorf("insert sales invoice %d: %w", inv.Number, err)
	}

	for _, sl := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sales_invoice_lines (invoice_id, line_no, medicine_id, qty, unit_name, price, discount_pct, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, invoiceID, sl.lineNo, sl.med.ID, sl.line.Qty, sl.line.UnitName,
			sl.line.Price, sl.line.DiscountPct, sl.line.Subtotal); err != nil {
			return nil, nil, fmt.Errorf("insert sale line %d: %w", sl.lineNo, err)
		}
	}

	// Lock in ascending barcode order so concurrent multi-line sales cannot
	// deadlock each other.
	posting := make([]saleLine, len(lines))
	copy(posting, lines)
	sort.Slice(posting, func(a, b int) bool {
		return posting[a].med.Barcode < posting[b].med.Barcode
	})

	balances := map[string]LineBalance{}
	for _, sl := range posting {
		balance, err := s.ledger.PostMovementTx(ctx, tx, Movement{
			MedicineID:     sl.med.ID,
			Barcode:        sl.med.Barcode,
			Delta:          sl.qtyBase.Neg(),
			Reason:         ReasonSale,
			SourceDoc:      fmt.Sprintf("SI-%d", inv.Number),
			IdempotencyKey: fmt.Sprintf("si-%d-line-%d", inv.Number, sl.lineNo),
			AllowBackorder: inv.AllowBackorder,
		})
		if err != nil {
			return nil, nil, err
		}
		balances[sl.med.Barcode] = LineBalance{
			MedicineBarcode: sl.med.Barcode, MedicineName: sl.med.Name, Balance: balance,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit sales invoice %d: %w", inv.Number, err)
	}

	var out []LineBalance
	seen := map[string]bool{}
	for _, sl := range lines {
		if seen[sl.med.Barcode] {
			continue
		}
		seen[sl.med.Barcode] = true
		out = append(out, balances[sl.med.Barcode])
	}

	posted, err := s.GetInvoice(ctx, inv.Number)
	if err != nil {
		return nil, nil, err
	}
	return posted, out, nil
}

func (s *salesService) GetInvoice(ctx context.Context, number int64) (*SalesInvoice, error) {
	inv := &SalesInvoice{}
	err := s.pool.QueryRow(ctx, `
		SELECT si.id, si.number, si.customer_id, c.name, si.payment_method,
		       si.subtotal, si.discount, si.tax, si.total_price, si.paid_amount,
		       si.change_amount, si.invoice_date::text, si.created_at
		FROM sales_invoices si
		JOIN customers c ON c.id = si.customer_id
		WHERE si.number = $1
	`, number).Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.CustomerName, &inv.PaymentMethod,
		&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.TotalPrice, &inv.PaidAmount,
		&inv.ChangeAmount, &inv.InvoiceDate, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindNotFound, "sales invoice %d not found", number)
		}
		return nil, fmt.Errorf("fetch sales invoice %d: %w", number, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.line_no, l.medicine_id, m.barcode, m.name, l.qty, l.unit_name,
		       l.price, l.discount_pct, l.subtotal
		FROM sales_invoice_lines l
		JOIN medicines m ON m.id = l.medicine_id
		WHERE l.invoice_id = $1
		ORDER BY l.line_no
	`, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch sale lines for %d: %w", number, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l SalesInvoiceLine
		if err := rows.Scan(&l.ID, &l.LineNo, &l.MedicineID, &l.MedicineBarcode, &l.MedicineName,
			&l.Qty, &l.UnitName, &l.Price, &l.DiscountPct, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}
