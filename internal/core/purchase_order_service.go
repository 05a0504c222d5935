package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService tracks ordered vs. received quantity per line.
// Lines are mutated only through ApplyReceiptTx, driven by posted purchase
// invoices.
type PurchaseOrderService interface {
	// CreateOrder records a new order. Received quantities always start at
	// zero regardless of what the payload carried.
	CreateOrder(ctx context.Context, po PurchaseOrder) (*PurchaseOrder, error)
	GetOrder(ctx context.Context, number int64) (*PurchaseOrder, error)

	// ApplyReceiptTx applies invoice receipts to the order inside the
	// caller's transaction. Idempotent per (invoiceNumber, PO line): a line
	// already receipted from this invoice is skipped. An over-receipt is
	// rejected, never clamped. Returns KindPOMismatch when the order does
	// not exist or has no line for a receipted medicine.
	ApplyReceiptTx(ctx context.Context, tx pgx.Tx, number int64, invoiceNumber int64, receipts []ReceiptLine) error
}

type purchaseOrderService struct {
	pool *pgxpool.Pool
}

func NewPurchaseOrderService(pool *pgxpool.Pool) PurchaseOrderService {
	return &purchaseOrderService{pool: pool}
}

func (s *purchaseOrderService) CreateOrder(ctx context.Context, po PurchaseOrder) (*PurchaseOrder, error) {
	if len(po.Lines) == 0 {
		return nil, E(KindValidation, "purchase order must have at least one line")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Resolve every line up front so a bad line aborts with nothing written.
	type resolved struct {
		med  *Medicine
		line POLine
	}
	var lines []resolved
	for i, l := range po.Lines {
		med, err := medicineByBarcode(ctx, tx, l.MedicineBarcode)
		if err != nil {
			return nil, err
		}
		if _, ok := med.Tier(l.UnitName); !ok {
			return nil, E(KindUnknownUnit, "unknown unit %q for medicine %s (%s)", l.UnitName, med.Barcode, med.Name)
		}
		if !l.OrderedQty.IsPositive() {
			return nil, E(KindValidation, "line %d: ordered quantity must be positive, got %s", i+1, l.OrderedQty)
		}
		lines = append(lines, resolved{med: med, line: l})
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (number, supplier_id, company, invoice_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, po.Number, po.SupplierID, po.Company, po.InvoiceDate).Scan(&orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, E(KindConflict, "purchase order %d already exists", po.Number)
		}
		return nil, fmt.Errorf("insert purchase order %d: %w", po.Number, err)
	}

	for i, rl := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_lines (order_id, line_no, medicine_id, ordered_qty, unit_name, remarks)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, orderID, i+1, rl.med.ID, rl.line.OrderedQty, rl.line.UnitName, rl.line.Remarks); err != nil {
			if isUniqueViolation(err) {
				return nil, E(KindValidation, "medicine %s appears on more than one line", rl.med.Barcode)
			}
			return nil, fmt.Errorf("insert PO line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order %d: %w", po.Number, err)
	}
	return s.GetOrder(ctx, po.Number)
}

func (s *purchaseOrderService) GetOrder(ctx context.Context, number int64) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	err := s.pool.QueryRow(ctx, `
		SELECT po.id, po.number, po.supplier_id, s.name, po.company, po.invoice_date::text, po.created_at
		FROM purchase_orders po
		JOIN suppliers s ON s.id = po.supplier_id
		WHERE po.number = $1
	`, number).Scan(&po.ID, &po.Number, &po.SupplierID, &po.SupplierName, &po.Company, &po.InvoiceDate, &po.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindNotFound, "purchase order %d not found", number)
		}
		return nil, fmt.Errorf("fetch purchase order %d: %w", number, err)
	}

	lines, err := fetchPOLines(ctx, s.pool, po.ID)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	po.State = DeriveFulfillment(lines)
	return po, nil
}

// ApplyReceiptTx locks the order header, then walks the receipts. The
// caller holds (or will take) the medicine row locks; the header lock
// serializes concurrent invoices against the same order.
func (s *purchaseOrderService) ApplyReceiptTx(ctx context.Context, tx pgx.Tx, number int64, invoiceNumber int64, receipts []ReceiptLine) error {
	var orderID int
	err := tx.QueryRow(ctx,
		"SELECT id FROM purchase_orders WHERE number = $1 FOR UPDATE", number,
	).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return E(KindPOMismatch, "purchase order %d referenced by invoice %d does not exist", number, invoiceNumber)
		}
		return fmt.Errorf("lock purchase order %d: %w", number, err)
	}

	for _, rc := range receipts {
		var lineID int
		var ordered, received decimal.Decimal
		var unitName string
		err := tx.QueryRow(ctx, `
			SELECT id, ordered_qty, received_qty_base, unit_name
			FROM purchase_order_lines
			WHERE order_id = $1 AND medicine_id = $2
		`, orderID, rc.Medicine.ID).Scan(&lineID, &ordered, &received, &unitName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return E(KindPOMismatch, "purchase order %d has no line for medicine %s (%s)",
					number, rc.Medicine.Barcode, rc.Medicine.Name)
			}
			return fmt.Errorf("fetch PO line for medicine %s: %w", rc.Medicine.Barcode, err)
		}

		// Idempotency guard: one receipt per (line, invoice).
		var applied bool
		err = tx.QueryRow(ctx, `
			INSERT INTO purchase_receipts (po_line_id, invoice_id, qty_base)
			VALUES ($1, $2, $3)
			ON CONFLICT (po_line_id, invoice_id) DO NOTHING
			RETURNING true
		`, lineID, invoiceNumber, rc.QtyBase).Scan(&applied)
		if errors.Is(err, pgx.ErrNoRows) {
			// Invoice already applied to this line; never double-count.
			continue
		}
		if err != nil {
			return fmt.Errorf("record receipt for PO line %d: %w", lineID, err)
		}

		orderedBase, err := ToBaseUnits(rc.Medicine, ordered, unitName)
		if err != nil {
			return err
		}

		newReceived := received.Add(rc.QtyBase)
		if newReceived.GreaterThan(orderedBase) {
			return E(KindOverReceipt,
				"purchase order %d, medicine %s: receiving %s base units would exceed ordered %s (already received %s)",
				number, rc.Medicine.Barcode, rc.QtyBase, orderedBase, received)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE purchase_order_lines SET received_qty_base = $1 WHERE id = $2
		`, newReceived, lineID); err != nil {
			return fmt.Errorf("update received quantity for PO line %d: %w", lineID, err)
		}
	}
	return nil
}

// fetchPOLines loads lines with the tier ratio joined in, so ordered/received
// quantities come back in both the line's unit and base units.
func fetchPOLines(ctx context.Context, q querier, orderID int) ([]POLine, error) {
	rows, err := q.Query(ctx, `
		SELECT pol.id, pol.line_no, pol.medicine_id, m.barcode, m.name,
		       pol.ordered_qty, pol.received_qty_base, pol.unit_name, pol.remarks,
		       mu.ratio_to_base
		FROM purchase_order_lines pol
		JOIN medicines m ON m.id = pol.medicine_id
		JOIN medicine_units mu ON mu.medicine_id = pol.medicine_id
		     AND lower(mu.name) = lower(pol.unit_name)
		WHERE pol.order_id = $1
		ORDER BY pol.line_no
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch PO lines for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var lines []POLine
	for rows.Next() {
		var l POLine
		var ratio decimal.Decimal
		if err := rows.Scan(&l.ID, &l.LineNo, &l.MedicineID, &l.MedicineBarcode, &l.MedicineName,
			&l.OrderedQty, &l.ReceivedQtyBase, &l.UnitName, &l.Remarks, &ratio); err != nil {
			return nil, fmt.Errorf("scan PO line: %w", err)
		}
		l.OrderedQtyBase = l.OrderedQty.Mul(ratio)
		l.ReceivedQty = l.ReceivedQtyBase.Div(ratio)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
