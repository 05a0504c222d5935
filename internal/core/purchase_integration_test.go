package core_test

import (
	"context"
	"testing"

	"pharmacy-inventory/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func purchaseServices(pool *pgxpool.Pool) (*core.StockLedger, core.PurchaseOrderService, core.PurchaseInvoiceService) {
	ledger := core.NewStockLedger(pool)
	orders := core.NewPurchaseOrderService(pool)
	invoices := core.NewPurchaseInvoiceService(pool, ledger, orders)
	return ledger, orders, invoices
}

func TestPurchaseInvoice_BoxConversion(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "1111", "Paracetamol Syrup", 0, tier(1, "BTL", 1), tier(2, "BOX", 100))
	ledger, _, invoices := purchaseServices(pool)
	ctx := context.Background()

	_, balances, err := invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number:      501,
		SupplierID:  1,
		InvoiceDate: "2026-01-15",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "1111", Qty: decimal.NewFromInt(1), UnitName: "BOX"},
		},
	})
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}
	if len(balances) != 1 || !balances[0].Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balances = %+v, want one entry of 100", balances)
	}
	if got := mustBalance(t, ledger, "1111"); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("stock = %s, want 100 base units for one box", got)
	}
}

func TestPurchaseOrder_ReceiptIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "2222", "Amoxicillin 500", 0, tier(1, "TAB", 1))
	ledger, orders, _ := purchaseServices(pool)
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, core.PurchaseOrder{
		Number:      700,
		SupplierID:  1,
		InvoiceDate: "2026-01-10",
		Lines: []core.POLine{
			{MedicineBarcode: "2222", OrderedQty: decimal.NewFromInt(10), UnitName: "TAB"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	receipts := []core.ReceiptLine{{Medicine: med, QtyBase: decimal.NewFromInt(3)}}

	// Apply the same invoice twice; the second application must not count.
	for i := 0; i < 2; i++ {
		tx, err := ledger.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := orders.ApplyReceiptTx(ctx, tx, 700, 9001, receipts); err != nil {
			t.Fatalf("ApplyReceiptTx attempt %d: %v", i+1, err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	po, err := orders.GetOrder(ctx, 700)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got := po.Lines[0].ReceivedQty; !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("receivedQty = %s, want 3 (not doubled)", got)
	}
	if po.State != core.StatePartial {
		t.Errorf("state = %s, want PARTIAL", po.State)
	}
}

func TestPurchaseInvoice_OverReceiptRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "2222", "Amoxicillin 500", 0, tier(1, "TAB", 1))
	ledger, orders, invoices := purchaseServices(pool)
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, core.PurchaseOrder{
		Number:      701,
		SupplierID:  1,
		InvoiceDate: "2026-01-10",
		Lines: []core.POLine{
			{MedicineBarcode: "2222", OrderedQty: decimal.NewFromInt(10), UnitName: "TAB"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	_, _, err = invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number:      502,
		SupplierID:  1,
		PONumber:    701,
		InvoiceDate: "2026-01-16",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(12), UnitName: "TAB"},
		},
	})
	if core.KindOf(err) != core.KindOverReceipt {
		t.Fatalf("expected OVER_RECEIPT, got %v", err)
	}

	// Rejection is atomic: no stock and no invoice row survive.
	if got := mustBalance(t, ledger, "2222"); !got.IsZero() {
		t.Errorf("stock = %s after rejected invoice, want 0", got)
	}
	if _, err := invoices.GetInvoice(ctx, 502); core.KindOf(err) != core.KindNotFound {
		t.Errorf("rejected invoice was stored: %v", err)
	}
}

func TestPurchaseInvoice_POMismatch(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "1111", "Paracetamol Syrup", 0, tier(1, "BTL", 1))
	seedMedicine(t, pool, "2222", "Amoxicillin 500", 0, tier(1, "TAB", 1))
	_, orders, invoices := purchaseServices(pool)
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, core.PurchaseOrder{
		Number:      702,
		SupplierID:  1,
		InvoiceDate: "2026-01-10",
		Lines: []core.POLine{
			{MedicineBarcode: "1111", OrderedQty: decimal.NewFromInt(5), UnitName: "BTL"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// Invoice names a medicine the order does not carry.
	_, _, err = invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number:      503,
		SupplierID:  1,
		PONumber:    702,
		InvoiceDate: "2026-01-16",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(1), UnitName: "TAB"},
		},
	})
	if core.KindOf(err) != core.KindPOMismatch {
		t.Fatalf("expected PO_MISMATCH, got %v", err)
	}

	// So does an invoice naming an order that does not exist.
	_, _, err = invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number:      504,
		SupplierID:  1,
		PONumber:    99999,
		InvoiceDate: "2026-01-16",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(1), UnitName: "TAB"},
		},
	})
	if core.KindOf(err) != core.KindPOMismatch {
		t.Fatalf("expected PO_MISMATCH for unknown order, got %v", err)
	}
}

func TestPurchaseOrder_FulfillmentProgression(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "2222", "Amoxicillin 500", 0, tier(1, "TAB", 1), tier(2, "STRIP", 10))
	_, orders, invoices := purchaseServices(pool)
	ctx := context.Background()

	po, err := orders.CreateOrder(ctx, core.PurchaseOrder{
		Number:      703,
		SupplierID:  1,
		InvoiceDate: "2026-01-10",
		Lines: []core.POLine{
			{MedicineBarcode: "2222", OrderedQty: decimal.NewFromInt(2), UnitName: "STRIP"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if po.State != core.StateOpen {
		t.Fatalf("fresh order state = %s, want OPEN", po.State)
	}

	// First strip arrives: partial.
	if _, _, err := invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number: 505, SupplierID: 1, PONumber: 703, InvoiceDate: "2026-01-17",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(1), UnitName: "STRIP"},
		},
	}); err != nil {
		t.Fatalf("first invoice: %v", err)
	}
	po, err = orders.GetOrder(ctx, 703)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if po.State != core.StatePartial {
		t.Errorf("state after first strip = %s, want PARTIAL", po.State)
	}
	if got := po.Lines[0].ReceivedQty; !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("receivedQty = %s STRIP, want 1", got)
	}

	// Second strip, delivered as ten tablets: fulfilled. Cross-unit receipt
	// works because comparison happens in base units.
	if _, _, err := invoices.PostInvoice(ctx, core.PurchaseInvoice{
		Number: 506, SupplierID: 1, PONumber: 703, InvoiceDate: "2026-01-18",
		Lines: []core.PurchaseInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(10), UnitName: "TAB"},
		},
	}); err != nil {
		t.Fatalf("second invoice: %v", err)
	}
	po, err = orders.GetOrder(ctx, 703)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if po.State != core.StateFulfilled {
		t.Errorf("final state = %s, want FULFILLED", po.State)
	}
}
