package core_test

import (
	"context"
	"testing"

	"pharmacy-inventory/internal/core"

	"github.com/shopspring/decimal"
)

func TestSales_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "2222", "Amoxicillin 500", 5, tier(1, "TAB", 1))
	ledger := core.NewStockLedger(pool)
	sales := core.NewSalesService(pool, ledger)
	ctx := context.Background()

	_, _, err := sales.PostInvoice(ctx, core.SalesInvoice{
		Number:      3000,
		CustomerID:  1,
		InvoiceDate: "2026-03-01",
		Lines: []core.SalesInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(9), UnitName: "TAB"},
		},
	})
	if core.KindOf(err) != core.KindInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if got := mustBalance(t, ledger, "2222"); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stock = %s after failed sale, want 5", got)
	}
	if _, err := sales.GetInvoice(ctx, 3000); core.KindOf(err) != core.KindNotFound {
		t.Errorf("failed sale was stored: %v", err)
	}
}

func TestSales_BackorderOverride(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "2222", "Amoxicillin 500", 5, tier(1, "TAB", 1))
	ledger := core.NewStockLedger(pool)
	sales := core.NewSalesService(pool, ledger)

	_, balances, err := sales.PostInvoice(context.Background(), core.SalesInvoice{
		Number:         3001,
		CustomerID:     1,
		InvoiceDate:    "2026-03-01",
		AllowBackorder: true,
		Lines: []core.SalesInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(9), UnitName: "TAB"},
		},
	})
	if err != nil {
		t.Fatalf("backorder sale: %v", err)
	}
	if len(balances) != 1 || !balances[0].Balance.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("balances = %+v, want one entry of -4", balances)
	}
	if got := mustBalance(t, ledger, "2222"); !got.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("stock = %s, want -4", got)
	}
}

func TestSales_MultiLineDecrementsStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "1111", "Paracetamol Syrup", 20, tier(1, "BTL", 1))
	seedMedicine(t, pool, "2222", "Amoxicillin 500", 50, tier(1, "TAB", 1), tier(2, "STRIP", 10))
	ledger := core.NewStockLedger(pool)
	sales := core.NewSalesService(pool, ledger)

	inv, balances, err := sales.PostInvoice(context.Background(), core.SalesInvoice{
		Number:      3002,
		CustomerID:  1,
		InvoiceDate: "2026-03-02",
		Lines: []core.SalesInvoiceLine{
			{MedicineBarcode: "2222", Qty: decimal.NewFromInt(2), UnitName: "STRIP"},
			{MedicineBarcode: "1111", Qty: decimal.NewFromInt(3), UnitName: "BTL"},
		},
	})
	if err != nil {
		t.Fatalf("PostInvoice: %v", err)
	}
	if len(inv.Lines) != 2 {
		t.Errorf("stored %d lines, want 2", len(inv.Lines))
	}
	// Balances come back in invoice line order.
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if balances[0].MedicineBarcode != "2222" || !balances[0].Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("first balance = %+v, want 2222 at 30", balances[0])
	}
	if balances[1].MedicineBarcode != "1111" || !balances[1].Balance.Equal(decimal.NewFromInt(17)) {
		t.Errorf("second balance = %+v, want 1111 at 17", balances[1])
	}
}

func TestSales_PaidAmountValidation(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "1111", "Paracetamol Syrup", 20, tier(1, "BTL", 1))
	ledger := core.NewStockLedger(pool)
	sales := core.NewSalesService(pool, ledger)

	_, _, err := sales.PostInvoice(context.Background(), core.SalesInvoice{
		Number:       3003,
		CustomerID:   1,
		InvoiceDate:  "2026-03-03",
		TotalPrice:   decimal.NewFromInt(50000),
		PaidAmount:   decimal.NewFromInt(20000),
		ChangeAmount: decimal.NewFromInt(0),
		Lines: []core.SalesInvoiceLine{
			{MedicineBarcode: "1111", Qty: decimal.NewFromInt(1), UnitName: "BTL"},
		},
	})
	if core.KindOf(err) != core.KindValidation {
		t.Fatalf("expected VALIDATION_ERROR for underpayment, got %v", err)
	}
}
