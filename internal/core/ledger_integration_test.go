package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"pharmacy-inventory/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_schema.sql")
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, sales_invoice_lines, sales_invoices,
			production_inputs, productions, purchase_invoice_lines, purchase_invoices,
			purchase_receipts, purchase_order_lines, purchase_orders,
			medicine_units, medicines, suppliers, customers
		RESTART IDENTITY CASCADE;

		INSERT INTO suppliers (name) VALUES ('Test Supplier');
		INSERT INTO customers (name) VALUES ('Test Customer');
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

// seedMedicine registers a medicine with the given tiers and opening stock.
func seedMedicine(t *testing.T, pool *pgxpool.Pool, barcode, name string, openingQty int64, tiers ...core.UnitTier) *core.Medicine {
	t.Helper()
	svc := core.NewMedicineService(pool)
	ledger := core.NewStockLedger(pool)
	med, err := svc.Register(context.Background(), core.Medicine{
		Barcode: barcode,
		Name:    name,
		Units:   tiers,
	}, decimal.NewFromInt(openingQty), ledger)
	if err != nil {
		t.Fatalf("Failed to register medicine %s: %v", barcode, err)
	}
	return med
}

func tier(no int, name string, ratio int64) core.UnitTier {
	return core.UnitTier{TierNo: no, Name: name, RatioToBase: decimal.NewFromInt(ratio)}
}

func mustBalance(t *testing.T, ledger *core.StockLedger, barcode string) decimal.Decimal {
	t.Helper()
	qty, err := ledger.Balance(context.Background(), barcode)
	if err != nil {
		t.Fatalf("Balance(%s): %v", barcode, err)
	}
	return qty
}

func TestStockLedger_PostAndBalance(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "1111", "Paracetamol Syrup", 0, tier(1, "BTL", 1), tier(2, "BOX", 100))
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	newBalance, err := ledger.PostMovement(ctx, core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(100),
		Reason:         core.ReasonPurchaseReceipt,
		SourceDoc:      "PI-1",
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("PostMovement receipt: %v", err)
	}
	if !newBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance after receipt = %s, want 100", newBalance)
	}

	newBalance, err = ledger.PostMovement(ctx, core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(-30),
		Reason:         core.ReasonSale,
		SourceDoc:      "SI-1",
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("PostMovement sale: %v", err)
	}
	if !newBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("balance after sale = %s, want 70", newBalance)
	}

	// Balance must equal the sum of posted deltas.
	var ledgerSum decimal.Decimal
	err = pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM stock_movements WHERE medicine_id = $1", med.ID,
	).Scan(&ledgerSum)
	if err != nil {
		t.Fatalf("sum deltas: %v", err)
	}
	if !ledgerSum.Equal(mustBalance(t, ledger, med.Barcode)) {
		t.Errorf("cached balance %s != ledger sum %s", mustBalance(t, ledger, med.Barcode), ledgerSum)
	}
}

func TestStockLedger_InsufficientStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "2222", "Amoxicillin 500", 5, tier(1, "TAB", 1))
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	_, err := ledger.PostMovement(ctx, core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(-9),
		Reason:         core.ReasonSale,
		SourceDoc:      "SI-9",
		IdempotencyKey: uuid.NewString(),
	})
	if core.KindOf(err) != core.KindInsufficientStock {
		t.Fatalf("expected INSUFFICIENT_STOCK, got %v", err)
	}
	if got := mustBalance(t, ledger, med.Barcode); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("stock changed after failed sale: %s", got)
	}
}

func TestStockLedger_BackorderOverride(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "2222", "Amoxicillin 500", 5, tier(1, "TAB", 1))
	ledger := core.NewStockLedger(pool)

	newBalance, err := ledger.PostMovement(context.Background(), core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(-9),
		Reason:         core.ReasonSale,
		SourceDoc:      "SI-9",
		IdempotencyKey: uuid.NewString(),
		AllowBackorder: true,
	})
	if err != nil {
		t.Fatalf("backorder sale: %v", err)
	}
	if !newBalance.Equal(decimal.NewFromInt(-4)) {
		t.Errorf("balance = %s, want -4", newBalance)
	}
}

func TestStockLedger_IdempotencyKey(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "1111", "Paracetamol Syrup", 0, tier(1, "BTL", 1))
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	mv := core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(100),
		Reason:         core.ReasonPurchaseReceipt,
		SourceDoc:      "PI-7",
		IdempotencyKey: "pi-7-line-1",
	}
	if _, err := ledger.PostMovement(ctx, mv); err != nil {
		t.Fatalf("first post: %v", err)
	}
	newBalance, err := ledger.PostMovement(ctx, mv)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if !newBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("duplicate key changed balance: %s", newBalance)
	}

	var count int
	if err := pool.QueryRow(ctx,
		"SELECT count(*) FROM stock_movements WHERE medicine_id = $1", med.ID,
	).Scan(&count); err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 1 {
		t.Errorf("movement count = %d, want 1", count)
	}
}

func TestStockLedger_Movements(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "1111", "Paracetamol Syrup", 20, tier(1, "BTL", 1))
	ledger := core.NewStockLedger(pool)
	ctx := context.Background()

	if _, err := ledger.PostMovement(ctx, core.Movement{
		MedicineID:     med.ID,
		Barcode:        med.Barcode,
		Delta:          decimal.NewFromInt(-4),
		Reason:         core.ReasonSale,
		SourceDoc:      "SI-2",
		IdempotencyKey: uuid.NewString(),
	}); err != nil {
		t.Fatalf("post sale: %v", err)
	}

	moves, err := ledger.Movements(ctx, med.Barcode, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	// Opening receipt plus the sale.
	if len(moves) != 2 {
		t.Fatalf("got %d movements, want 2", len(moves))
	}
	sum := decimal.Zero
	for _, m := range moves {
		sum = sum.Add(m.Delta)
	}
	if !sum.Equal(decimal.NewFromInt(16)) {
		t.Errorf("sum of deltas = %s, want 16", sum)
	}
}
