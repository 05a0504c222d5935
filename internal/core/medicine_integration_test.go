package core_test

import (
	"context"
	"testing"

	"pharmacy-inventory/internal/core"

	"github.com/shopspring/decimal"
)

func TestMedicineService_RegisterWithOpeningStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	med := seedMedicine(t, pool, "1111", "Paracetamol Syrup", 50,
		tier(1, "BTL", 1), tier(2, "BOX", 100))
	ledger := core.NewStockLedger(pool)

	if len(med.Units) != 2 {
		t.Fatalf("got %d tiers, want 2", len(med.Units))
	}
	if med.Units[0].Name != "BTL" || !med.Units[0].RatioToBase.Equal(decimal.NewFromInt(1)) {
		t.Errorf("base tier = %+v", med.Units[0])
	}
	if got := mustBalance(t, ledger, "1111"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("opening balance = %s, want 50", got)
	}

	// The opening quantity is a real ledger movement, not a raw update.
	var count int
	if err := pool.QueryRow(context.Background(),
		"SELECT count(*) FROM stock_movements WHERE medicine_id = $1", med.ID,
	).Scan(&count); err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 1 {
		t.Errorf("movement count = %d, want 1", count)
	}
}

func TestMedicineService_DuplicateBarcode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	seedMedicine(t, pool, "1111", "Paracetamol Syrup", 0, tier(1, "BTL", 1))

	svc := core.NewMedicineService(pool)
	ledger := core.NewStockLedger(pool)
	_, err := svc.Register(context.Background(), core.Medicine{
		Barcode: "1111",
		Name:    "Something Else",
		Units:   []core.UnitTier{tier(1, "TAB", 1)},
	}, decimal.Zero, ledger)
	if core.KindOf(err) != core.KindConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestMedicineService_RejectsBadTiers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewMedicineService(pool)
	ledger := core.NewStockLedger(pool)

	// Second tier not larger than the first.
	_, err := svc.Register(context.Background(), core.Medicine{
		Barcode: "4444",
		Name:    "Broken Tiers",
		Units: []core.UnitTier{
			tier(1, "TAB", 1),
			tier(2, "STRIP", 1),
		},
	}, decimal.Zero, ledger)
	if core.KindOf(err) != core.KindValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestMedicineService_UnknownBarcode(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	svc := core.NewMedicineService(pool)
	_, err := svc.GetByBarcode(context.Background(), "0000")
	if core.KindOf(err) != core.KindUnknownMedicine {
		t.Fatalf("expected UNKNOWN_MEDICINE, got %v", err)
	}
}
