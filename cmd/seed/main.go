// seed is a one-shot tool that loads demo master data: a supplier, a walk-in
// customer, and a few medicines with multi-tier packaging. Safe to re-run;
// records that already exist are left alone.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"pharmacy-inventory/internal/app"
	"pharmacy-inventory/internal/core"
	"pharmacy-inventory/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	ledger := core.NewStockLedger(pool)
	medicines := core.NewMedicineService(pool)
	orders := core.NewPurchaseOrderService(pool)
	invoices := core.NewPurchaseInvoiceService(pool, ledger, orders)
	productions := core.NewProductionService(pool, ledger)
	sales := core.NewSalesService(pool, ledger)
	partners := core.NewPartnerService(pool)
	svc := app.NewAppService(pool, ledger, medicines, orders, invoices, productions, sales, partners)

	seedPartners(ctx, svc)
	seedMedicines(ctx, svc)

	log.Println("[DONE] Seed data loaded.")
}

func seedPartners(ctx context.Context, svc app.ApplicationService) {
	_, err := svc.CreateSupplier(ctx, app.CreateSupplierRequest{
		Name:          "PT Kimia Sejahtera",
		Address:       "Jl. Industri Raya 12",
		Phone:         "021-5550123",
		ContactPerson: "Budi",
		Terms:         "NET 30",
		Taxable:       true,
	})
	logSeed("supplier PT Kimia Sejahtera", err)

	_, err = svc.CreateCustomer(ctx, app.CreateCustomerRequest{Name: "Walk-in"})
	logSeed("customer Walk-in", err)
}

func seedMedicines(ctx context.Context, svc app.ApplicationService) {
	demo := []app.RegisterMedicineRequest{
		{
			Barcode:     "1111",
			Name:        "Paracetamol Syrup",
			Description: "120 mg/5 ml suspension",
			Units: []app.UnitTierInput{
				{Name: "BTL", RatioToBase: decimal.NewFromInt(1), Price: decimal.NewFromInt(12000)},
				{Name: "BOX", RatioToBase: decimal.NewFromInt(100), Price: decimal.NewFromInt(1100000)},
			},
			OpeningQty: decimal.NewFromInt(50),
		},
		{
			Barcode:     "2222",
			Name:        "Amoxicillin 500",
			Description: "500 mg capsule",
			Units: []app.UnitTierInput{
				{Name: "TAB", RatioToBase: decimal.NewFromInt(1), Price: decimal.NewFromInt(800)},
				{Name: "STRIP", RatioToBase: decimal.NewFromInt(10), Price: decimal.NewFromInt(7500)},
				{Name: "BOX", RatioToBase: decimal.NewFromInt(100), Price: decimal.NewFromInt(70000)},
			},
			OpeningQty: decimal.NewFromInt(200),
		},
		{
			Barcode: "3333",
			Name:    "OBH Compound",
			Units: []app.UnitTierInput{
				{Name: "BTL", RatioToBase: decimal.NewFromInt(1), Price: decimal.NewFromInt(15000)},
			},
		},
	}

	for _, m := range demo {
		_, err := svc.RegisterMedicine(ctx, m)
		logSeed("medicine "+m.Barcode, err)
	}
}

func logSeed(what string, err error) {
	switch {
	case err == nil:
		log.Printf("[OK] %s", what)
	case core.KindOf(err) == core.KindConflict:
		log.Printf("[SKIP] %s already present", what)
	default:
		log.Fatalf("[FAIL] %s: %v", what, err)
	}
}
