package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "pharmacy-inventory/internal/adapters/web"
	"pharmacy-inventory/internal/app"
	"pharmacy-inventory/internal/core"
	"pharmacy-inventory/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
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

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
