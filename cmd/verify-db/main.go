// verify-db audits ledger consistency: for every medicine the cached balance
// must equal the sum of its stock movement deltas. Exits non-zero when any
// medicine has drifted.
//
// Usage: go run ./cmd/verify-db
package main

import (
	"context"
	"log"
	"os"

	"pharmacy-inventory/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT m.barcode, m.name, m.qty,
		       COALESCE(SUM(sm.delta), 0) AS ledger_sum,
		       COUNT(sm.id) AS movements
		FROM medicines m
		LEFT JOIN stock_movements sm ON sm.medicine_id = m.id
		GROUP BY m.id
		ORDER BY m.barcode
	`)
	if err != nil {
		log.Fatalf("[QUERY] %v", err)
	}
	defer rows.Close()

	drifted := 0
	checked := 0
	for rows.Next() {
		var barcode, name string
		var cached, ledgerSum decimal.Decimal
		var movements int64
		if err := rows.Scan(&barcode, &name, &cached, &ledgerSum, &movements); err != nil {
			log.Fatalf("[SCAN] %v", err)
		}
		checked++
		if cached.Equal(ledgerSum) {
			log.Printf("[OK] %s (%s): balance %s over %d movements", barcode, name, cached, movements)
			continue
		}
		drifted++
		log.Printf("[DRIFT] %s (%s): cached %s, ledger sum %s (%d movements)",
			barcode, name, cached, ledgerSum, movements)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[QUERY] %v", err)
	}

	if drifted > 0 {
		log.Printf("[FAIL] %d of %d medicines drifted", drifted, checked)
		os.Exit(1)
	}
	log.Printf("[DONE] %d medicines consistent.", checked)
}
