package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// lockWait bounds every row-lock acquisition. A blocked posting surfaces
// KindLockTimeout to the caller instead of queueing indefinitely.
const lockWait = "3s"

// Movement is the intent to append one ledger entry. Delta is in base
// units, negative for outbound reasons. Movements carrying an idempotency
// key insert at most once; a duplicate post is a no-op.
type Movement struct {
	MedicineID     int
	Barcode        string
	Delta          decimal.Decimal
	Reason         MovementReason
	SourceDoc      string
	IdempotencyKey string
	// AllowBackorder permits SALE movements to drive the balance negative.
	AllowBackorder bool
}

// StockLedger is the single mutation path for on-hand quantities.
// Every posting locks the medicine row first, so concurrent postings for
// one medicine serialize while different medicines proceed independently.
type StockLedger struct {
	pool *pgxpool.Pool
}

func NewStockLedger(pool *pgxpool.Pool) *StockLedger {
	return &StockLedger{pool: pool}
}

// Begin opens a transaction with a bounded lock wait. All posting services
// use this so a deadlocked or contended operation fails with LOCK_TIMEOUT
// rather than hanging the request.
func (l *StockLedger) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockWait)); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}
	return tx, nil
}

// LockMedicineTx acquires the per-medicine lock and returns the current
// base-unit balance. Multi-medicine operations must call this in ascending
// barcode order to stay deadlock-free.
func (l *StockLedger) LockMedicineTx(ctx context.Context, tx pgx.Tx, medicineID int) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT qty FROM medicines WHERE id = $1 FOR UPDATE",
		medicineID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, E(KindUnknownMedicine, "medicine id %d not registered", medicineID)
		}
		return decimal.Zero, translateLockErr(err, medicineID)
	}
	return qty, nil
}

// PostMovementTx appends one movement and updates the cached balance within
// the caller's transaction. It locks the medicine row itself; callers that
// already hold the lock (production) pay only a re-entrant no-wait lock.
// Returns the new balance.
func (l *StockLedger) PostMovementTx(ctx context.Context, tx pgx.Tx, mv Movement) (decimal.Decimal, error) {
	balance, err := l.LockMedicineTx(ctx, tx, mv.MedicineID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := balance.Add(mv.Delta)
	if newBalance.IsNegative() && outbound(mv.Reason) && !mv.AllowBackorder {
		return decimal.Zero, E(KindInsufficientStock,
			"insufficient stock for medicine %s: on hand %s, requested %s",
			mv.Barcode, balance.String(), mv.Delta.Neg().String())
	}

	inserted, err := l.insertMovementTx(ctx, tx, mv)
	if err != nil {
		return decimal.Zero, err
	}
	if !inserted {
		// Duplicate idempotency key: this movement already landed in an
		// earlier post. Leave the balance untouched.
		return balance, nil
	}

	if _, err := tx.Exec(ctx,
		"UPDATE medicines SET qty = $1, updated_at = NOW() WHERE id = $2",
		newBalance, mv.MedicineID,
	); err != nil {
		return decimal.Zero, fmt.Errorf("update balance for medicine %s: %w", mv.Barcode, err)
	}
	return newBalance, nil
}

// PostMovement posts a single movement in its own transaction.
func (l *StockLedger) PostMovement(ctx context.Context, mv Movement) (decimal.Decimal, error) {
	tx, err := l.Begin(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	balance, err := l.PostMovementTx(ctx, tx, mv)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit movement: %w", err)
	}
	return balance, nil
}

// insertMovementTx appends the ledger row. Returns false when the
// idempotency key already exists.
func (l *StockLedger) insertMovementTx(ctx context.Context, tx pgx.Tx, mv Movement) (bool, error) {
	var key *string
	if mv.IdempotencyKey != "" {
		key = &mv.IdempotencyKey
	}
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_movements (medicine_id, delta, reason, source_doc, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`, mv.MedicineID, mv.Delta, string(mv.Reason), mv.SourceDoc, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert stock movement for medicine %s: %w", mv.Barcode, err)
	}
	return true, nil
}

// Balance returns the cached base-unit balance for a barcode.
func (l *StockLedger) Balance(ctx context.Context, barcode string) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := l.pool.QueryRow(ctx,
		"SELECT qty FROM medicines WHERE barcode = $1", barcode,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, E(KindUnknownMedicine, "medicine %s not registered", barcode)
		}
		return decimal.Zero, fmt.Errorf("read balance for %s: %w", barcode, err)
	}
	return qty, nil
}

// Movements returns the ledger entries for a barcode, oldest first,
// optionally bounded by [from, to].
func (l *StockLedger) Movements(ctx context.Context, barcode string, from, to time.Time) ([]StockMovement, error) {
	query := `
		SELECT sm.id, sm.medicine_id, m.barcode, sm.delta, sm.reason, sm.source_doc, sm.created_at
		FROM stock_movements sm
		JOIN medicines m ON m.id = sm.medicine_id
		WHERE m.barcode = $1`
	args := []any{barcode}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND sm.created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND sm.created_at <= $%d", len(args))
	}
	query += " ORDER BY sm.id"

	rows, err := l.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements for %s: %w", barcode, err)
	}
	defer rows.Close()

	var out []StockMovement
	for rows.Next() {
		var sm StockMovement
		var reason string
		if err := rows.Scan(&sm.ID, &sm.MedicineID, &sm.MedicineBarcode, &sm.Delta, &reason, &sm.SourceDoc, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		sm.Reason = MovementReason(reason)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func outbound(r MovementReason) bool {
	return r == ReasonSale || r == ReasonProductionConsume
}

// translateLockErr maps Postgres lock_timeout (SQLSTATE 55P03) and deadlock
// detection (40P01) onto the domain taxonomy.
func translateLockErr(err error, medicineID int) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "55P03" || pgErr.Code == "40P01") {
		return &Error{
			Kind: KindLockTimeout,
			Msg:  fmt.Sprintf("timed out waiting for medicine id %d lock", medicineID),
			Err:  err,
		}
	}
	return fmt.Errorf("lock medicine id %d: %w", medicineID, err)
}
