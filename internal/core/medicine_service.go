package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MedicineService manages the medicine master data: registration with its
// packaging tier list and lookups used by every posting flow.
type MedicineService interface {
	// Register creates a medicine with its tier list. A positive openingQty
	// (in base units) is posted as an opening PURCHASE_RECEIPT movement so
	// the cached balance stays a pure projection of the ledger.
	Register(ctx context.Context, med Medicine, openingQty decimal.Decimal, ledger *StockLedger) (*Medicine, error)
	GetByBarcode(ctx context.Context, barcode string) (*Medicine, error)
	List(ctx context.Context) ([]Medicine, error)
}

type medicineService struct {
	pool *pgxpool.Pool
}

func NewMedicineService(pool *pgxpool.Pool) MedicineService {
	return &medicineService{pool: pool}
}

// querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// letting lookups run inside or outside a posting transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *medicineService) Register(ctx context.Context, med Medicine, openingQty decimal.Decimal, ledger *StockLedger) (*Medicine, error) {
	if err := ValidateTiers(med.Units); err != nil {
		return nil, err
	}
	if openingQty.IsNegative() {
		return nil, E(KindValidation, "opening quantity cannot be negative, got %s", openingQty)
	}

	tx, err := ledger.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO medicines (barcode, name, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`, med.Barcode, med.Name, med.Description).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, E(KindConflict, "medicine %s already registered", med.Barcode)
		}
		return nil, fmt.Errorf("insert medicine %s: %w", med.Barcode, err)
	}

	for i, t := range med.Units {
		if _, err := tx.Exec(ctx, `
			INSERT INTO medicine_units (medicine_id, tier_no, name, ratio_to_base, price, discount_pct)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, i+1, t.Name, t.RatioToBase, t.Price, t.DiscountPct); err != nil {
			return nil, fmt.Errorf("insert unit tier %q for %s: %w", t.Name, med.Barcode, err)
		}
	}

	if openingQty.IsPositive() {
		if _, err := ledger.PostMovementTx(ctx, tx, Movement{
			MedicineID:     id,
			Barcode:        med.Barcode,
			Delta:          openingQty,
			Reason:         ReasonPurchaseReceipt,
			SourceDoc:      "opening",
			IdempotencyKey: "opening-" + med.Barcode,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit medicine %s: %w", med.Barcode, err)
	}
	return s.GetByBarcode(ctx, med.Barcode)
}

func (s *medicineService) GetByBarcode(ctx context.Context, barcode string) (*Medicine, error) {
	return medicineByBarcode(ctx, s.pool, barcode)
}

func (s *medicineService) List(ctx context.Context) ([]Medicine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, barcode, name, description, qty, created_at, updated_at
		FROM medicines
		ORDER BY barcode
	`)
	if err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	defer rows.Close()

	var meds []Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Barcode, &m.Name, &m.Description, &m.Qty, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan medicine: %w", err)
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range meds {
		units, err := unitTiers(ctx, s.pool, meds[i].ID)
		if err != nil {
			return nil, err
		}
		meds[i].Units = units
	}
	return meds, nil
}

// medicineByBarcode loads a medicine with its tier list. Works inside a
// posting transaction or against the pool.
func medicineByBarcode(ctx context.Context, q querier, barcode string) (*Medicine, error) {
	var m Medicine
	err := q.QueryRow(ctx, `
		SELECT id, barcode, name, description, qty, created_at, updated_at
		FROM medicines
		WHERE barcode = $1
	`, barcode).Scan(&m.ID, &m.Barcode, &m.Name, &m.Description, &m.Qty, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindUnknownMedicine, "medicine %s not registered", barcode)
		}
		return nil, fmt.Errorf("fetch medicine %s: %w", barcode, err)
	}

	units, err := unitTiers(ctx, q, m.ID)
	if err != nil {
		return nil, err
	}
	m.Units = units
	return &m, nil
}

func unitTiers(ctx context.Context, q querier, medicineID int) ([]UnitTier, error) {
	rows, err := q.Query(ctx, `
		SELECT tier_no, name, ratio_to_base, price, discount_pct
		FROM medicine_units
		WHERE medicine_id = $1
		ORDER BY tier_no
	`, medicineID)
	if err != nil {
		return nil, fmt.Errorf("fetch unit tiers for medicine id %d: %w", medicineID, err)
	}
	defer rows.Close()

	var tiers []UnitTier
	for rows.Next() {
		var t UnitTier
		if err := rows.Scan(&t.TierNo, &t.Name, &t.RatioToBase, &t.Price, &t.DiscountPct); err != nil {
			return nil, fmt.Errorf("scan unit tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
