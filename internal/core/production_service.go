package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ProductionService posts compounding batches: a set of input medicines is
// consumed and a single output medicine is produced. The batch is
// all-or-nothing; if any input is short no movement becomes visible.
//
// A batch created with updatedToStock=false is validated, stored PENDING and
// moves no stock until released.
type ProductionService interface {
	PostBatch(ctx context.Context, batch ProductionBatch) (*ProductionBatch, []LineBalance, []string, error)
	ReleaseBatch(ctx context.Context, number int64) (*ProductionBatch, []LineBalance, []string, error)
	GetBatch(ctx context.Context, number int64) (*ProductionBatch, error)
}

type productionService struct {
	pool   *pgxpool.Pool
	ledger *StockLedger
}

func NewProductionService(pool *pgxpool.Pool, ledger *StockLedger) ProductionService {
	return &productionService{pool: pool, ledger: ledger}
}

type batchInput struct {
	med     *Medicine
	lineNo  int
	qty     decimal.Decimal
	unit    string
	qtyBase decimal.Decimal
	cost    decimal.Decimal
}

func (s *productionService) PostBatch(ctx context.Context, batch ProductionBatch) (*ProductionBatch, []LineBalance, []string, error) {
	if len(batch.Inputs) == 0 {
		return nil, nil, nil, E(KindValidation, "production batch must have at least one input")
	}
	if !batch.OutputQty.IsPositive() {
		return nil, nil, nil, E(KindValidation, "output quantity must be positive, got %s", batch.OutputQty)
	}

	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback(ctx)

	output, err := medicineByBarcode(ctx, tx, batch.OutputBarcode)
	if err != nil {
		return nil, nil, nil, err
	}
	outputBase, err := ToBaseUnits(output, batch.OutputQty, batch.OutputUnit)
	if err != nil {
		return nil, nil, nil, err
	}

	var inputs []batchInput
	for i, in := range batch.Inputs {
		med, err := medicineByBarcode(ctx, tx, in.MedicineBarcode)
		if err != nil {
			return nil, nil, nil, err
		}
		if !in.Qty.IsPositive() {
			return nil, nil, nil, E(KindValidation, "input %d: quantity must be positive, got %s", i+1, in.Qty)
		}
		qtyBase, err := ToBaseUnits(med, in.Qty, in.UnitName)
		if err != nil {
			return nil, nil, nil, err
		}
		inputs = append(inputs, batchInput{
			med: med, lineNo: i + 1, qty: in.Qty, unit: in.UnitName, qtyBase: qtyBase, cost: in.Cost,
		})
	}

	status := ProductionPending
	if batch.UpdatedToStock {
		status = ProductionPosted
	}
	var postedAt *time.Time
	if status == ProductionPosted {
		now := time.Now()
		postedAt = &now
	}

	var batchID int
	err = tx.QueryRow(ctx, `
		INSERT INTO productions (number, output_medicine_id, output_qty, output_unit, production_date, description, status, updated_to_account, total_cost, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, batch.Number, output.ID, batch.OutputQty, batch.OutputUnit, batch.ProductionDate,
		batch.Description, string(status), batch.UpdatedToAccount, batch.TotalCost, postedAt).Scan(&batchID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, nil, E(KindConflict, "production batch %d already exists", batch.Number)
		}
		return nil, nil, nil, fmt.Errorf("insert production batch %d: %w", batch.Number, err)
	}

	for _, in := range inputs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO production_inputs (production_id, line_no, medicine_id, qty, unit_name, cost)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, batchID, in.lineNo, in.med.ID, in.qty, in.unit, in.cost); err != nil {
			return nil, nil, nil, fmt.Errorf("insert production input %d: %w", in.lineNo, err)
		}
	}

	warnings := costWarnings(inputs, batch.TotalCost)

	var balances []LineBalance
	if status == ProductionPosted {
		balances, err = s.postMovementsTx(ctx, tx, batch.Number, output, outputBase, inputs)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("commit production batch %d: %w", batch.Number, err)
	}

	posted, err := s.GetBatch(ctx, batch.Number)
	if err != nil {
		return nil, nil, nil, err
	}
	return posted, balances, warnings, nil
}

// ReleaseBatch posts the withheld movements of a pending batch. Releasing a
// batch that is already posted changes nothing and reports no balances.
func (s *productionService) ReleaseBatch(ctx context.Context, number int64) (*ProductionBatch, []LineBalance, []string, error) {
	tx, err := s.ledger.Begin(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tx.Rollback(ctx)

	var batchID int
	var status string
	err = tx.QueryRow(ctx,
		"SELECT id, status FROM productions WHERE number = $1 FOR UPDATE", number,
	).Scan(&batchID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, E(KindNotFound, "production batch %d not found", number)
		}
		return nil, nil, nil, fmt.Errorf("lock production batch %d: %w", number, err)
	}
	if ProductionStatus(status) == ProductionPosted {
		posted, err := s.GetBatch(ctx, number)
		return posted, nil, nil, err
	}

	batch, err := fetchBatch(ctx, tx, batchID)
	if err != nil {
		return nil, nil, nil, err
	}

	output, err := medicineByBarcode(ctx, tx, batch.OutputBarcode)
	if err != nil {
		return nil, nil, nil, err
	}
	outputBase, err := ToBaseUnits(output, batch.OutputQty, batch.OutputUnit)
	if err != nil {
		return nil, nil, nil, err
	}
	var inputs []batchInput
	for _, in := range batch.Inputs {
		med, err := medicineByBarcode(ctx, tx, in.MedicineBarcode)
		if err != nil {
			return nil, nil, nil, err
		}
		qtyBase, err := ToBaseUnits(med, in.Qty, in.UnitName)
		if err != nil {
			return nil, nil, nil, err
		}
		inputs = append(inputs, batchInput{
			med: med, lineNo: in.LineNo, qty: in.Qty, unit: in.UnitName, qtyBase: qtyBase, cost: in.Cost,
		})
	}

	balances, err := s.postMovementsTx(ctx, tx, number, output, outputBase, inputs)
	if err != nil {
		return nil, nil, nil, err
	}

	if _, err := tx.Exec(ctx,
		"UPDATE productions SET status = $1, posted_at = NOW() WHERE id = $2",
		string(ProductionPosted), batchID,
	); err != nil {
		return nil, nil, nil, fmt.Errorf("mark production batch %d posted: %w", number, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("commit release of batch %d: %w", number, err)
	}

	posted, err := s.GetBatch(ctx, number)
	if err != nil {
		return nil, nil, nil, err
	}
	return posted, balances, costWarnings(inputs, batch.TotalCost), nil
}

// postMovementsTx locks every touched medicine in ascending barcode order,
// verifies all inputs are covered, then writes the consume and output
// movements. Errors name the first short input in the batch's listed order.
func (s *productionService) postMovementsTx(ctx context.Context, tx pgx.Tx, number int64, output *Medicine, outputBase decimal.Decimal, inputs []batchInput) ([]LineBalance, error) {
	type lockTarget struct {
		med *Medicine
	}
	targets := map[string]lockTarget{output.Barcode: {med: output}}
	for _, in := range inputs {
		targets[in.med.Barcode] = lockTarget{med: in.med}
	}
	barcodes := make([]string, 0, len(targets))
	for b := range targets {
		barcodes = append(barcodes, b)
	}
	sort.Strings(barcodes)

	onHand := map[string]decimal.Decimal{}
	for _, b := range barcodes {
		qty, err := s.ledger.LockMedicineTx(ctx, tx, targets[b].med.ID)
		if err != nil {
			return nil, err
		}
		onHand[b] = qty
	}

	// Validate before posting anything. Consumption accumulates so the same
	// medicine on two input lines is checked against its combined draw.
	consumed := map[string]decimal.Decimal{}
	for _, in := range inputs {
		total := consumed[in.med.Barcode].Add(in.qtyBase)
		if total.GreaterThan(onHand[in.med.Barcode]) {
			return nil, E(KindInsufficientStock,
				"production batch %d: insufficient stock of %s (%s): need %s base units, have %s",
				number, in.med.Barcode, in.med.Name, total, onHand[in.med.Barcode])
		}
		consumed[in.med.Barcode] = total
	}

	balances := map[string]LineBalance{}
	for _, in := range inputs {
		balance, err := s.ledger.PostMovementTx(ctx, tx, Movement{
			MedicineID:     in.med.ID,
			Barcode:        in.med.Barcode,
			Delta:          in.qtyBase.Neg(),
			Reason:         ReasonProductionConsume,
			SourceDoc:      fmt.Sprintf("PROD-%d", number),
			IdempotencyKey: fmt.Sprintf("prod-%d-in-%d", number, in.lineNo),
		})
		if err != nil {
			return nil, err
		}
		balances[in.med.Barcode] = LineBalance{
			MedicineBarcode: in.med.Barcode, MedicineName: in.med.Name, Balance: balance,
		}
	}

	balance, err := s.ledger.PostMovementTx(ctx, tx, Movement{
		MedicineID:     output.ID,
		Barcode:        output.Barcode,
		Delta:          outputBase,
		Reason:         ReasonProductionOutput,
		SourceDoc:      fmt.Sprintf("PROD-%d", number),
		IdempotencyKey: fmt.Sprintf("prod-%d-out", number),
	})
	if err != nil {
		return nil, err
	}
	balances[output.Barcode] = LineBalance{
		MedicineBarcode: output.Barcode, MedicineName: output.Name, Balance: balance,
	}

	out := make([]LineBalance, 0, len(balances))
	for _, b := range barcodes {
		out = append(out, balances[b])
	}
	return out, nil
}

// costWarnings reports a totalCost that does not match the summed input
// costs. The mismatch never blocks posting.
func costWarnings(inputs []batchInput, totalCost decimal.Decimal) []string {
	sum := decimal.Zero
	for _, in := range inputs {
		sum = sum.Add(in.cost)
	}
	if sum.Equal(totalCost) {
		return nil
	}
	return []string{fmt.Sprintf("total cost %s does not match sum of input costs %s", totalCost, sum)}
}

func (s *productionService) GetBatch(ctx context.Context, number int64) (*ProductionBatch, error) {
	var id int
	if err := s.pool.QueryRow(ctx, "SELECT id FROM productions WHERE number = $1", number).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindNotFound, "production batch %d not found", number)
		}
		return nil, fmt.Errorf("fetch production batch %d: %w", number, err)
	}
	return fetchBatch(ctx, s.pool, id)
}

func fetchBatch(ctx context.Context, q querier, id int) (*ProductionBatch, error) {
	b := &ProductionBatch{}
	var status string
	err := q.QueryRow(ctx, `
		SELECT p.id, p.number, m.barcode, m.name, p.output_qty, p.output_unit,
		       p.production_date::text, p.description, p.status, p.updated_to_account,
		       p.total_cost, p.created_at, p.posted_at
		FROM productions p
		JOIN medicines m ON m.id = p.output_medicine_id
		WHERE p.id = $1
	`, id).Scan(&b.ID, &b.Number, &b.OutputBarcode, &b.OutputName, &b.OutputQty, &b.OutputUnit,
		&b.ProductionDate, &b.Description, &status, &b.UpdatedToAccount,
		&b.TotalCost, &b.CreatedAt, &b.PostedAt)
	if err != nil {
		return nil, fmt.Errorf("fetch production %d: %w", id, err)
	}
	b.Status = ProductionStatus(status)
	b.UpdatedToStock = b.Status == ProductionPosted

	rows, err := q.Query(ctx, `
		SELECT i.id, i.line_no, i.medicine_id, m.barcode, m.name, i.qty, i.unit_name, i.cost
		FROM production_inputs i
		JOIN medicines m ON m.id = i.medicine_id
		WHERE i.production_id = $1
		ORDER BY i.line_no
	`, id)
	if err != nil {
		return nil, fmt.Errorf("fetch production inputs for %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var in ProductionInput
		if err := rows.Scan(&in.ID, &in.LineNo, &in.MedicineID, &in.MedicineBarcode, &in.MedicineName,
			&in.Qty, &in.UnitName, &in.Cost); err != nil {
			return nil, fmt.Errorf("scan production input: %w", err)
		}
		b.Inputs = append(b.Inputs, in)
	}
	return b, rows.Err()
}
