// Package ledger records stock movements and keeps the denormalized
// stock_quantity counter on medicines consistent with the transaction log.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meditrack/m/domain"
)

// Transaction types accepted by the engine. Adjustments are signed deltas:
// a negative quantity lowers stock, rejected if the result would go below
// zero.
const (
	TypeStockIn    = "stock_in"
	TypeStockOut   = "stock_out"
	TypeAdjustment = "adjustment"
)

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidQuantity  = errors.New("invalid quantity for transaction type")
	ErrNegativeStock    = errors.New("adjustment would result in negative stock")
	// ErrConflict means another movement committed against the same
	// medicine mid-flight; the call is safe to retry.
	ErrConflict = errors.New("stock changed concurrently")
)

// InsufficientStockError reports how much stock was actually available.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

// Engine is the single writer of medicines.stock_quantity.
type Engine struct {
	db *sqlx.DB
}

// New constructs an Engine on the shared database handle.
func New(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

// Result is returned after a movement committed.
type Result struct {
	TransactionID int64 `json:"transaction_id"`
	NewStock      int64 `json:"new_stock"`
	NeedsReorder  bool  `json:"needs_reorder"`
}

const casAttempts = 3

// Record applies one stock movement atomically: the counter update and the
// appended ledger row commit together or not at all. A compare-and-swap on
// the previous quantity prevents two concurrent movements from applying
// against the same pre-image; on conflict the whole unit is retried.
func (e *Engine) Record(ctx context.Context, medicineID int64, typ string, quantity int64, referenceNumber, notes *string, performedBy string) (Result, error) {
	switch typ {
	case TypeStockIn, TypeStockOut:
		if quantity <= 0 {
			return Result{}, ErrInvalidQuantity
		}
	case TypeAdjustment:
		if quantity == 0 {
			return Result{}, ErrInvalidQuantity
		}
	default:
		return Result{}, ErrInvalidType
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		res, err := e.record(ctx, medicineID, typ, quantity, referenceNumber, notes, performedBy)
		if errors.Is(err, ErrConflict) {
			continue
		}
		return res, err
	}
	return Result{}, ErrConflict
}

func (e *Engine) record(ctx context.Context, medicineID int64, typ string, quantity int64, referenceNumber, notes *string, performedBy string) (Result, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	var med struct {
		Stock   int64 `db:"stock_quantity"`
		Reorder int64 `db:"reorder_level"`
	}
	err = tx.GetContext(ctx, &med, `SELECT stock_quantity, reorder_level FROM medicines WHERE id = ?`, medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrMedicineNotFound
	}
	if err != nil {
		return Result{}, err
	}

	newStock := med.Stock
	switch typ {
	case TypeStockIn:
		newStock += quantity
	case TypeStockOut:
		if quantity > med.Stock {
			return Result{}, &InsufficientStockError{Available: med.Stock}
		}
		newStock -= quantity
	case TypeAdjustment:
		newStock += quantity
		if newStock < 0 {
			return Result{}, ErrNegativeStock
		}
	}

	upd, err := tx.ExecContext(ctx,
		`UPDATE medicines SET stock_quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock_quantity = ?`,
		newStock, medicineID, med.Stock)
	if err != nil {
		return Result{}, err
	}
	affected, err := upd.RowsAffected()
	if err != nil {
		return Result{}, err
	}
	if affected == 0 {
		return Result{}, ErrConflict
	}

	ins, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transactions (medicine_id, type, quantity, reference_number, notes, performed_by)
         VALUES (?, ?, ?, ?, ?, ?)`,
		medicineID, typ, quantity, referenceNumber, notes, performedBy)
	if err != nil {
		return Result{}, err
	}
	transactionID, err := ins.LastInsertId()
	if err != nil {
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	return Result{
		TransactionID: transactionID,
		NewStock:      newStock,
		NeedsReorder:  newStock <= med.Reorder,
	}, nil
}

// Row is a ledger entry joined with its medicine for display.
type Row struct {
	domain.StockTransaction
	MedicineName string `db:"medicine_name" json:"medicine_name"`
	Unit         string `db:"unit" json:"unit"`
}

const (
	defaultListLimit = 100
	maxListLimit     = 200
)

// List returns ledger entries newest first, optionally filtered to one
// medicine. The result is always bounded.
func (e *Engine) List(ctx context.Context, medicineID int64, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := `SELECT t.id, t.medicine_id, t.type, t.quantity, t.reference_number, t.notes,
                     t.performed_by, t.transaction_date, m.name AS medicine_name, m.unit
              FROM stock_transactions t
              JOIN medicines m ON m.id = t.medicine_id`
	args := []any{}
	if medicineID > 0 {
		query += ` WHERE t.medicine_id = ?`
		args = append(args, medicineID)
	}
	query += ` ORDER BY t.transaction_date DESC, t.id DESC LIMIT ?`
	args = append(args, limit)

	rows := []Row{}
	if err := e.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
