package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"legatum/internal/allocation/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists allocations in PostgreSQL. Per-asset serialization
// comes from locking the owning crypto_assets row (SELECT ... FOR UPDATE)
// before the sum check, so concurrent adds against one asset queue on the row
// lock while different assets proceed in parallel. The unique constraint on
// (asset_id, beneficiary_id) backstops the duplicate check.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed allocation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfWithinCapacity(ctx context.Context, alloc *models.Allocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the asset row: this is the per-asset write serialization point.
	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT asset_id FROM crypto_assets WHERE asset_id = $1 FOR UPDATE`,
		alloc.AssetID.String(),
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock asset row: %w", err)
	}

	var total decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(percentage), 0) FROM allocations WHERE asset_id = $1`,
		alloc.AssetID.String(),
	).Scan(&total)
	if err != nil {
		return fmt.Errorf("sum allocations: %w", err)
	}

	if !models.FitsWithin(total, alloc.Percentage) {
		return &models.CapacityError{Remaining: models.RemainingCapacity(total)}
	}

	const insert = `
		INSERT INTO allocations (allocation_id, asset_id, beneficiary_id, percentage, disbursement_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, insert,
		alloc.ID.String(),
		alloc.AssetID.String(),
		alloc.BeneficiaryID.String(),
		alloc.Percentage,
		string(alloc.Status),
		alloc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert allocation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAsset(ctx context.Context, assetID id.AssetID) ([]*models.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, selectAllocations+` WHERE asset_id = $1 ORDER BY created_at, allocation_id`, assetID.String())
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []*models.Allocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alloc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TotalByAsset(ctx context.Context, assetID id.AssetID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(percentage), 0) FROM allocations WHERE asset_id = $1`,
		assetID.String(),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum allocations: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	row := s.db.QueryRowContext(ctx, selectAllocations+` WHERE allocation_id = $1`, allocationID.String())
	alloc, err := scanAllocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return alloc, err
}

func (s *PostgresStore) Delete(ctx context.Context, allocationID id.AllocationID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT disbursement_status FROM allocations WHERE allocation_id = $1 FOR UPDATE`,
		allocationID.String(),
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock allocation: %w", err)
	}
	if models.DisbursementStatus(status) == models.DisbursementDisbursed {
		return sentinel.ErrInvalidState
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM allocations WHERE allocation_id = $1`, allocationID.String()); err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) DisburseAsset(ctx context.Context, assetID id.AssetID, apply func(*models.Allocation)) ([]*models.Allocation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	err = tx.QueryRowContext(ctx,
		`SELECT asset_id FROM crypto_assets WHERE asset_id = $1 FOR UPDATE`,
		assetID.String(),
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock asset row: %w", err)
	}

	rows, err := tx.QueryContext(ctx, selectAllocations+` WHERE asset_id = $1 ORDER BY created_at, allocation_id`, assetID.String())
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	var allocations []*models.Allocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}

	const update = `
		UPDATE allocations
		SET disbursement_status = $2, allocated_amount_crypto = $3, allocated_amount_usd = $4, mock_transaction_id = $5, disbursed_at = $6
		WHERE allocation_id = $1
	`
	for _, alloc := range allocations {
		if alloc.IsDisbursed() {
			continue
		}
		apply(alloc)
		var disbursedAt *time.Time
		if alloc.DisbursedAt != nil {
			disbursedAt = alloc.DisbursedAt
		}
		_, err := tx.ExecContext(ctx, update,
			alloc.ID.String(),
			string(alloc.Status),
			alloc.AllocatedAmountCrypto,
			alloc.AllocatedAmountUSD,
			alloc.MockTransactionID,
			disbursedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("update allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return allocations, nil
}

const selectAllocations = `
	SELECT allocation_id, asset_id, beneficiary_id, percentage, disbursement_status,
	       allocated_amount_crypto, allocated_amount_usd, mock_transaction_id, disbursed_at, created_at
	FROM allocations
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row rowScanner) (*models.Allocation, error) {
	var (
		alloc        models.Allocation
		rawID        string
		rawAsset     string
		rawBennie    string
		status       string
		amountCrypto decimal.NullDecimal
		amountUSD    decimal.NullDecimal
		disbursedAt  sql.NullTime
	)
	err := row.Scan(&rawID, &rawAsset, &rawBennie, &alloc.Percentage, &status,
		&amountCrypto, &amountUSD, &alloc.MockTransactionID, &disbursedAt, &alloc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("scan allocation: %w", err)
	}

	allocationID, err := id.ParseAllocationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse stored allocation id: %w", err)
	}
	assetID, err := id.ParseAssetID(rawAsset)
	if err != nil {
		return nil, fmt.Errorf("parse stored asset id: %w", err)
	}
	beneficiaryID, err := id.ParseBeneficiaryID(rawBennie)
	if err != nil {
		return nil, fmt.Errorf("parse stored beneficiary id: %w", err)
	}

	alloc.ID = allocationID
	alloc.AssetID = assetID
	alloc.BeneficiaryID = beneficiaryID
	alloc.Status = models.DisbursementStatus(status)
	if amountCrypto.Valid {
		alloc.AllocatedAmountCrypto = amountCrypto.Decimal
	}
	if amountUSD.Valid {
		alloc.AllocatedAmountUSD = amountUSD.Decimal
	}
	if disbursedAt.Valid {
		t := disbursedAt.Time
		alloc.DisbursedAt = &t
	}
	return &alloc, nil
}
