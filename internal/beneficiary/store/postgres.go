package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"legatum/internal/beneficiary/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const selectBeneficiary = `
SELECT beneficiary_id, email, first_name, last_name, relationship_type,
       priority_level, status, created_at, updated_at
FROM beneficiaries`

// PostgresStore persists beneficiaries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed beneficiary store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, b *models.Beneficiary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO beneficiaries (beneficiary_id, email, first_name, last_name,
			relationship_type, priority_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID.String(), b.Email, b.FirstName, b.LastName,
		b.RelationshipType, b.PriorityLevel, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	row := s.db.QueryRowContext(ctx, selectBeneficiary+` WHERE beneficiary_id = $1`, beneficiaryID.String())
	return scanBeneficiary(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Beneficiary, error) {
	rows, err := s.db.QueryContext(ctx, selectBeneficiary+` ORDER BY created_at, beneficiary_id`)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	var out []*models.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Execute(ctx context.Context, beneficiaryID id.BeneficiaryID, validate func(*models.Beneficiary) error, apply func(*models.Beneficiary) error) (*models.Beneficiary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, selectBeneficiary+` WHERE beneficiary_id = $1 FOR UPDATE`, beneficiaryID.String())
	b, err := scanBeneficiary(row)
	if err != nil {
		return nil, err
	}
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := apply(b); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE beneficiaries
		SET email = $2, first_name = $3, last_name = $4, relationship_type = $5,
		    priority_level = $6, status = $7, updated_at = $8
		WHERE beneficiary_id = $1`,
		b.ID.String(), b.Email, b.FirstName, b.LastName,
		b.RelationshipType, b.PriorityLevel, string(b.Status), b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update beneficiary: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row rowScanner) (*models.Beneficiary, error) {
	var (
		b         models.Beneficiary
		rawID     string
		rawStatus string
	)
	err := row.Scan(&rawID, &b.Email, &b.FirstName, &b.LastName,
		&b.RelationshipType, &b.PriorityLevel, &rawStatus, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan beneficiary: %w", err)
	}
	bid, err := id.ParseBeneficiaryID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse beneficiary id: %w", err)
	}
	b.ID = bid
	b.Status = models.Status(rawStatus)
	return &b, nil
}
