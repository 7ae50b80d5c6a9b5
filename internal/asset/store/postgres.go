package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"legatum/internal/asset/models"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists asset snapshots in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed asset store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, asset *models.CryptoAsset) error {
	const query = `
		INSERT INTO crypto_assets (asset_id, wallet_type, wallet_address, balance_crypto, balance_usd, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		asset.ID.String(),
		string(asset.WalletType),
		asset.WalletAddress,
		asset.BalanceCrypto,
		asset.BalanceUSD,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, assetID id.AssetID) (*models.CryptoAsset, error) {
	const query = `
		SELECT asset_id, wallet_type, wallet_address, balance_crypto, balance_usd, created_at, updated_at
		FROM crypto_assets
		WHERE asset_id = $1
	`
	return scanAsset(s.db.QueryRowContext(ctx, query, assetID.String()))
}

// Execute locks the asset row, validates, applies the mutation, and persists
// the result in one transaction.
func (s *PostgresStore) Execute(ctx context.Context, assetID id.AssetID, validate func(*models.CryptoAsset) error, apply func(*models.CryptoAsset)) (*models.CryptoAsset, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
		SELECT asset_id, wallet_type, wallet_address, balance_crypto, balance_usd, created_at, updated_at
		FROM crypto_assets
		WHERE asset_id = $1
		FOR UPDATE
	`
	asset, err := scanAsset(tx.QueryRowContext(ctx, query, assetID.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(asset); err != nil {
		return nil, err
	}
	apply(asset)

	const update = `
		UPDATE crypto_assets
		SET balance_crypto = $2, balance_usd = $3, updated_at = $4
		WHERE asset_id = $1
	`
	if _, err := tx.ExecContext(ctx, update, asset.ID.String(), asset.BalanceCrypto, asset.BalanceUSD, asset.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return asset, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.CryptoAsset, error) {
	var (
		asset      models.CryptoAsset
		rawID      string
		walletType string
	)
	err := row.Scan(&rawID, &walletType, &asset.WalletAddress, &asset.BalanceCrypto, &asset.BalanceUSD, &asset.CreatedAt, &asset.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	assetID, err := id.ParseAssetID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse stored asset id: %w", err)
	}
	asset.ID = assetID
	asset.WalletType = models.WalletType(walletType)
	return &asset, nil
}
