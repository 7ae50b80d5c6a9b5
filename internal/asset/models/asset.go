package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "legatum/pkg/domain"
	dErrors "legatum/pkg/domain-errors"
)

// WalletType enumerates the custodied wallet kinds.
type WalletType string

const (
	WalletBitcoin  WalletType = "bitcoin"
	WalletEthereum WalletType = "ethereum"
	WalletUSDT     WalletType = "usdt"
)

func (w WalletType) IsValid() bool {
	switch w {
	case WalletBitcoin, WalletEthereum, WalletUSDT:
		return true
	}
	return false
}

// CryptoAsset is one custodied wallet snapshot.
//
// Invariants:
//   - WalletType is one of the known kinds; WalletAddress is non-empty
//   - BalanceCrypto is non-negative; it is a point-in-time snapshot refreshed
//     by the owning collaborator, never live-synced
//   - BalanceUSD is an informational estimate, never used in allocation math
//   - The allocation subsystem never mutates balances
type CryptoAsset struct {
	ID            id.AssetID      `json:"asset_id"`
	WalletType    WalletType      `json:"wallet_type"`
	WalletAddress string          `json:"wallet_address"`
	BalanceCrypto decimal.Decimal `json:"balance_crypto"`
	BalanceUSD    decimal.Decimal `json:"balance_usd"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewCryptoAsset constructs a wallet snapshot, validating invariants.
func NewCryptoAsset(assetID id.AssetID, walletType WalletType, address string, balanceCrypto, balanceUSD decimal.Decimal, now time.Time) (*CryptoAsset, error) {
	if !walletType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown wallet type")
	}
	if address == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "wallet address cannot be empty")
	}
	if balanceCrypto.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "balance cannot be negative")
	}
	if balanceUSD.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "usd balance cannot be negative")
	}
	return &CryptoAsset{
		ID:            assetID,
		WalletType:    walletType,
		WalletAddress: address,
		BalanceCrypto: balanceCrypto,
		BalanceUSD:    balanceUSD,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyBalance refreshes the snapshot from the owning collaborator.
func (a *CryptoAsset) ApplyBalance(balanceCrypto, balanceUSD decimal.Decimal, now time.Time) error {
	if balanceCrypto.Sign() < 0 || balanceUSD.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "balance cannot be negative")
	}
	a.BalanceCrypto = balanceCrypto
	a.BalanceUSD = balanceUSD
	a.UpdatedAt = now
	return nil
}
