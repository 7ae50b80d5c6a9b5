package models

import (
	"strings"

	"github.com/shopspring/decimal"

	dErrors "legatum/pkg/domain-errors"
)

// RegisterAssetRequest is the POST body for registering a wallet snapshot.
type RegisterAssetRequest struct {
	WalletType    string          `json:"wallet_type"`
	WalletAddress string          `json:"wallet_address"`
	BalanceCrypto decimal.Decimal `json:"balance_crypto"`
	BalanceUSD    decimal.Decimal `json:"balance_usd"`
}

func (r *RegisterAssetRequest) Normalize() {
	r.WalletType = strings.ToLower(strings.TrimSpace(r.WalletType))
	r.WalletAddress = strings.TrimSpace(r.WalletAddress)
}

func (r *RegisterAssetRequest) Validate() error {
	if !WalletType(r.WalletType).IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "wallet_type must be one of bitcoin, ethereum, usdt")
	}
	if r.WalletAddress == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "wallet_address is required")
	}
	if r.BalanceCrypto.Sign() < 0 || r.BalanceUSD.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "balances cannot be negative")
	}
	return nil
}

// UpdateBalanceRequest is the PUT body for refreshing a wallet snapshot.
type UpdateBalanceRequest struct {
	BalanceCrypto decimal.Decimal `json:"balance_crypto"`
	BalanceUSD    decimal.Decimal `json:"balance_usd"`
}

func (r *UpdateBalanceRequest) Validate() error {
	if r.BalanceCrypto.Sign() < 0 || r.BalanceUSD.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "balances cannot be negative")
	}
	return nil
}
