package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	allocservice "legatum/internal/allocation/service"
	allocstore "legatum/internal/allocation/store"
	assetmodels "legatum/internal/asset/models"
	assetservice "legatum/internal/asset/service"
	assetstore "legatum/internal/asset/store"
	id "legatum/pkg/domain"
)

func newLedgerRouter(t *testing.T) (chi.Router, *assetservice.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assets := assetservice.New(assetstore.NewInMemory())
	svc := allocservice.New(allocstore.NewInMemory(), assets)

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r, assets
}

func registerAsset(t *testing.T, assets *assetservice.Service, balance string) id.AssetID {
	t.Helper()
	asset, err := assets.Register(context.Background(), &assetmodels.RegisterAssetRequest{
		WalletType:    "ethereum",
		WalletAddress: "0xabc" + uuid.NewString(),
		BalanceCrypto: decimal.RequireFromString(balance),
		BalanceUSD:    decimal.RequireFromString(balance).Mul(decimal.NewFromInt(100)),
	})
	if err != nil {
		t.Fatalf("failed to register asset: %v", err)
	}
	return asset.ID
}

func postAllocation(t *testing.T, router chi.Router, assetID id.AssetID, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/crypto/"+assetID.String()+"/allocations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListAllocations(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "10")

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"percentage":     "25",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating allocation, got %d: %s", rec.Code, rec.Body)
	}

	var created struct {
		AllocationID uuid.UUID `json:"allocation_id"`
		Percentage   string    `json:"percentage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode allocation response: %v", err)
	}
	if created.AllocationID == uuid.Nil {
		t.Fatalf("expected allocation_id in response")
	}

	listReq := httptest.NewRequest(http.MethodGet, "/crypto/"+assetID.String()+"/allocations", nil)
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing allocations, got %d", listRec.Code)
	}

	var overview struct {
		TotalPercentage     string `json:"total_percentage"`
		RemainingPercentage string `json:"remaining_percentage"`
		Allocations         []struct {
			AmountCrypto string `json:"amount_crypto"`
		} `json:"allocations"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&overview); err != nil {
		t.Fatalf("failed to decode overview: %v", err)
	}
	if overview.TotalPercentage != "25" || overview.RemainingPercentage != "75" {
		t.Fatalf("unexpected totals: total=%s remaining=%s", overview.TotalPercentage, overview.RemainingPercentage)
	}
	if len(overview.Allocations) != 1 || overview.Allocations[0].AmountCrypto != "2.5" {
		t.Fatalf("expected derived amount 2.5, got %+v", overview.Allocations)
	}
}

func TestCapacityRejectionPayload(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "10")

	if rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"percentage":     "60",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"percentage":     "40.01",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 over capacity, got %d: %s", rec.Code, rec.Body)
	}

	var payload struct {
		Error     string `json:"error"`
		Remaining string `json:"remaining_percentage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload.Error != "capacity_exceeded" {
		t.Fatalf("expected capacity_exceeded error code, got %q", payload.Error)
	}
	if payload.Remaining != "40" {
		t.Fatalf("expected remaining_percentage 40, got %q", payload.Remaining)
	}
}

func TestDuplicateBeneficiaryConflict(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "10")
	beneficiary := uuid.NewString()

	if rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": beneficiary,
		"percentage":     "10",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": beneficiary,
		"percentage":     "5",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate beneficiary, got %d", rec.Code)
	}
}

func TestAmountModeZeroBalance(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "0")

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"amount":         "1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for amount mode on zero balance, got %d: %s", rec.Code, rec.Body)
	}
}

func TestRemoveAllocation(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "10")

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"percentage":     "30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		AllocationID uuid.UUID `json:"allocation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/allocations/"+created.AllocationID.String(), nil)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 removing allocation, got %d", delRec.Code)
	}

	againRec := httptest.NewRecorder()
	router.ServeHTTP(againRec, httptest.NewRequest(http.MethodDelete, "/allocations/"+created.AllocationID.String(), nil))
	if againRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 removing twice, got %d", againRec.Code)
	}
}

func TestDisburseFlow(t *testing.T) {
	router, assets := newLedgerRouter(t)
	assetID := registerAsset(t, assets, "10")

	rec := postAllocation(t, router, assetID, map[string]any{
		"beneficiary_id": uuid.NewString(),
		"percentage":     "50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		AllocationID uuid.UUID `json:"allocation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	disburseRec := httptest.NewRecorder()
	router.ServeHTTP(disburseRec, httptest.NewRequest(http.MethodPost, "/crypto/"+assetID.String()+"/disburse", nil))
	if disburseRec.Code != http.StatusOK {
		t.Fatalf("expected 200 disbursing, got %d: %s", disburseRec.Code, disburseRec.Body)
	}

	var disbursed []struct {
		Status            string `json:"disbursement_status"`
		MockTransactionID string `json:"mock_transaction_id"`
	}
	if err := json.NewDecoder(disburseRec.Body).Decode(&disbursed); err != nil {
		t.Fatalf("failed to decode disbursement response: %v", err)
	}
	if len(disbursed) != 1 || disbursed[0].Status != "disbursed" || disbursed[0].MockTransactionID == "" {
		t.Fatalf("unexpected disbursement payload: %+v", disbursed)
	}

	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, httptest.NewRequest(http.MethodDelete, "/allocations/"+created.AllocationID.String(), nil))
	if delRec.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting disbursed allocation, got %d", delRec.Code)
	}
}

func TestInvalidAssetID(t *testing.T) {
	router, _ := newLedgerRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/crypto/not-a-uuid/allocations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed asset id, got %d", rec.Code)
	}
}
