// Package handler wires HTTP endpoints to the allocation ledger.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"legatum/internal/allocation/models"
	"legatum/internal/allocation/service"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/httputil"
)

// Handler exposes the ledger over REST.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs an HTTP handler for allocation routes.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the allocation routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/crypto/{assetID}", func(r chi.Router) {
		r.Get("/allocations", h.list)
		r.Post("/allocations", h.create)
		r.Post("/disburse", h.disburse)
	})
	r.Delete("/allocations/{allocationID}", h.remove)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	overview, err := h.svc.ListAllocations(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newOverviewResponse(overview))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.CreateAllocationRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	alloc, err := h.svc.AddAllocation(r.Context(), assetID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, alloc)
}

func (h *Handler) disburse(w http.ResponseWriter, r *http.Request) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	allocations, err := h.svc.Disburse(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, allocations)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	allocationID, err := id.ParseAllocationID(chi.URLParam(r, "allocationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.RemoveAllocation(r.Context(), allocationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
