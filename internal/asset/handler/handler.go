// Package handler wires HTTP endpoints to the asset service.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"legatum/internal/asset/models"
	"legatum/internal/asset/service"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/httputil"
)

// Handler exposes asset routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs an HTTP handler for asset routes.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the asset routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/crypto/assets", func(r chi.Router) {
		r.Post("/", h.register)
		r.Get("/{assetID}", h.get)
		r.Put("/{assetID}/balance", h.updateBalance)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterAssetRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, asset)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.svc.Get(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) updateBalance(w http.ResponseWriter, r *http.Request) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.UpdateBalanceRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	asset, err := h.svc.UpdateBalance(r.Context(), assetID, &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}
