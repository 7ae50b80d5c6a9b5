// Package handler wires HTTP endpoints to the beneficiary service.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"legatum/internal/beneficiary/models"
	"legatum/internal/beneficiary/service"
	id "legatum/pkg/domain"
	"legatum/pkg/platform/httputil"
)

// Handler exposes beneficiary routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs an HTTP handler for beneficiary routes.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the beneficiary routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/beneficiaries", func(r chi.Router) {
		r.Post("/", h.register)
		r.Get("/", h.list)
		r.Get("/{beneficiaryID}", h.get)
		r.Post("/{beneficiaryID}/revoke", h.revoke)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterBeneficiaryRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	b, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"beneficiaries": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	b, err := h.svc.Get(r.Context(), beneficiaryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "beneficiaryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	b, err := h.svc.Revoke(r.Context(), beneficiaryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}
