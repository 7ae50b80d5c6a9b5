package asset

import (
	"log/slog"

	"legatum/internal/asset/handler"
	"legatum/internal/asset/service"
)

// Service exposes crypto asset snapshot orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the asset service.
type Handler = handler.Handler

// NewService constructs the asset service with required dependencies.
func NewService(assets service.Store, opts ...service.Option) *Service {
	return service.New(assets, opts...)
}

// NewHandler constructs an HTTP handler for asset routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
