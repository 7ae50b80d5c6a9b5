package allocation

import (
	"log/slog"

	"legatum/internal/allocation/handler"
	"legatum/internal/allocation/service"
)

// Service exposes the allocation ledger and input reconciliation.
type Service = service.Service

// Handler wires HTTP endpoints to the allocation service.
type Handler = handler.Handler

// NewService constructs the ledger service with required dependencies.
func NewService(allocations service.Store, assets service.AssetDirectory, opts ...service.Option) *Service {
	return service.New(allocations, assets, opts...)
}

// NewHandler constructs an HTTP handler for allocation routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
