package beneficiary

import (
	"log/slog"

	"legatum/internal/beneficiary/handler"
	"legatum/internal/beneficiary/service"
)

// Service exposes beneficiary orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the beneficiary service.
type Handler = handler.Handler

// NewService constructs the beneficiary service with required dependencies.
func NewService(beneficiaries service.Store, opts ...service.Option) *Service {
	return service.New(beneficiaries, opts...)
}

// NewHandler constructs an HTTP handler for beneficiary routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
