// Package core provides the API chassis for the notification gateway.
// It creates the chi router and enforces cross-cutting concerns -- panic
// recovery, request correlation, logging, and error handling -- before
// requests reach the channel handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notifygate/internal/config"
)

// RouteRegistrar registers a group of handler routes on a router. Handler
// packages provide registrars to the entry point, which hands them to the
// server; this indirection avoids an import cycle between core and the
// handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the HTTP-facing dependencies of the gateway, allowing
// for easy injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// V1Registrars mount under /v1. RootRegistrars mount at the router
	// root and carry the pre-versioning endpoint aliases.
	V1Registrars   []RouteRegistrar
	RootRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. It performs a fail-fast check on critical
// dependencies.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route
// registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	v, err := NewValidator(logger)
	if err != nil {
		return nil, fmt.Errorf("initializing validator: %w", err)
	}

	s := &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: v,
		router:    chi.NewRouter(),
	}

	return s, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
// This is used internally by route-mounting methods and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources. The gateway
// holds no pooled connections of its own; transports close with the process.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
