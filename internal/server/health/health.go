// Package health serves the liveness and readiness checks over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/julienschmidt/httprouter"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type Handler struct {
	db      Pinger
	logger  logging.Logger
	timeout time.Duration
}

func NewHandler(db Pinger, logger logging.Logger) *Handler {
	return &Handler{db: db, logger: logger.With("module", "health"), timeout: 2 * time.Second}
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, code int, v Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(ctx, "failed to write JSON response", "error", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.writeJSON(r.Context(), w, http.StatusOK, Response{Status: "ok"})
}

// Ready answers 503 while the storage backend cannot be reached.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn(ctx, "storage health check failed", "error", err)
		h.writeJSON(ctx, w, http.StatusServiceUnavailable, Response{Status: "unavailable", Database: "error"})
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, Response{Status: "ready", Database: "ok"})
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)
}

// Server runs the health checks on their own listener, apart from gRPC.
type Server struct {
	address string
	handler *Handler
	logger  logging.Logger
}

func NewServer(address string, db Pinger, logger logging.Logger) *Server {
	return &Server{address: address, handler: NewHandler(db, logger), logger: logger.With("module", "http_server")}
}

func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()
	s.handler.RegisterRoutes(router)
	return router
}

// Serve handles requests on lis until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
		errs <- srv.Serve(lis)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}
