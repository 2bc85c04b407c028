package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"property-valuation/services"
	"property-valuation/utils"
)

// Server exposes the valuation engine over HTTP.
type Server struct {
	engine     *services.Engine
	logger     *utils.Logger
	gatherer   prometheus.Gatherer
	auditLimit int
	httpServer *http.Server
	router     *mux.Router
}

// NewServer creates a server listening on addr. gatherer may be nil, in
// which case /metrics is not served.
func NewServer(addr string, engine *services.Engine, logger *utils.Logger, gatherer prometheus.Gatherer, auditLimit int) *Server {
	s := &Server{
		engine:     engine,
		logger:     logger,
		gatherer:   gatherer,
		auditLimit: auditLimit,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api").Subrouter()

	// Ingestion
	api.HandleFunc("/ingestions", s.createIngestion).Methods("POST")
	api.HandleFunc("/ingestions", s.listIngestions).Methods("GET")
	api.HandleFunc("/ingestions/{id}", s.getIngestion).Methods("GET")

	// Comparables and valuation
	api.HandleFunc("/comparables/search", s.searchComparables).Methods("POST")
	api.HandleFunc("/comparables/{runId}/override", s.overrideAdjustment).Methods("POST")
	api.HandleFunc("/valuations", s.createValuation).Methods("POST")

	// Reports
	api.HandleFunc("/reports", s.createReport).Methods("POST")
	api.HandleFunc("/reports/{id}", s.getReport).Methods("GET")
	api.HandleFunc("/reports/{id}/finalize", s.finalizeReport).Methods("POST")

	// Audit
	api.HandleFunc("/audit", s.listAudit).Methods("GET")

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	s.router.Use(requestLogging(s.logger))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[api] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("[api] stopped")
	return nil
}

// requestLogging logs method, path, status and duration of every request.
func requestLogging(logger *utils.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("[api] %s %s → %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
