// Package server provides the HTTP transport over analysis sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/server/api"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server dependencies. Store and Gatherer are optional.
type Config struct {
	Sessions  *session.Manager
	Store     *store.Store
	Metrics   *metrics.Manager
	Gatherer  prometheus.Gatherer
	StaticDir string
}

// Server is the HTTP server of the application.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

func New(config Config) *Server {
	if config.Metrics == nil {
		config.Metrics = metrics.NewTestManager()
	}
	if config.Sessions == nil {
		config.Sessions = session.NewManager(session.DefaultConfig(), config.Metrics)
	}
	s := &Server{
		config: config,
		start:  time.Now(),
	}
	s.router = s.routerSetup()
	return s
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("formcheck-router"))

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet).Name("health")

	api.NewAnalyzeHandler().SetupRoutes(r)
	api.NewSessionHandler(s.config.Sessions, s.config.Store).SetupRoutes(r)
	r.Handle("/api/sessions/{id}/stream", NewStreamHandler(s.config.Sessions)).
		Methods(http.MethodGet).Name("session-stream")

	if s.config.Store != nil {
		api.NewAthleteHandler(s.config.Store).SetupRoutes(r)
	}

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})).
			Methods(http.MethodGet).Name("metrics")
	}

	if s.config.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.StaticDir))).Name("static")
	}

	r.Use(PanicRecovery(s.config.Metrics))
	r.Use(LogRequest())
	r.Use(RequestMetrics(s.config.Metrics))

	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Storage  string `json:"storage"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.start).Round(time.Second).String(),
		Sessions: s.config.Sessions.Len(),
		Storage:  "disabled",
	}
	if s.config.Store != nil {
		resp.Storage = "ok"
		if err := s.config.Store.Ping(r.Context()); err != nil {
			log.Errorf("health: store ping: %s", err)
			resp.Status = "degraded"
			resp.Storage = "unavailable"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
