// Package server exposes the simulation engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/run-expectancy/config"
	"github.com/baseball-sim/run-expectancy/metrics"
	"github.com/baseball-sim/run-expectancy/simulation"
	"github.com/baseball-sim/run-expectancy/store"
)

// Server handles simulation requests
type Server struct {
	config     *config.Config
	store      store.Store
	simEngine  *simulation.SimulationEngine
	router     *mux.Router
	httpServer *http.Server
	log        *logrus.Entry

	// runCtx outlives individual requests and is cancelled on shutdown
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// New creates a server. st may be nil, in which case results only live in
// memory.
func New(cfg *config.Config, st store.Store, engine *simulation.SimulationEngine) *Server {
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:     cfg,
		store:      st,
		simEngine:  engine,
		router:     mux.NewRouter(),
		log:        logrus.WithField("component", "server"),
		runCtx:     runCtx,
		cancelRuns: cancel,
	}
	s.setupRoutes()
	engine.StartCleanup(runCtx)
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Simulation endpoints
	s.router.HandleFunc("/simulate", s.simulateHandler).Methods("POST")
	s.router.HandleFunc("/simulation/{id}/status", s.simulationStatusHandler).Methods("GET")
	s.router.HandleFunc("/simulation/{id}/result", s.simulationResultHandler).Methods("GET")
	s.router.HandleFunc("/simulation/{id}/result.csv", s.simulationCSVHandler).Methods("GET")

	// Apply middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.Middleware(routeTemplate))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.log),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(handlers.CompressHandler(c.Handler(s.router)))
}

// Start listens on the configured port and blocks until the server stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // CSV results for a full grid are large
		IdleTimeout:  120 * time.Second,
	}

	s.log.WithFields(logrus.Fields{
		"port":    s.config.Port,
		"workers": s.simEngine.Workers(),
		"innings": s.simEngine.DefaultInnings(),
	}).Info("Starting simulation server")
	return s.httpServer.ListenAndServe()
}

// Shutdown cancels in-flight runs and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down simulation server...")

	s.cancelRuns()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
