package web

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/bus"
	"github.com/isa-group/harvey-agent-core/internal/config"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	mux            *http.ServeMux
	chatHandler    *ChatHandler
	eventsHandler  *EventsHandler
	uploadHandler  *UploadHandler
	pricingHandler *PricingHandler
	healthHandler  *HealthHandler
	settings       config.Settings
}

// NewServer creates a new web server with the given handlers, wired to
// spec.md §4.8's route set: POST /chat, GET /events, POST /upload,
// DELETE /pricing/{id}, GET /static/{id}, GET /health.
func NewServer(chatHandler *ChatHandler, notifier *bus.Bus, uploadHandler *UploadHandler, pricingHandler *PricingHandler, healthInfo HealthInfo, settings config.Settings) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		chatHandler:    chatHandler,
		eventsHandler:  NewEventsHandler(notifier),
		uploadHandler:  uploadHandler,
		pricingHandler: pricingHandler,
		healthHandler:  NewHealthHandler(healthInfo),
		settings:       settings,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /chat", s.chatHandler.ServeHTTP)
	s.mux.HandleFunc("GET /events", s.eventsHandler.ServeHTTP)
	s.mux.HandleFunc("POST /upload", s.uploadHandler.ServeHTTP)
	s.mux.HandleFunc("DELETE /pricing/{id}", s.pricingHandler.HandleDelete)
	s.mux.HandleFunc("GET /static/{id}", s.pricingHandler.HandleStatic)
	s.mux.HandleFunc("GET /health", s.healthHandler.ServeHTTP)
}

// Start begins listening on the configured port with graceful shutdown.
// On SIGINT/SIGTERM, it waits up to 10s for in-flight requests to complete,
// ensuring deferred cleanup (e.g. registry.CloseAll) runs reliably.
func (s *Server) Start() error {
	addr := s.settings.WebHost + ":" + s.settings.WebPort
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Println("received shutdown signal, draining in-flight requests")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown error: %v", err)
		}
	}()

	log.Printf("harveyagent listening on http://%s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		log.Println("server stopped gracefully")
		return nil
	}
	return err
}
