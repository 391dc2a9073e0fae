package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/solvari/radar/pkg/db"
	"github.com/solvari/radar/pkg/domain"
)

// Server represents HTTP server instance
type Server struct {
	config     ConfigProvider
	database   Database
	pipeline   Pipeline
	classifier Classifier
	generator  Generator
	version    string
	debug      bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Database interface for server operations
type Database interface {
	GetProfile(ctx context.Context, id int64) (*domain.Profile, error)
	GetProfiles(ctx context.Context, ring domain.Ring, limit int) ([]domain.Profile, error)
	CreateOutreach(ctx context.Context, msg *domain.OutreachMessage) (int64, error)
	GetStats(ctx context.Context) (*db.Stats, error)
}

// Pipeline interface for batch processing
type Pipeline interface {
	Process(ctx context.Context, urls []string, sourceType string, autoOutreach bool) []domain.Result
}

// Classifier interface for direct text classification
type Classifier interface {
	Classify(ctx context.Context, content domain.ScrapedContent) domain.Classification
}

// Generator interface for outreach generation
type Generator interface {
	Generate(profileID int64, classification domain.Classification, channel domain.Channel) domain.OutreachMessage
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance
func New(cfg ConfigProvider, database Database, pipeline Pipeline, classifier Classifier, generator Generator, version string, debug bool) *Server {
	s := &Server{
		config:     cfg,
		database:   database,
		pipeline:   pipeline,
		classifier: classifier,
		generator:  generator,
		version:    version,
		debug:      debug,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("radar", "solvari", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /rings", s.ringsHandler)
		r.HandleFunc("GET /stats", s.statsHandler)
		r.HandleFunc("GET /profiles", s.listProfilesHandler)
		r.HandleFunc("GET /profiles/{id}", s.getProfileHandler)
		r.HandleFunc("POST /classify", s.classifyHandler)
		r.HandleFunc("POST /pipeline", s.pipelineHandler)
		r.HandleFunc("POST /outreach/generate", s.generateOutreachHandler)
	})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
