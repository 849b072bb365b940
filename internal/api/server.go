package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nvarela/aipbundler/internal/config"
	"github.com/nvarela/aipbundler/internal/ocr"
	"github.com/nvarela/aipbundler/internal/pipeline"
)

// Server is the HTTP API server for aipbundler.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	ocrStats     *ocr.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, ocrStats *ocr.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		ocrStats:     ocrStats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/assemble", s.handleAssemble)
		r.Post("/api/discover", s.handleDiscover)
		r.Get("/api/assemble/{jobID}/status", s.handleAssembleStatus)
		r.Get("/api/report", s.handleReport)
		r.Get("/api/stats/ocr", s.handleOCRStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
