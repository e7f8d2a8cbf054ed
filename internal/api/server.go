package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/formfill/internal/config"
	"github.com/dgallion1/formfill/internal/pipeline"
	"github.com/dgallion1/formfill/internal/uploads"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP front end for form filling.
type Server struct {
	router    chi.Router
	processor *pipeline.Processor
	uploads   *uploads.Store
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(proc *pipeline.Processor, store *uploads.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		processor: proc,
		uploads:   store,
		log:       log,
		cfg:       cfg,
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

	// Browser endpoints.
	r.Get("/", s.handleForm)
	r.Post("/upload", s.handleUpload)
	r.Get("/health", s.handleHealth)

	// Reporting endpoints; authenticated when a key is configured.
	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Get("/batches/{batchID}", s.handleBatch)
		r.Get("/stats", s.handleStats)
		r.Get("/template/grid", s.handleTemplateGrid)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
