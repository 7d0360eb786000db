package api

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GerMati/detect/internal/auth"
	"github.com/GerMati/detect/internal/detect"
	"github.com/GerMati/detect/internal/storage"
)

// ServerConfig wires the server's collaborators.
type ServerConfig struct {
	DB        *sql.DB
	JWTSecret string
}

// Server is the HTTP front of the bias-detection service.
type Server struct {
	router *chi.Mux

	authService   auth.Service
	detectService *detect.Service

	projectRepo storage.ProjectRepository
	datasetRepo storage.DatasetRepository
	auditRepo   storage.AuditRepository
}

// NewServer builds the router and wires services and repositories.
func NewServer(config ServerConfig) *Server {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authConfig := auth.DefaultConfig()
	if config.JWTSecret != "" {
		authConfig.SecretKey = config.JWTSecret
	}

	s := &Server{
		router:        r,
		authService:   auth.NewJWTService(authConfig, auth.NewPostgresRepository(config.DB)),
		detectService: detect.NewService(),
		projectRepo:   storage.NewPostgresProjectRepository(config.DB),
		datasetRepo:   storage.NewPostgresDatasetRepository(config.DB),
		auditRepo:     storage.NewPostgresAuditRepository(config.DB),
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authService))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", s.handleListProjects)
				r.Post("/", s.handleCreateProject)
				r.Get("/{projectID}", s.handleGetProject)
				r.Delete("/{projectID}", s.handleDeleteProject)

				r.Post("/{projectID}/datasets", s.handleUploadDataset)
				r.Get("/{projectID}/datasets", s.handleListDatasets)
				r.Delete("/{projectID}/datasets/{datasetID}", s.handleDeleteDataset)

				r.Post("/{projectID}/audits", s.handleRunAudit)
				r.Get("/{projectID}/audits", s.handleListAudits)
				r.Get("/{projectID}/audits/{auditID}", s.handleGetAudit)
				r.Delete("/{projectID}/audits/{auditID}", s.handleDeleteAudit)
				r.Get("/{projectID}/audits/{auditID}/similar", s.handleSimilarAudits)

				r.Get("/{projectID}/map", s.handleProfileMap)
			})
		})
	})
}

// Run starts the HTTP listener.
func (s *Server) Run(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper to send JSON responses.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
