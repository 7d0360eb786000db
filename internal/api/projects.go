package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GerMati/detect/internal/auth"
	"github.com/GerMati/detect/internal/storage"
	"github.com/GerMati/detect/pkg/models"
)

// ProjectRequest is a project creation request.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toProjectModel(p *storage.Project) models.Project {
	return models.Project{
		ID:          p.ID.String(),
		OwnerID:     p.OwnerID.String(),
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// requireProject loads a project and verifies the caller owns it. On failure
// it writes the response and returns nil.
func (s *Server) requireProject(w http.ResponseWriter, r *http.Request) *storage.Project {
	projectID := chi.URLParam(r, "projectID")
	pid, err := uuid.Parse(projectID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid project id")
		return nil
	}

	project, err := s.projectRepo.GetByID(r.Context(), pid)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch project")
		return nil
	}
	if project == nil {
		respondError(w, http.StatusNotFound, "project not found")
		return nil
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok || project.OwnerID.String() != claims.AnalystID {
		respondError(w, http.StatusForbidden, "access denied")
		return nil
	}

	return project
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ownerID, err := uuid.Parse(claims.AnalystID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analyst id")
		return
	}

	projects, err := s.projectRepo.GetByOwnerID(r.Context(), ownerID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch projects")
		return
	}

	response := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		response = append(response, toProjectModel(p))
	}

	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ownerID, err := uuid.Parse(claims.AnalystID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analyst id")
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	project := &storage.Project{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.projectRepo.Create(r.Context(), project); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	respondJSON(w, http.StatusCreated, toProjectModel(project))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}
	respondJSON(w, http.StatusOK, toProjectModel(project))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	if err := s.projectRepo.Delete(r.Context(), project.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
