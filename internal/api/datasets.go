package api

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GerMati/detect/internal/dataset"
	"github.com/GerMati/detect/internal/storage"
	"github.com/GerMati/detect/pkg/models"
)

const maxUploadSize = 20 << 20 // 20 MB

// UploadResponse is returned after a dataset upload.
type UploadResponse struct {
	DatasetID string `json:"dataset_id"`
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	RowCount  int    `json:"row_count"`
	Status    string `json:"status"`
}

// handleUploadDataset ingests a CSV dataset into a project. The content is
// parsed up front so malformed tables are rejected before anything is
// stored, and deduplicated by content hash.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if ext := filepath.Ext(header.Filename); ext != ".csv" {
		respondError(w, http.StatusBadRequest, "only .csv files are allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	table, err := dataset.ParseCSVString(string(content))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid CSV: "+err.Error())
		return
	}

	hash := sha256.Sum256(content)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.datasetRepo.GetByHash(r.Context(), project.ID, hashStr)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to check existing datasets")
		return
	}
	if existing != nil {
		respondJSON(w, http.StatusOK, UploadResponse{
			DatasetID: existing.ID.String(),
			Name:      existing.Name,
			Hash:      hashStr,
			RowCount:  existing.RowCount,
			Status:    "exists",
		})
		return
	}

	ds := &storage.Dataset{
		ProjectID:   project.ID,
		Name:        header.Filename,
		Content:     string(content),
		ContentHash: hashStr,
		RowCount:    table.Len(),
	}
	if err := s.datasetRepo.Create(r.Context(), ds); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save dataset")
		return
	}

	respondJSON(w, http.StatusCreated, UploadResponse{
		DatasetID: ds.ID.String(),
		Name:      ds.Name,
		Hash:      hashStr,
		RowCount:  ds.RowCount,
		Status:    "created",
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	datasets, err := s.datasetRepo.GetByProjectID(r.Context(), project.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch datasets")
		return
	}

	response := make([]models.Dataset, 0, len(datasets))
	for _, ds := range datasets {
		response = append(response, models.Dataset{
			ID:        ds.ID.String(),
			ProjectID: ds.ProjectID.String(),
			Name:      ds.Name,
			Hash:      ds.ContentHash,
			RowCount:  ds.RowCount,
			CreatedAt: ds.CreatedAt,
		})
	}

	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	did, err := uuid.Parse(chi.URLParam(r, "datasetID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dataset id")
		return
	}

	// Owning the project in the URL is not enough; the dataset must belong
	// to that project too.
	ds, err := s.datasetRepo.GetByID(r.Context(), did)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch dataset")
		return
	}
	if ds == nil || ds.ProjectID != project.ID {
		respondError(w, http.StatusNotFound, "dataset not found")
		return
	}

	if err := s.datasetRepo.Delete(r.Context(), ds.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete dataset")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
