package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/GerMati/detect/internal/dataset"
	"github.com/GerMati/detect/internal/detect"
	"github.com/GerMati/detect/internal/msd"
	"github.com/GerMati/detect/internal/profile"
	"github.com/GerMati/detect/internal/storage"
	"github.com/GerMati/detect/pkg/models"
)

// AuditRequest configures one detection run. Either Target (within-dataset
// mode) or SecondDatasetID (two-sample mode) must be set, not both.
type AuditRequest struct {
	DatasetID       string               `json:"dataset_id"`
	SecondDatasetID string               `json:"second_dataset_id,omitempty"`
	Target          string               `json:"target,omitempty"`
	Protected       []string             `json:"protected"`
	Continuous      []string             `json:"continuous,omitempty"`
	Cuts            map[string][]float64 `json:"cuts,omitempty"`
	SampleSize      int                  `json:"sample_size,omitempty"`
	Seed            int64                `json:"seed,omitempty"`
	TimeBudgetMS    int64                `json:"time_budget_ms,omitempty"`
	BestEffort      bool                 `json:"best_effort,omitempty"`
	Method          string               `json:"method,omitempty"`
}

func toAuditModel(a *storage.Audit, rule msd.Rule) models.AuditReport {
	literals := make([]models.RuleLiteral, 0, len(rule))
	for _, lit := range rule {
		literals = append(literals, models.RuleLiteral{
			Attribute: lit.Name,
			Predicate: lit.Bin.String(),
		})
	}

	return models.AuditReport{
		ID:        a.ID.String(),
		ProjectID: a.ProjectID.String(),
		DatasetID: a.DatasetID.String(),
		Mode:      a.Mode,
		Target:    a.Target,
		MSDValue:  a.MSDValue,
		Rule:      literals,
		RuleText:  a.RuleText,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

// loadTable fetches a stored dataset of the project and parses its CSV.
func (s *Server) loadTable(w http.ResponseWriter, r *http.Request, projectID uuid.UUID, rawID string) (*storage.Dataset, *dataset.Dataset) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dataset id")
		return nil, nil
	}

	stored, err := s.datasetRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch dataset")
		return nil, nil
	}
	if stored == nil || stored.ProjectID != projectID {
		respondError(w, http.StatusNotFound, "dataset not found")
		return nil, nil
	}

	table, err := dataset.ParseCSVString(stored.Content)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "stored dataset is not valid CSV: "+err.Error())
		return nil, nil
	}

	return stored, table
}

// handleRunAudit runs MSD detection synchronously and stores the result.
func (s *Server) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DatasetID == "" {
		respondError(w, http.StatusBadRequest, "dataset_id is required")
		return
	}
	if (req.Target == "") == (req.SecondDatasetID == "") {
		respondError(w, http.StatusBadRequest, "exactly one of target and second_dataset_id is required")
		return
	}

	stored, table := s.loadTable(w, r, project.ID, req.DatasetID)
	if table == nil {
		return
	}

	opts := detect.Options{
		Protected:  req.Protected,
		Continuous: req.Continuous,
		Cuts:       req.Cuts,
		SampleSize: req.SampleSize,
		Seed:       req.Seed,
		TimeBudget: time.Duration(req.TimeBudgetMS) * time.Millisecond,
		BestEffort: req.BestEffort,
		Method:     req.Method,
	}

	audit := &storage.Audit{
		ProjectID: project.ID,
		DatasetID: stored.ID,
		Target:    req.Target,
	}

	var report *detect.Report
	var err error
	if req.SecondDatasetID != "" {
		secondStored, second := s.loadTable(w, r, project.ID, req.SecondDatasetID)
		if second == nil {
			return
		}
		audit.Mode = "two-sample"
		audit.SecondDatasetID = &secondStored.ID
		report, err = s.detectService.DetectBiasTwoSamples(r.Context(), table, second, opts)
	} else {
		audit.Mode = "within"
		report, err = s.detectService.DetectBias(r.Context(), table, req.Target, opts)
	}

	if err != nil {
		switch {
		case detect.IsConfigError(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case detect.IsDataError(err):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case detect.IsSolverError(err):
			respondError(w, http.StatusGatewayTimeout, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "detection failed")
		}
		return
	}

	audit.MSDValue = report.Value
	audit.RuleText = report.Rule.String()
	audit.Status = report.Status.String()
	audit.Profile = pgvector.NewVector(report.Profile)

	if err := s.auditRepo.Create(r.Context(), audit); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save audit")
		return
	}

	respondJSON(w, http.StatusCreated, toAuditModel(audit, report.Rule))
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	audits, err := s.auditRepo.GetByProjectID(r.Context(), project.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch audits")
		return
	}

	response := make([]models.AuditReport, 0, len(audits))
	for _, a := range audits {
		response = append(response, toAuditModel(a, nil))
	}

	respondJSON(w, http.StatusOK, response)
}

// requireAudit loads an audit and checks it belongs to the project.
func (s *Server) requireAudit(w http.ResponseWriter, r *http.Request, projectID uuid.UUID) *storage.Audit {
	id, err := uuid.Parse(chi.URLParam(r, "auditID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid audit id")
		return nil
	}

	audit, err := s.auditRepo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch audit")
		return nil
	}
	if audit == nil || audit.ProjectID != projectID {
		respondError(w, http.StatusNotFound, "audit not found")
		return nil
	}

	return audit
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	audit := s.requireAudit(w, r, project.ID)
	if audit == nil {
		return
	}

	respondJSON(w, http.StatusOK, toAuditModel(audit, nil))
}

// handleSimilarAudits returns the project's audits with the closest bias
// profiles to the given audit.
func (s *Server) handleSimilarAudits(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	audit := s.requireAudit(w, r, project.ID)
	if audit == nil {
		return
	}

	similar, err := s.auditRepo.FindSimilar(r.Context(), project.ID, audit.Profile, 10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to search similar audits")
		return
	}

	response := make([]models.SimilarAudit, 0, len(similar))
	for _, match := range similar {
		if match.ID == audit.ID {
			continue
		}
		response = append(response, models.SimilarAudit{
			Audit:      toAuditModel(match, nil),
			Similarity: profile.CosineSimilarity(audit.Profile.Slice(), match.Profile.Slice()),
		})
	}

	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleDeleteAudit(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	audit := s.requireAudit(w, r, project.ID)
	if audit == nil {
		return
	}

	if err := s.auditRepo.Delete(r.Context(), audit.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete audit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleProfileMap lays the project's audits out on a 2-D PCA map of their
// bias profiles. Only audits encoded over the same bin space as the newest
// audit are comparable and included.
func (s *Server) handleProfileMap(w http.ResponseWriter, r *http.Request) {
	project := s.requireProject(w, r)
	if project == nil {
		return
	}

	audits, err := s.auditRepo.GetByProjectID(r.Context(), project.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch audits")
		return
	}
	if len(audits) == 0 {
		respondJSON(w, http.StatusOK, []models.MapPoint{})
		return
	}

	dims := len(audits[0].Profile.Slice())
	var comparable []*storage.Audit
	profiles := make([][]float32, 0, len(audits))
	for _, a := range audits {
		p := a.Profile.Slice()
		if len(p) == dims {
			comparable = append(comparable, a)
			profiles = append(profiles, p)
		}
	}

	coords, err := profile.Reduce(profiles, 2)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to project profiles")
		return
	}

	response := make([]models.MapPoint, 0, len(comparable))
	for i, a := range comparable {
		point := models.MapPoint{
			AuditID:  a.ID.String(),
			MSDValue: a.MSDValue,
			RuleText: a.RuleText,
			X:        coords[i][0],
		}
		if len(coords[i]) > 1 {
			point.Y = coords[i][1]
		}
		response = append(response, point)
	}

	respondJSON(w, http.StatusOK, response)
}
