package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

func TestPostgresAuditRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	audit := &Audit{
		ProjectID: uuid.New(),
		DatasetID: uuid.New(),
		Mode:      "within",
		Target:    "approved",
		MSDValue:  0.1111,
		RuleText:  "race = Blue AND age <= 18",
		Status:    "optimal",
		Profile:   pgvector.NewVector([]float32{0.1, -0.1, 0.05}),
	}

	mock.ExpectExec("INSERT INTO audits").
		WithArgs(
			sqlmock.AnyArg(),
			audit.ProjectID,
			audit.DatasetID,
			nil,
			audit.Mode,
			audit.Target,
			audit.MSDValue,
			audit.RuleText,
			audit.Status,
			audit.Profile,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), audit)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if audit.ID == uuid.Nil {
		t.Error("expected audit ID to be generated")
	}
	if audit.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	auditID := uuid.New()
	projectID := uuid.New()
	datasetID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "dataset_id", "second_dataset_id", "mode", "target",
		"msd_value", "rule_text", "status", "profile", "created_at",
	}).AddRow(
		auditID, projectID, datasetID, nil, "within", "approved",
		0.1111, "race = Blue AND age <= 18", "optimal", "[0.1,-0.1,0.05]", time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs(auditID).
		WillReturnRows(rows)

	audit, err := repo.GetByID(context.Background(), auditID)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if audit == nil {
		t.Fatal("expected audit to be returned")
	}
	if audit.ID != auditID {
		t.Errorf("expected ID %s, got %s", auditID, audit.ID)
	}
	if audit.MSDValue != 0.1111 {
		t.Errorf("expected msd value 0.1111, got %v", audit.MSDValue)
	}
	if audit.SecondDatasetID != nil {
		t.Errorf("expected no second dataset, got %v", audit.SecondDatasetID)
	}
	if got := audit.Profile.Slice(); len(got) != 3 {
		t.Errorf("expected a 3-dim profile, got %v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	auditID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE id").
		WithArgs(auditID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "dataset_id", "second_dataset_id", "mode", "target",
			"msd_value", "rule_text", "status", "profile", "created_at",
		}))

	audit, err := repo.GetByID(context.Background(), auditID)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if audit != nil {
		t.Error("expected nil audit")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepository_GetByProjectID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	projectID := uuid.New()
	secondID := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "dataset_id", "second_dataset_id", "mode", "target",
		"msd_value", "rule_text", "status", "profile", "created_at",
	}).AddRow(
		uuid.New(), projectID, uuid.New(), secondID, "two-sample", "",
		0.0, "(all rows)", "optimal", "[0,0]", time.Now(),
	).AddRow(
		uuid.New(), projectID, uuid.New(), nil, "within", "approved",
		0.25, "race = Blue", "feasible", "[0.25,-0.25]", time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE project_id").
		WithArgs(projectID).
		WillReturnRows(rows)

	audits, err := repo.GetByProjectID(context.Background(), projectID)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if len(audits) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(audits))
	}
	if audits[0].SecondDatasetID == nil || *audits[0].SecondDatasetID != secondID {
		t.Errorf("expected second dataset %s, got %v", secondID, audits[0].SecondDatasetID)
	}
	if audits[1].Status != "feasible" {
		t.Errorf("expected feasible status, got %s", audits[1].Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepository_FindSimilar(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	projectID := uuid.New()
	query := pgvector.NewVector([]float32{0.1, -0.1})

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "dataset_id", "second_dataset_id", "mode", "target",
		"msd_value", "rule_text", "status", "profile", "created_at",
	}).AddRow(
		uuid.New(), projectID, uuid.New(), nil, "within", "approved",
		0.11, "race = Blue", "optimal", "[0.1,-0.1]", time.Now(),
	).AddRow(
		uuid.New(), projectID, uuid.New(), nil, "within", "hired",
		0.32, "age > 60", "optimal", "[0.0,0.3]", time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM audits WHERE project_id (.+) ORDER BY profile").
		WithArgs(projectID, query, 5).
		WillReturnRows(rows)

	results, err := repo.FindSimilar(context.Background(), projectID, query, 5)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].RuleText != "race = Blue" {
		t.Errorf("expected rule %q, got %q", "race = Blue", results[0].RuleText)
	}
	if results[1].RuleText != "age > 60" {
		t.Errorf("expected rule %q, got %q", "age > 60", results[1].RuleText)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresAuditRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	defer db.Close()

	repo := NewPostgresAuditRepository(db)

	auditID := uuid.New()

	mock.ExpectExec("DELETE FROM audits").
		WithArgs(auditID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), auditID); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
