package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Audit is one completed MSD detection run. Profile holds the per-bin bias
// signature of the instance so past audits with similar bias structure can
// be retrieved by vector distance.
type Audit struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	DatasetID       uuid.UUID
	SecondDatasetID *uuid.UUID // two-sample mode only
	Mode            string
	Target          string
	MSDValue        float64
	RuleText        string
	Status          string
	Profile         pgvector.Vector
	CreatedAt       time.Time
}

// AuditRepository defines the interface for audit storage operations.
type AuditRepository interface {
	Create(ctx context.Context, audit *Audit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Audit, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]*Audit, error)
	FindSimilar(ctx context.Context, projectID uuid.UUID, profile pgvector.Vector, limit int) ([]*Audit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresAuditRepository implements AuditRepository using PostgreSQL with
// pgvector.
type PostgresAuditRepository struct {
	db *sql.DB
}

// NewPostgresAuditRepository creates a new PostgresAuditRepository.
func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Create inserts a new audit into the database.
func (r *PostgresAuditRepository) Create(ctx context.Context, audit *Audit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO audits (id, project_id, dataset_id, second_dataset_id, mode, target, msd_value, rule_text, status, profile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		audit.ID,
		audit.ProjectID,
		audit.DatasetID,
		audit.SecondDatasetID,
		audit.Mode,
		audit.Target,
		audit.MSDValue,
		audit.RuleText,
		audit.Status,
		audit.Profile,
		audit.CreatedAt,
	)

	return err
}

// GetByID retrieves an audit by its ID.
func (r *PostgresAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*Audit, error) {
	query := `
		SELECT id, project_id, dataset_id, second_dataset_id, mode, target, msd_value, rule_text, status, profile, created_at
		FROM audits
		WHERE id = $1
	`

	audit := &Audit{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&audit.ID,
		&audit.ProjectID,
		&audit.DatasetID,
		&audit.SecondDatasetID,
		&audit.Mode,
		&audit.Target,
		&audit.MSDValue,
		&audit.RuleText,
		&audit.Status,
		&audit.Profile,
		&audit.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return audit, nil
}

// GetByProjectID retrieves all audits of a project, newest first.
func (r *PostgresAuditRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]*Audit, error) {
	query := `
		SELECT id, project_id, dataset_id, second_dataset_id, mode, target, msd_value, rule_text, status, profile, created_at
		FROM audits
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*Audit
	for rows.Next() {
		audit := &Audit{}
		err := rows.Scan(
			&audit.ID,
			&audit.ProjectID,
			&audit.DatasetID,
			&audit.SecondDatasetID,
			&audit.Mode,
			&audit.Target,
			&audit.MSDValue,
			&audit.RuleText,
			&audit.Status,
			&audit.Profile,
			&audit.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return audits, nil
}

// FindSimilar retrieves the audits in a project whose bias profiles are
// closest to the given profile by cosine distance, closest first.
func (r *PostgresAuditRepository) FindSimilar(ctx context.Context, projectID uuid.UUID, profile pgvector.Vector, limit int) ([]*Audit, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, project_id, dataset_id, second_dataset_id, mode, target, msd_value, rule_text, status, profile, created_at
		FROM audits
		WHERE project_id = $1
		ORDER BY profile <=> $2
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, projectID, profile, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Audit
	for rows.Next() {
		audit := &Audit{}
		err := rows.Scan(
			&audit.ID,
			&audit.ProjectID,
			&audit.DatasetID,
			&audit.SecondDatasetID,
			&audit.Mode,
			&audit.Target,
			&audit.MSDValue,
			&audit.RuleText,
			&audit.Status,
			&audit.Profile,
			&audit.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, audit)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Delete removes an audit from the database.
func (r *PostgresAuditRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM audits WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
