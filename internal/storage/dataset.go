package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Dataset is an uploaded CSV table kept verbatim so audits are reproducible
// against the exact bytes that were analyzed.
type Dataset struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Name        string
	Content     string
	ContentHash string
	RowCount    int
	CreatedAt   time.Time
}

// DatasetRepository defines the interface for dataset storage operations.
type DatasetRepository interface {
	Create(ctx context.Context, ds *Dataset) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dataset, error)
	GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]*Dataset, error)
	GetByHash(ctx context.Context, projectID uuid.UUID, hash string) (*Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresDatasetRepository implements DatasetRepository using PostgreSQL.
type PostgresDatasetRepository struct {
	db *sql.DB
}

// NewPostgresDatasetRepository creates a new PostgresDatasetRepository.
func NewPostgresDatasetRepository(db *sql.DB) *PostgresDatasetRepository {
	return &PostgresDatasetRepository{db: db}
}

// Create inserts a new dataset into the database.
func (r *PostgresDatasetRepository) Create(ctx context.Context, ds *Dataset) error {
	if ds.ID == uuid.Nil {
		ds.ID = uuid.New()
	}
	if ds.CreatedAt.IsZero() {
		ds.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO datasets (id, project_id, name, content, content_hash, row_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		ds.ID,
		ds.ProjectID,
		ds.Name,
		ds.Content,
		ds.ContentHash,
		ds.RowCount,
		ds.CreatedAt,
	)

	return err
}

// GetByID retrieves a dataset by its ID.
func (r *PostgresDatasetRepository) GetByID(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	query := `
		SELECT id, project_id, name, content, content_hash, row_count, created_at
		FROM datasets
		WHERE id = $1
	`

	ds := &Dataset{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ds.ID,
		&ds.ProjectID,
		&ds.Name,
		&ds.Content,
		&ds.ContentHash,
		&ds.RowCount,
		&ds.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// GetByProjectID retrieves all datasets of a project, newest first.
func (r *PostgresDatasetRepository) GetByProjectID(ctx context.Context, projectID uuid.UUID) ([]*Dataset, error) {
	query := `
		SELECT id, project_id, name, content, content_hash, row_count, created_at
		FROM datasets
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []*Dataset
	for rows.Next() {
		ds := &Dataset{}
		err := rows.Scan(
			&ds.ID,
			&ds.ProjectID,
			&ds.Name,
			&ds.Content,
			&ds.ContentHash,
			&ds.RowCount,
			&ds.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return datasets, nil
}

// GetByHash finds a dataset in a project by content hash, for upload dedup.
func (r *PostgresDatasetRepository) GetByHash(ctx context.Context, projectID uuid.UUID, hash string) (*Dataset, error) {
	query := `
		SELECT id, project_id, name, content, content_hash, row_count, created_at
		FROM datasets
		WHERE project_id = $1 AND content_hash = $2
	`

	ds := &Dataset{}
	err := r.db.QueryRowContext(ctx, query, projectID, hash).Scan(
		&ds.ID,
		&ds.ProjectID,
		&ds.Name,
		&ds.Content,
		&ds.ContentHash,
		&ds.RowCount,
		&ds.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// Delete removes a dataset from the database.
func (r *PostgresDatasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM datasets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
