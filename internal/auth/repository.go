package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresRepository implements AnalystRepository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new analyst into the database.
func (r *PostgresRepository) Create(ctx context.Context, analyst *Analyst) error {
	analyst.ID = uuid.New().String()

	query := `
		INSERT INTO analysts (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		analyst.ID,
		analyst.Email,
		analyst.PasswordHash,
		analyst.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analyst: %w", err)
	}

	return nil
}

// GetByID retrieves an analyst by ID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Analyst, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM analysts
		WHERE id = $1
	`

	analyst := &Analyst{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&analyst.ID,
		&analyst.Email,
		&analyst.PasswordHash,
		&analyst.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAnalystNotFound
		}
		return nil, fmt.Errorf("failed to get analyst by ID: %w", err)
	}

	return analyst, nil
}

// GetByEmail retrieves an analyst by email address.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Analyst, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM analysts
		WHERE email = $1
	`

	analyst := &Analyst{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&analyst.ID,
		&analyst.Email,
		&analyst.PasswordHash,
		&analyst.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAnalystNotFound
		}
		return nil, fmt.Errorf("failed to get analyst by email: %w", err)
	}

	return analyst, nil
}
