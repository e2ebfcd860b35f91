package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/egradu-api/internal/models"
)

// VisitRepository appends document view events.
type VisitRepository struct {
	db *sqlx.DB
}

// NewVisitRepository constructs the repository.
func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Create appends a visit row. Rows are never updated.
func (r *VisitRepository) Create(ctx context.Context, visit *models.DocumentVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_visits (id, document_id, user_id, visited_at) VALUES (:id, :document_id, :user_id, :visited_at)`
	if _, err := r.db.NamedExecContext(ctx, query, visit); err != nil {
		return fmt.Errorf("create document visit: %w", err)
	}
	return nil
}
