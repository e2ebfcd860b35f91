package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/egradu-api/internal/models"
)

// CheckRepository persists language checks, plagiarism checks, evaluations and dean decisions.
type CheckRepository struct {
	db *sqlx.DB
}

// NewCheckRepository constructs the repository.
func NewCheckRepository(db *sqlx.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

func stampCheck(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	*createdAt = time.Now().UTC()
}

// CreateLanguageCheck inserts a language check inside tx.
func (r *CheckRepository) CreateLanguageCheck(ctx context.Context, tx *sqlx.Tx, check *models.LanguageCheck) error {
	stampCheck(&check.ID, &check.CreatedAt)
	const query = `INSERT INTO language_checks (id, project_id, user_id, comment, grade, created_at)
VALUES (:id, :project_id, :user_id, :comment, :grade, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, check); err != nil {
		return fmt.Errorf("create language check: %w", err)
	}
	return nil
}

// CreatePlagiarismCheck inserts a plagiarism result inside tx.
func (r *CheckRepository) CreatePlagiarismCheck(ctx context.Context, tx *sqlx.Tx, check *models.PlagiarismCheck) error {
	stampCheck(&check.ID, &check.CreatedAt)
	const query = `INSERT INTO plagiarism_checks (id, project_id, user_id, comment, approved, created_at)
VALUES (:id, :project_id, :user_id, :comment, :approved, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, check); err != nil {
		return fmt.Errorf("create plagiarism check: %w", err)
	}
	return nil
}

// CreateEvaluation inserts an evaluation inside tx.
func (r *CheckRepository) CreateEvaluation(ctx context.Context, tx *sqlx.Tx, evaluation *models.Evaluation) error {
	stampCheck(&evaluation.ID, &evaluation.CreatedAt)
	const query = `INSERT INTO evaluations (id, project_id, user_id, comment, grade, other_reviewer_id, created_at)
VALUES (:id, :project_id, :user_id, :comment, :grade, :other_reviewer_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, evaluation); err != nil {
		return fmt.Errorf("create evaluation: %w", err)
	}
	return nil
}

// CreateDecision inserts the dean decision inside tx.
func (r *CheckRepository) CreateDecision(ctx context.Context, tx *sqlx.Tx, decision *models.DeanDecision) error {
	stampCheck(&decision.ID, &decision.CreatedAt)
	const query = `INSERT INTO dean_decisions (id, project_id, user_id, status, comment, created_at)
VALUES (:id, :project_id, :user_id, :status, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, decision); err != nil {
		return fmt.Errorf("create dean decision: %w", err)
	}
	return nil
}

// ListLanguageChecks returns language checks oldest first.
func (r *CheckRepository) ListLanguageChecks(ctx context.Context, projectID string) ([]models.LanguageCheck, error) {
	const query = `
SELECT c.id, c.project_id, c.user_id, u.full_name AS user_name, c.comment, c.grade, c.created_at
FROM language_checks c
JOIN users u ON u.id = c.user_id
WHERE c.project_id = $1
ORDER BY c.created_at ASC`
	checks := make([]models.LanguageCheck, 0)
	if err := r.db.SelectContext(ctx, &checks, query, projectID); err != nil {
		return nil, fmt.Errorf("list language checks: %w", err)
	}
	return checks, nil
}

// ListPlagiarismChecks returns plagiarism results oldest first.
func (r *CheckRepository) ListPlagiarismChecks(ctx context.Context, projectID string) ([]models.PlagiarismCheck, error) {
	const query = `
SELECT c.id, c.project_id, c.user_id, u.full_name AS user_name, c.comment, c.approved, c.created_at
FROM plagiarism_checks c
JOIN users u ON u.id = c.user_id
WHERE c.project_id = $1
ORDER BY c.created_at ASC`
	checks := make([]models.PlagiarismCheck, 0)
	if err := r.db.SelectContext(ctx, &checks, query, projectID); err != nil {
		return nil, fmt.Errorf("list plagiarism checks: %w", err)
	}
	return checks, nil
}

const evaluationQuery = `
SELECT e.id, e.project_id, e.user_id, u.full_name AS user_name, e.comment, e.grade, e.other_reviewer_id, e.created_at
FROM evaluations e
JOIN users u ON u.id = e.user_id
WHERE e.project_id = $1
ORDER BY e.created_at ASC`

// ListEvaluations returns submitted evaluations oldest first.
func (r *CheckRepository) ListEvaluations(ctx context.Context, projectID string) ([]models.Evaluation, error) {
	return listEvaluations(ctx, r.db, projectID)
}

// ListEvaluationsTx is ListEvaluations within a locked transaction.
func (r *CheckRepository) ListEvaluationsTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.Evaluation, error) {
	return listEvaluations(ctx, tx, projectID)
}

func listEvaluations(ctx context.Context, q sqlx.QueryerContext, projectID string) ([]models.Evaluation, error) {
	evaluations := make([]models.Evaluation, 0)
	if err := sqlx.SelectContext(ctx, q, &evaluations, evaluationQuery, projectID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}

// FindDecision returns the dean decision or sql.ErrNoRows.
func (r *CheckRepository) FindDecision(ctx context.Context, projectID string) (*models.DeanDecision, error) {
	const query = `SELECT id, project_id, user_id, status, comment, created_at FROM dean_decisions WHERE project_id = $1`
	var decision models.DeanDecision
	if err := r.db.GetContext(ctx, &decision, query, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find dean decision: %w", err)
	}
	return &decision, nil
}
