package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
)

const uniqueViolation = "23505"

const projectColumns = `id, title, student_id, supervisor_id, status, final_version_id, created_at, updated_at`

// ProjectRepository persists thesis projects and their reviewers.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project in DRAFT.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.Status = models.StatusDraft
	project.CreatedAt = now
	project.UpdatedAt = now

	const query = `INSERT INTO projects (id, title, student_id, supervisor_id, status, created_at, updated_at)
VALUES (:id, :title, :student_id, :supervisor_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "student already has a project")
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// FindByID returns the project or sql.ErrNoRows.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &project, nil
}

// FindByStudent returns the student's project or sql.ErrNoRows.
func (r *ProjectRepository) FindByStudent(ctx context.Context, studentID string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE student_id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project by student: %w", err)
	}
	return &project, nil
}

// GetForUpdate loads and row-locks the project inside tx.
func (r *ProjectRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 FOR UPDATE`
	var project models.Project
	if err := tx.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock project: %w", err)
	}
	return &project, nil
}

// UpdateStatus moves the project from one status to another. It reports false
// when the stored status no longer matches from.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, from, to models.ProjectStatus) (bool, error) {
	const query = `UPDATE projects SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := tx.ExecContext(ctx, query, id, int(from), int(to), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update project status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update project status rows: %w", err)
	}
	return affected == 1, nil
}

// SetFinalVersion links the document selected for formal review.
func (r *ProjectRepository) SetFinalVersion(ctx context.Context, tx *sqlx.Tx, id, documentID string) error {
	const query = `UPDATE projects SET final_version_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, documentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set final version: %w", err)
	}
	return nil
}

const reviewerQuery = `
SELECT pr.project_id, pr.user_id, u.full_name, pr.assigned_at
FROM project_reviewers pr
JOIN users u ON u.id = pr.user_id
WHERE pr.project_id = $1
ORDER BY pr.assigned_at ASC, pr.user_id ASC`

// ListReviewers returns assigned reviewers in assignment order.
func (r *ProjectRepository) ListReviewers(ctx context.Context, projectID string) ([]models.ProjectReviewer, error) {
	return listReviewers(ctx, r.db, projectID)
}

// ListReviewersTx is ListReviewers within a locked transaction.
func (r *ProjectRepository) ListReviewersTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.ProjectReviewer, error) {
	return listReviewers(ctx, tx, projectID)
}

func listReviewers(ctx context.Context, q sqlx.QueryerContext, projectID string) ([]models.ProjectReviewer, error) {
	reviewers := make([]models.ProjectReviewer, 0)
	if err := sqlx.SelectContext(ctx, q, &reviewers, reviewerQuery, projectID); err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	return reviewers, nil
}

// AddReviewer assigns a reviewer. Assigning an existing reviewer is a no-op.
func (r *ProjectRepository) AddReviewer(ctx context.Context, tx *sqlx.Tx, projectID, userID string) error {
	const query = `INSERT INTO project_reviewers (project_id, user_id, assigned_at) VALUES ($1, $2, $3)
ON CONFLICT (project_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, projectID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add reviewer: %w", err)
	}
	return nil
}

const summaryQuery = `
SELECT
	p.id,
	p.title,
	p.status,
	p.student_id,
	s.full_name AS student_name,
	p.supervisor_id,
	sv.full_name AS supervisor_name,
	(SELECT MAX(d.latest_update) FROM documents d WHERE d.project_id = p.id) AS latest_update,
	p.updated_at
FROM projects p
JOIN users s ON s.id = p.student_id
JOIN users sv ON sv.id = p.supervisor_id
`

// ListSupervised returns projects supervised by the teacher that are still in progress.
func (r *ProjectRepository) ListSupervised(ctx context.Context, teacherID string) ([]models.ProjectSummary, error) {
	where := `WHERE p.supervisor_id = $1 AND p.status < $2`
	return r.listSummaries(ctx, where, teacherID, int(models.StatusApproved))
}

// ListByStatus returns every project currently in status.
func (r *ProjectRepository) ListByStatus(ctx context.Context, status models.ProjectStatus) ([]models.ProjectSummary, error) {
	return r.listSummaries(ctx, `WHERE p.status = $1`, int(status))
}

// ListAwaitingReview returns projects in evaluation where the teacher is a reviewer without an evaluation.
func (r *ProjectRepository) ListAwaitingReview(ctx context.Context, teacherID string) ([]models.ProjectSummary, error) {
	where := `WHERE p.status = $2
	AND EXISTS (SELECT 1 FROM project_reviewers pr WHERE pr.project_id = p.id AND pr.user_id = $1)
	AND NOT EXISTS (SELECT 1 FROM evaluations e WHERE e.project_id = p.id AND e.user_id = $1)`
	return r.listSummaries(ctx, where, teacherID, int(models.StatusEvaluation))
}

func (r *ProjectRepository) listSummaries(ctx context.Context, where string, args ...interface{}) ([]models.ProjectSummary, error) {
	query := summaryQuery + where + "\nORDER BY p.updated_at DESC"
	items := make([]models.ProjectSummary, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list project summaries: %w", err)
	}
	return items, nil
}
