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

const documentColumns = `d.id, d.project_id, d.uploader_id, d.file_name, d.file_path, d.mime_type, d.size_bytes,
	d.abstract_name, d.abstract_path, d.uploaded_at, d.latest_update, d.draft`

// DocumentRepository persists uploaded revisions and their comments.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a new draft revision. uploaded_at and latest_update are both set to now.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.Uploaded = now
	doc.LatestUpdate = now
	doc.Draft = true

	const query = `INSERT INTO documents (id, project_id, uploader_id, file_name, file_path, mime_type, size_bytes, abstract_name, abstract_path, uploaded_at, latest_update, draft)
VALUES (:id, :project_id, :uploader_id, :file_name, :file_path, :mime_type, :size_bytes, :abstract_name, :abstract_path, :uploaded_at, :latest_update, :draft)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns the document or sql.ErrNoRows.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

var revisionQuery = `
SELECT ` + documentColumns + `,
	(SELECT MAX(v.visited_at) FROM document_visits v WHERE v.document_id = d.id AND v.user_id = $2::uuid) AS last_visit
FROM documents d
WHERE d.project_id = $1
ORDER BY d.uploaded_at DESC, d.id DESC`

// ListRevisions returns the project's documents newest first, each joined with
// the viewer's most recent visit. An empty viewerID yields no visits.
func (r *DocumentRepository) ListRevisions(ctx context.Context, projectID, viewerID string) ([]models.DocumentRevision, error) {
	var viewer *string
	if viewerID != "" {
		viewer = &viewerID
	}
	revisions := make([]models.DocumentRevision, 0)
	if err := r.db.SelectContext(ctx, &revisions, revisionQuery, projectID, viewer); err != nil {
		return nil, fmt.Errorf("list document revisions: %w", err)
	}
	return revisions, nil
}

// ListDocumentsTx returns the project's documents newest first inside tx.
func (r *DocumentRepository) ListDocumentsTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.project_id = $1 ORDER BY d.uploaded_at DESC, d.id DESC`
	docs := make([]models.Document, 0)
	if err := tx.SelectContext(ctx, &docs, query, projectID); err != nil {
		return nil, fmt.Errorf("list project documents: %w", err)
	}
	return docs, nil
}

// MarkSubmitted clears the draft flag once. It reports false when the document was already submitted.
func (r *DocumentRepository) MarkSubmitted(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) (bool, error) {
	const query = `UPDATE documents SET draft = FALSE, latest_update = $2 WHERE id = $1 AND draft = TRUE`
	res, err := tx.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("mark document submitted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark document submitted rows: %w", err)
	}
	return affected == 1, nil
}

// CreateComment stores the comment and bumps the document's latest_update atomically.
func (r *DocumentRepository) CreateComment(ctx context.Context, comment *models.DocumentComment) (err error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertQuery = `INSERT INTO document_comments (id, document_id, user_id, comment, file_name, file_path, created_at)
VALUES (:id, :document_id, :user_id, :comment, :file_name, :file_path, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	const bumpQuery = `UPDATE documents SET latest_update = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, bumpQuery, comment.DocumentID, comment.CreatedAt); err != nil {
		return fmt.Errorf("bump document latest update: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit comment: %w", err)
	}
	return nil
}

// ListComments returns the document's comments oldest first.
func (r *DocumentRepository) ListComments(ctx context.Context, documentID string) ([]models.DocumentComment, error) {
	const query = `
SELECT c.id, c.document_id, c.user_id, u.full_name AS author_name, c.comment, c.file_name, c.file_path, c.created_at
FROM document_comments c
JOIN users u ON u.id = c.user_id
WHERE c.document_id = $1
ORDER BY c.created_at ASC`
	comments := make([]models.DocumentComment, 0)
	if err := r.db.SelectContext(ctx, &comments, query, documentID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
