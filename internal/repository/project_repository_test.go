package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
)

var projectRowColumns = []string{"id", "title", "student_id", "supervisor_id", "status", "final_version_id", "created_at", "updated_at"}

func TestProjectRepositoryCreateStartsInDraft(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("INSERT INTO projects").WillReturnResult(sqlmock.NewResult(1, 1))

	project := &models.Project{Title: "Thesis", StudentID: "s1", SupervisorID: "t1", Status: models.StatusEvaluation}
	require.NoError(t, repo.Create(context.Background(), project))
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, models.StatusDraft, project.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryCreateDuplicateStudentIsConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec("INSERT INTO projects").WillReturnError(&pq.Error{Code: "23505", Constraint: "projects_student_id_key"})

	err := repo.Create(context.Background(), &models.Project{Title: "Thesis", StudentID: "s1", SupervisorID: "t1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryGetForUpdateLocksRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(projectRowColumns).AddRow("p1", "Thesis", "s1", "t1", 30, nil, now, now))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	project, err := repo.GetForUpdate(context.Background(), tx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEvaluation, project.Status)
	assert.Nil(t, project.FinalVersionID)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryGetForUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	_, err = repo.GetForUpdate(context.Background(), tx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateStatusIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("p1", 30, 40, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status = $3")).
		WithArgs("p1", 30, 40, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	ok, err := repo.UpdateStatus(context.Background(), tx, "p1", models.StatusEvaluation, models.StatusPendingApproval)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.UpdateStatus(context.Background(), tx, "p1", models.StatusEvaluation, models.StatusPendingApproval)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryReviewers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM project_reviewers pr").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "user_id", "full_name", "assigned_at"}).
			AddRow("p1", "r1", "Reviewer One", now).
			AddRow("p1", "r2", "Reviewer Two", now))

	reviewers, err := repo.ListReviewers(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, reviewers, 2)
	assert.Equal(t, "r2", reviewers[1].UserID)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO project_reviewers .* ON CONFLICT \\(project_id, user_id\\) DO NOTHING").
		WithArgs("p1", "r3", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.AddReviewer(context.Background(), tx, "p1", "r3"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryListAwaitingReview(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	mock.ExpectQuery("NOT EXISTS \\(SELECT 1 FROM evaluations e").
		WithArgs("t1", 30).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "student_id", "student_name", "supervisor_id", "supervisor_name", "latest_update", "updated_at"}).
			AddRow("p1", "Thesis", 30, "s1", "Student", "t2", "Supervisor", now, now))

	items, err := repo.ListAwaitingReview(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusEvaluation, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
