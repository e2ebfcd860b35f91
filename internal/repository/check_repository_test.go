package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/models"
)

func TestCheckRepositoryCreateEvaluationInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCheckRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	evaluation := &models.Evaluation{ProjectID: "p1", UserID: "r1", Grade: models.GradeGood}
	require.NoError(t, repo.CreateEvaluation(context.Background(), tx, evaluation))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, evaluation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRepositoryListEvaluations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCheckRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM evaluations e").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "user_id", "user_name", "comment", "grade", "other_reviewer_id", "created_at"}).
			AddRow("e1", "p1", "r1", "Reviewer", "ok", 3, nil, now))

	evaluations, err := repo.ListEvaluations(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, evaluations, 1)
	assert.Equal(t, models.GradeGood, evaluations[0].Grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRepositoryListPlagiarismChecksKeepsUndecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCheckRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM plagiarism_checks c").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "user_id", "user_name", "comment", "approved", "created_at"}).
			AddRow("c1", "p1", "t1", "Teacher", "", nil, now).
			AddRow("c2", "p1", "t1", "Teacher", "", true, now))

	checks, err := repo.ListPlagiarismChecks(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.Nil(t, checks[0].Approved)
	require.NotNil(t, checks[1].Approved)
	assert.True(t, *checks[1].Approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRepositoryFindDecisionNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCheckRepository(db)

	mock.ExpectQuery("FROM dean_decisions").WithArgs("p1").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDecision(context.Background(), "p1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
