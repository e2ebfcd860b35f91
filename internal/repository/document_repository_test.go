package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/models"
)

var revisionRowColumns = []string{"id", "project_id", "uploader_id", "file_name", "file_path", "mime_type", "size_bytes",
	"abstract_name", "abstract_path", "uploaded_at", "latest_update", "draft", "last_visit"}

func TestDocumentRepositoryCreateSetsTimestamps(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	doc := &models.Document{ProjectID: "p1", UploaderID: "s1", FileName: "thesis.pdf", FilePath: "p1/x.pdf"}
	require.NoError(t, repo.Create(context.Background(), doc))
	assert.True(t, doc.Draft)
	assert.Equal(t, doc.Uploaded, doc.LatestUpdate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListRevisions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY d.uploaded_at DESC, d.id DESC")).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows(revisionRowColumns).
			AddRow("d2", "p1", "s1", "v2.pdf", "p1/v2.pdf", "application/pdf", 10, nil, nil, t1, t1, true, nil).
			AddRow("d1", "p1", "s1", "v1.pdf", "p1/v1.pdf", "application/pdf", 10, "abs.pdf", "p1/abs.pdf", t0, t0, false, t1))

	revisions, err := repo.ListRevisions(context.Background(), "p1", "u1")
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, "d2", revisions[0].ID)
	assert.Nil(t, revisions[0].LastVisit)
	require.NotNil(t, revisions[1].LastVisit)
	assert.True(t, revisions[1].LastVisit.Equal(t1))
	require.NotNil(t, revisions[1].AbstractName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListRevisionsWithoutViewerSendsNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("v.user_id = $2::uuid")).
		WithArgs("p1", nil).
		WillReturnRows(sqlmock.NewRows(revisionRowColumns))

	revisions, err := repo.ListRevisions(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Empty(t, revisions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListDocumentsTxTakesOnlyProject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM documents d WHERE d.project_id = \$1 ORDER BY d.uploaded_at DESC, d.id DESC$`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(revisionRowColumns[:len(revisionRowColumns)-1]).
			AddRow("d2", "p1", "s1", "v2.pdf", "p1/v2.pdf", "application/pdf", 10, nil, nil, t0.Add(time.Hour), t0.Add(time.Hour), true).
			AddRow("d1", "p1", "s1", "v1.pdf", "p1/v1.pdf", "application/pdf", 10, nil, nil, t0, t0, false))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	docs, err := repo.ListDocumentsTx(context.Background(), tx, "p1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryMarkSubmittedOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET draft = FALSE, latest_update = $2 WHERE id = $1 AND draft = TRUE")).
		WithArgs("d1", at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	ok, err := repo.MarkSubmitted(context.Background(), tx, "d1", at)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateCommentBumpsLatestUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO document_comments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET latest_update = $2 WHERE id = $1")).
		WithArgs("d1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comment := &models.DocumentComment{DocumentID: "d1", UserID: "t1", Comment: "fix chapter 2"}
	require.NoError(t, repo.CreateComment(context.Background(), comment))
	assert.NotEmpty(t, comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCreateCommentRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO document_comments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE documents SET latest_update").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateComment(context.Background(), &models.DocumentComment{DocumentID: "d1", UserID: "t1", Comment: "x"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
