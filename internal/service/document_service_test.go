package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/storage"
)

var pdfBody = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")

type documentStoreMemory struct {
	docs      map[string]*models.Document
	comments  []models.DocumentComment
	createErr error
}

func (s *documentStoreMemory) Create(ctx context.Context, doc *models.Document) error {
	if s.createErr != nil {
		return s.createErr
	}
	doc.ID = "d-new"
	now := time.Now().UTC()
	doc.Uploaded = now
	doc.LatestUpdate = now
	doc.Draft = true
	s.docs[doc.ID] = doc
	return nil
}

func (s *documentStoreMemory) FindByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return doc, nil
}

func (s *documentStoreMemory) CreateComment(ctx context.Context, comment *models.DocumentComment) error {
	comment.ID = "c-new"
	comment.CreatedAt = time.Now().UTC()
	s.comments = append(s.comments, *comment)
	return nil
}

func (s *documentStoreMemory) ListComments(ctx context.Context, documentID string) ([]models.DocumentComment, error) {
	return s.comments, nil
}

type recordedVisit struct {
	documentID string
	userID     string
	at         time.Time
}

type visitRecorderStub struct {
	visits []recordedVisit
}

func (v *visitRecorderStub) Record(ctx context.Context, documentID, userID string, at time.Time) {
	v.visits = append(v.visits, recordedVisit{documentID: documentID, userID: userID, at: at})
}

type fixedRevisionView struct {
	view models.RevisionView
}

func (f fixedRevisionView) CurrentView(ctx context.Context, projectID, viewerID string) (models.RevisionView, error) {
	return f.view, nil
}

type documentFixture struct {
	svc       *DocumentService
	documents *documentStoreMemory
	projects  *projectReadStub
	storage   *storage.LocalStorage
	dir       string
	visits    *visitRecorderStub
	audit     *auditLoggerStub
}

func newDocumentFixture(t *testing.T, view models.RevisionView) *documentFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	f := &documentFixture{
		documents: &documentStoreMemory{docs: map[string]*models.Document{}},
		projects: &projectReadStub{projects: map[string]*models.Project{
			"p1": {ID: "p1", StudentID: "student", SupervisorID: "supervisor", Status: models.StatusDraft},
		}},
		storage: store,
		dir:     dir,
		visits:  &visitRecorderStub{},
		audit:   &auditLoggerStub{},
	}
	f.svc = NewDocumentService(DocumentServiceParams{
		Documents: f.documents,
		Projects:  f.projects,
		Revisions: fixedRevisionView{view: view},
		Storage:   store,
		Signer:    storage.NewSignedURLSigner("secret", time.Minute),
		Visits:    f.visits,
		Metrics:   NewMetricsService(),
		Audit:     f.audit,
		Config:    DocumentConfig{MaxFileSize: 1024, AllowedMIMEs: []string{"application/pdf"}},
	})
	return f
}

func pdfUpload(name string) dto.FileUpload {
	return dto.FileUpload{Name: name, Size: int64(len(pdfBody)), Reader: bytes.NewReader(pdfBody)}
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	files := make([]string, 0)
	require.NoError(t, filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	}))
	return files
}

func TestUploadStoresDraftRevision(t *testing.T) {
	f := newDocumentFixture(t, models.RevisionView{})
	abstract := pdfUpload("abstract.pdf")

	doc, err := f.svc.Upload(context.Background(), dto.UploadDocumentInput{
		ProjectID: "p1",
		File:      pdfUpload(`C:\thesis\final.pdf`),
		Abstract:  &abstract,
	}, claims("student", models.RoleStudent))
	require.NoError(t, err)
	assert.True(t, doc.Draft)
	assert.Equal(t, "final.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.MimeType)
	assert.True(t, strings.HasPrefix(doc.FilePath, "projects/p1/"))
	require.NotNil(t, doc.AbstractName)
	assert.Equal(t, "abstract.pdf", *doc.AbstractName)

	file, err := f.storage.Open(doc.FilePath)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, pdfBody, content)

	require.Len(t, f.visits.visits, 1)
	assert.Equal(t, recordedVisit{documentID: "d-new", userID: "student", at: doc.LatestUpdate}, f.visits.visits[0])
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionDocumentUpload, f.audit.logs[0].Action)
}

func TestUploadValidation(t *testing.T) {
	f := newDocumentFixture(t, models.RevisionView{})
	student := claims("student", models.RoleStudent)
	ctx := context.Background()

	text := []byte("just some notes")
	_, err := f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: dto.FileUpload{Name: "notes.txt", Size: int64(len(text)), Reader: bytes.NewReader(text)}}, student)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: dto.FileUpload{Name: "big.pdf", Size: 4096, Reader: bytes.NewReader(pdfBody)}}, student)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: dto.FileUpload{Name: "empty.pdf"}}, student)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: pdfUpload("x.pdf")}, claims("other", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	_, err = f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: pdfUpload("x.pdf")}, claims("supervisor", models.RoleTeacher))
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))

	f.projects.projects["p1"].Status = models.StatusPendingPlagiarism
	_, err = f.svc.Upload(ctx, dto.UploadDocumentInput{ProjectID: "p1", File: pdfUpload("x.pdf")}, student)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	assert.Empty(t, storedFiles(t, f.dir))
	assert.Empty(t, f.visits.visits)
}

func TestUploadRemovesFilesWhenInsertFails(t *testing.T) {
	f := newDocumentFixture(t, models.RevisionView{})
	f.documents.createErr = errors.New("insert failed")

	_, err := f.svc.Upload(context.Background(), dto.UploadDocumentInput{ProjectID: "p1", File: pdfUpload("x.pdf")}, claims("student", models.RoleStudent))
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
	assert.Empty(t, storedFiles(t, f.dir))
}

func TestDetailReportsUnseenOlderRevisionAndRecordsVisit(t *testing.T) {
	t0 := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	seen := t0.Add(-time.Hour)
	older := models.Document{ID: "d1", ProjectID: "p1", FilePath: "projects/p1/d1.pdf", Uploaded: t0.Add(-24 * time.Hour), LatestUpdate: t0}
	current := models.Document{ID: "d2", ProjectID: "p1", FilePath: "projects/p1/d2.pdf", Uploaded: t0}
	view := models.RevisionView{
		Current: &models.RevisionEntry{Document: current, HasUnseenUpdate: true},
		Older:   []models.RevisionEntry{{Document: older, LastVisit: &seen, HasUnseenUpdate: true}},
	}
	f := newDocumentFixture(t, view)
	f.documents.docs["d1"] = &older
	attachment := "documents/d1/comments/c1.pdf"
	f.documents.comments = []models.DocumentComment{{ID: "c1", DocumentID: "d1", Comment: "see page 3", FilePath: &attachment}}

	detail, err := f.svc.Detail(context.Background(), "d1", claims("supervisor", models.RoleTeacher))
	require.NoError(t, err)
	assert.False(t, detail.IsCurrent)
	assert.True(t, detail.HasUnseenUpdate)
	assert.Equal(t, &seen, detail.LastVisit)
	assert.True(t, strings.HasPrefix(detail.DownloadURL, "/api/v1/files/"))
	require.Len(t, detail.Comments, 1)
	require.NotNil(t, detail.Comments[0].FileURL)
	require.Len(t, f.visits.visits, 1)
	assert.Equal(t, "supervisor", f.visits.visits[0].userID)

	_, err = f.svc.Detail(context.Background(), "d1", claims("other", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
	_, err = f.svc.Detail(context.Background(), "missing", claims("supervisor", models.RoleTeacher))
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
	assert.Len(t, f.visits.visits, 1)
}

func TestCommentWithAttachment(t *testing.T) {
	f := newDocumentFixture(t, models.RevisionView{})
	f.documents.docs["d1"] = &models.Document{ID: "d1", ProjectID: "p1"}
	body := []byte("margin notes")
	actor := claims("supervisor", models.RoleTeacher)
	actor.FullName = "Super Visor"

	view, err := f.svc.Comment(context.Background(), "d1", dto.CreateCommentRequest{
		Comment:    "  please fix chapter 2 ",
		Attachment: &dto.FileUpload{Name: "notes.txt", Size: int64(len(body)), Reader: bytes.NewReader(body)},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, "please fix chapter 2", view.Comment)
	assert.Equal(t, "Super Visor", view.AuthorName)
	require.NotNil(t, view.FileURL)
	require.Len(t, storedFiles(t, f.dir), 1)
	require.Len(t, f.visits.visits, 1)
	assert.Equal(t, view.CreatedAt, f.visits.visits[0].at)

	_, err = f.svc.Comment(context.Background(), "d1", dto.CreateCommentRequest{Comment: "   "}, actor)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = f.svc.Comment(context.Background(), "d1", dto.CreateCommentRequest{Comment: "hi"}, claims("other", models.RoleStudent))
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(err))
}

func TestOpenFileBySignedToken(t *testing.T) {
	f := newDocumentFixture(t, models.RevisionView{})
	doc, err := f.svc.Upload(context.Background(), dto.UploadDocumentInput{ProjectID: "p1", File: pdfUpload("x.pdf")}, claims("student", models.RoleStudent))
	require.NoError(t, err)

	url, _, err := f.svc.sign(doc.ID, doc.FilePath)
	require.NoError(t, err)
	token := strings.TrimPrefix(url, "/api/v1/files/")

	file, name, err := f.svc.OpenFile(token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, filepath.Base(doc.FilePath), name)

	_, _, err = f.svc.OpenFile(token + "x")
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}
