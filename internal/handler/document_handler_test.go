package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
)

type fakeDocumentSrv struct {
	uploaded   []byte
	abstract   bool
	input      dto.UploadDocumentInput
	comment    dto.CreateCommentRequest
	attachment []byte
	filePath   string
	openErr    error
}

func (f *fakeDocumentSrv) Upload(_ context.Context, input dto.UploadDocumentInput, _ *models.JWTClaims) (*models.Document, error) {
	f.input = input
	body, err := io.ReadAll(input.File.Reader)
	if err != nil {
		return nil, err
	}
	f.uploaded = body
	f.abstract = input.Abstract != nil
	return &models.Document{ID: "d1", ProjectID: input.ProjectID, FileName: input.File.Name}, nil
}

func (f *fakeDocumentSrv) Detail(_ context.Context, documentID string, _ *models.JWTClaims) (*dto.DocumentDetail, error) {
	return &dto.DocumentDetail{Document: models.Document{ID: documentID}, IsCurrent: true}, nil
}

func (f *fakeDocumentSrv) Comment(_ context.Context, documentID string, req dto.CreateCommentRequest, _ *models.JWTClaims) (*dto.CommentView, error) {
	f.comment = req
	if req.Attachment != nil {
		body, err := io.ReadAll(req.Attachment.Reader)
		if err != nil {
			return nil, err
		}
		f.attachment = body
	}
	return &dto.CommentView{}, nil
}

func (f *fakeDocumentSrv) OpenFile(string) (*os.File, string, error) {
	if f.openErr != nil {
		return nil, "", f.openErr
	}
	file, err := os.Open(f.filePath)
	return file, "thesis.pdf", err
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".pdf")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDocumentHandlerUpload(t *testing.T) {
	srv := &fakeDocumentSrv{}
	handler := NewDocumentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/projects/p1/documents", "", nil)
	c.Request = multipartRequest(t, "/projects/p1/documents", nil, map[string][]byte{
		"file":     []byte("%PDF-1.4 thesis"),
		"abstract": []byte("%PDF-1.4 abstract"),
	})
	c.Params = gin.Params{{Key: "id", Value: testProjectID}}
	handler.Upload(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testProjectID, srv.input.ProjectID)
	assert.Equal(t, "file.pdf", srv.input.File.Name)
	assert.Equal(t, "%PDF-1.4 thesis", string(srv.uploaded))
	assert.True(t, srv.abstract)
}

func TestDocumentHandlerUploadRequiresFile(t *testing.T) {
	handler := NewDocumentHandler(&fakeDocumentSrv{})

	c, rec := newTestContext(http.MethodPost, "/projects/p1/documents", "", nil)
	c.Request = multipartRequest(t, "/projects/p1/documents", map[string]string{"note": "x"}, nil)
	c.Params = gin.Params{{Key: "id", Value: testProjectID}}
	handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentHandlerDetailMalformedID(t *testing.T) {
	handler := NewDocumentHandler(&fakeDocumentSrv{})

	c, rec := newTestContext(http.MethodGet, "/documents/d1", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "d1"}}
	handler.Detail(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocumentHandlerComment(t *testing.T) {
	srv := &fakeDocumentSrv{}
	handler := NewDocumentHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/documents/d1/comments", "", nil)
	c.Request = multipartRequest(t, "/documents/d1/comments", map[string]string{"comment": "see chapter 2"}, map[string][]byte{"attachment": []byte("notes")})
	c.Params = gin.Params{{Key: "id", Value: testDocumentID}}
	handler.Comment(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "see chapter 2", srv.comment.Comment)
	assert.Equal(t, "notes", string(srv.attachment))
}

func TestDocumentHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stored.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nbody"), 0o600))
	handler := NewDocumentHandler(&fakeDocumentSrv{filePath: path})

	c, rec := newTestContext(http.MethodGet, "/files/token", "", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="thesis.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4\nbody", rec.Body.String())
}

func TestDocumentHandlerDownloadExpired(t *testing.T) {
	handler := NewDocumentHandler(&fakeDocumentSrv{openErr: appErrors.Clone(appErrors.ErrForbidden, "link expired")})

	c, rec := newTestContext(http.MethodGet, "/files/token", "", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
