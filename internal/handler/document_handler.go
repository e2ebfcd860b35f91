package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/response"
)

type documentService interface {
	Upload(ctx context.Context, input dto.UploadDocumentInput, actor *models.JWTClaims) (*models.Document, error)
	Detail(ctx context.Context, documentID string, actor *models.JWTClaims) (*dto.DocumentDetail, error)
	Comment(ctx context.Context, documentID string, req dto.CreateCommentRequest, actor *models.JWTClaims) (*dto.CommentView, error)
	OpenFile(token string) (*os.File, string, error)
}

// DocumentHandler serves thesis revisions, comments and signed downloads.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Upload godoc
// @Summary Upload revision
// @Description Student uploads a new thesis revision with an optional abstract
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Project ID"
// @Param file formData file true "Thesis PDF"
// @Param abstract formData file false "Abstract PDF"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	file, closeFile, err := formUpload(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	if file == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	defer closeFile()

	abstract, closeAbstract, err := formUpload(c, "abstract")
	if err != nil {
		response.Error(c, err)
		return
	}
	if abstract != nil {
		defer closeAbstract()
	}

	doc, err := h.service.Upload(c.Request.Context(), dto.UploadDocumentInput{
		ProjectID: id,
		File:      *file,
		Abstract:  abstract,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Detail godoc
// @Summary Document detail
// @Description Revision with signed file links, comments and the caller's unseen flag
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "document")
	if !ok {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Comment godoc
// @Summary Comment on revision
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document ID"
// @Param comment formData string true "Comment text"
// @Param attachment formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /documents/{id}/comments [post]
func (h *DocumentHandler) Comment(c *gin.Context) {
	id, ok := pathID(c, "document")
	if !ok {
		return
	}
	attachment, closeAttachment, err := formUpload(c, "attachment")
	if err != nil {
		response.Error(c, err)
		return
	}
	if attachment != nil {
		defer closeAttachment()
	}

	view, err := h.service.Comment(c.Request.Context(), id, dto.CreateCommentRequest{
		Comment:    c.PostForm("comment"),
		Attachment: attachment,
	}, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Download godoc
// @Summary Download file
// @Description Streams a stored file addressed by a signed token
// @Tags Documents
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	file, name, err := h.service.OpenFile(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read file"))
		return
	}
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read file"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read file"))
		return
	}
	response.Attachment(c, name, mtype.String(), info.Size(), file)
}
