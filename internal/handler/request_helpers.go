package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/middleware"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/response"
)

// claimsFromContext returns the caller set by the JWT middleware, or nil on
// public routes. Services reject a nil actor where one is required.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, _ := c.Get(middleware.ContextUserKey)
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// pathID reads the :id parameter. Ids are UUIDs, so anything else cannot name
// an existing resource and is answered with not found.
func pathID(c *gin.Context, resource string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, resource+" not found"))
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func respondTransition(c *gin.Context, res *dto.TransitionResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// formUpload opens an optional multipart file. A missing field yields nil.
func formUpload(c *gin.Context, field string) (*dto.FileUpload, func(), error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*dto.FileUpload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read upload")
	}
	return &dto.FileUpload{Name: header.Filename, Size: header.Size, Reader: f}, func() { _ = f.Close() }, nil
}
