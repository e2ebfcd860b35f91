package handler

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/internal/service"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/response"
)

type projectService interface {
	Create(ctx context.Context, req dto.CreateProjectRequest, actor *models.JWTClaims) (*models.Project, error)
	Overview(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.ProjectOverview, error)
	StudentDashboard(ctx context.Context, actor *models.JWTClaims) (*dto.StudentDashboard, error)
	TeacherQueue(ctx context.Context, actor *models.JWTClaims) (*dto.TeacherQueue, error)
	Supervisors(ctx context.Context, actor *models.JWTClaims) ([]models.UserRef, error)
}

type exportService interface {
	Statement(ctx context.Context, projectID string, actor *models.JWTClaims) (*service.ExportFile, error)
	QueueCSV(ctx context.Context, actor *models.JWTClaims) (*service.ExportFile, error)
}

// ProjectHandler exposes project creation, overviews and dashboards.
type ProjectHandler struct {
	service projectService
	exports exportService
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(svc projectService, exports exportService) *ProjectHandler {
	return &ProjectHandler{service: svc, exports: exports}
}

// Create godoc
// @Summary Create project
// @Description Student opens a thesis project with a supervisor
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body dto.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}
	project, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Mine godoc
// @Summary Student dashboard
// @Description Returns the calling student's project overview, if any
// @Tags Projects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /projects/mine [get]
func (h *ProjectHandler) Mine(c *gin.Context) {
	dash, err := h.service.StudentDashboard(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dash, nil)
}

// Get godoc
// @Summary Project overview
// @Description Project, status, revisions with unseen flags, checks and review progress
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Supervisors godoc
// @Summary Supervisor directory
// @Description Active teachers that can supervise or review a project
// @Tags Projects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /supervisors [get]
func (h *ProjectHandler) Supervisors(c *gin.Context) {
	teachers, err := h.service.Supervisors(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Queue godoc
// @Summary Teacher queue
// @Description Supervised projects, projects awaiting a plagiarism result and reviews awaiting the caller
// @Tags Projects
// @Produce json
// @Param format query string false "csv for a download"
// @Success 200 {object} response.Envelope
// @Router /teacher/queue [get]
func (h *ProjectHandler) Queue(c *gin.Context) {
	if c.Query("format") == "csv" {
		h.download(c, func(ctx context.Context, actor *models.JWTClaims) (*service.ExportFile, error) {
			return h.exports.QueueCSV(ctx, actor)
		})
		return
	}
	queue, err := h.service.TeacherQueue(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, queue, nil)
}

// Statement godoc
// @Summary Review statement
// @Description Renders the project's checks and evaluations as PDF
// @Tags Projects
// @Produce application/pdf
// @Param id path string true "Project ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/statement.pdf [get]
func (h *ProjectHandler) Statement(c *gin.Context) {
	projectID, ok := pathID(c, "project")
	if !ok {
		return
	}
	h.download(c, func(ctx context.Context, actor *models.JWTClaims) (*service.ExportFile, error) {
		return h.exports.Statement(ctx, projectID, actor)
	})
}

func (h *ProjectHandler) download(c *gin.Context, render func(context.Context, *models.JWTClaims) (*service.ExportFile, error)) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "exports are not configured"))
		return
	}
	file, err := render(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Name, file.ContentType, int64(len(file.Body)), bytes.NewReader(file.Body))
}
