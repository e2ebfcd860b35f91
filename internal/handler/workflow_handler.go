package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/pkg/response"
)

type workflowService interface {
	SubmitForLanguageCheck(ctx context.Context, documentID string, actor *models.JWTClaims) (*dto.TransitionResult, error)
	RecordLanguageCheck(ctx context.Context, projectID string, req dto.LanguageCheckRequest, actor *models.JWTClaims) (*dto.TransitionResult, error)
	StartReview(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.TransitionResult, error)
	SendToPlagiarism(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.TransitionResult, error)
	ImportPlagiarism(ctx context.Context, projectID string, req dto.PlagiarismResultRequest, actor *models.JWTClaims) (*dto.TransitionResult, error)
	AssignReviewers(ctx context.Context, projectID string, req dto.AssignReviewersRequest, actor *models.JWTClaims) ([]models.ProjectReviewer, error)
	SubmitEvaluation(ctx context.Context, projectID string, req dto.EvaluationRequest, actor *models.JWTClaims) (*dto.TransitionResult, error)
	Decide(ctx context.Context, projectID string, req dto.DecisionRequest, actor *models.JWTClaims) (*dto.TransitionResult, error)
}

// WorkflowHandler exposes the status transitions of a project.
type WorkflowHandler struct {
	service workflowService
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(svc workflowService) *WorkflowHandler {
	return &WorkflowHandler{service: svc}
}

// SubmitDocument godoc
// @Summary Submit for language check
// @Description Freezes the current draft and moves the project to PENDING_LANGUAGE_CHECK
// @Tags Workflow
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /documents/{id}/submit [post]
func (h *WorkflowHandler) SubmitDocument(c *gin.Context) {
	id, ok := pathID(c, "document")
	if !ok {
		return
	}
	res, err := h.service.SubmitForLanguageCheck(c.Request.Context(), id, claimsFromContext(c))
	respondTransition(c, res, err)
}

// LanguageCheck godoc
// @Summary Record language check
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.LanguageCheckRequest true "Language check"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/language-check [post]
func (h *WorkflowHandler) LanguageCheck(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	var req dto.LanguageCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.RecordLanguageCheck(c.Request.Context(), id, req, claimsFromContext(c))
	respondTransition(c, res, err)
}

// StartReview godoc
// @Summary Start review
// @Description Supervisor selects the current document as final version
// @Tags Workflow
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /projects/{id}/start-review [post]
func (h *WorkflowHandler) StartReview(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	res, err := h.service.StartReview(c.Request.Context(), id, claimsFromContext(c))
	respondTransition(c, res, err)
}

// SendToPlagiarism godoc
// @Summary Send to plagiarism check
// @Tags Workflow
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/send-to-plagiarism [post]
func (h *WorkflowHandler) SendToPlagiarism(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	res, err := h.service.SendToPlagiarism(c.Request.Context(), id, claimsFromContext(c))
	respondTransition(c, res, err)
}

// ImportPlagiarism godoc
// @Summary Import plagiarism result
// @Description An approved result moves the project on to EVALUATION
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.PlagiarismResultRequest true "Plagiarism result"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/plagiarism [post]
func (h *WorkflowHandler) ImportPlagiarism(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	var req dto.PlagiarismResultRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.ImportPlagiarism(c.Request.Context(), id, req, claimsFromContext(c))
	respondTransition(c, res, err)
}

// AssignReviewers godoc
// @Summary Assign reviewers
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.AssignReviewersRequest true "Reviewer ids"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects/{id}/reviewers [post]
func (h *WorkflowHandler) AssignReviewers(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	var req dto.AssignReviewersRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewers, err := h.service.AssignReviewers(c.Request.Context(), id, req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviewers, nil)
}

// Evaluate godoc
// @Summary Submit evaluation
// @Description Grade must match earlier evaluations; quorum moves the project to PENDING_APPROVAL
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.EvaluationRequest true "Evaluation"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /projects/{id}/evaluations [post]
func (h *WorkflowHandler) Evaluate(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	var req dto.EvaluationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SubmitEvaluation(c.Request.Context(), id, req, claimsFromContext(c))
	respondTransition(c, res, err)
}

// Decide godoc
// @Summary Dean decision
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/decision [post]
func (h *WorkflowHandler) Decide(c *gin.Context) {
	id, ok := pathID(c, "project")
	if !ok {
		return
	}
	var req dto.DecisionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Decide(c.Request.Context(), id, req, claimsFromContext(c))
	respondTransition(c, res, err)
}
