package dto

import "github.com/noah-isme/egradu-api/internal/models"

// LanguageCheckRequest records the language review result.
type LanguageCheckRequest struct {
	Grade   int    `json:"grade" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=5000"`
}

// PlagiarismResultRequest imports an external plagiarism check. A nil Approved keeps the project at PLAGIARISM.
type PlagiarismResultRequest struct {
	Approved *bool  `json:"approved"`
	Comment  string `json:"comment" validate:"max=5000"`
}

// EvaluationRequest is a reviewer's grade submission.
type EvaluationRequest struct {
	Grade           int     `json:"grade" validate:"required,min=1,max=5"`
	Comment         string  `json:"comment" validate:"max=5000"`
	OtherReviewerID *string `json:"otherReviewerId"`
}

// AssignReviewersRequest adds reviewers to a project.
type AssignReviewersRequest struct {
	ReviewerIDs []string `json:"reviewerIds" validate:"required,min=1,max=2,dive,required"`
}

// DecisionRequest is the dean's final decision.
type DecisionRequest struct {
	Status  string `json:"status" validate:"required,oneof=APPROVED DENIED"`
	Comment string `json:"comment" validate:"max=5000"`
}

// TransitionResult reports the outcome of a workflow trigger.
type TransitionResult struct {
	ProjectID string                 `json:"projectId"`
	From      models.ProjectStatus   `json:"from"`
	To        models.ProjectStatus   `json:"to"`
	Progress  *models.ReviewProgress `json:"progress,omitempty"`
}
