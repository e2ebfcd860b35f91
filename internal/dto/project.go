package dto

import (
	"time"

	"github.com/noah-isme/egradu-api/internal/models"
)

// CreateProjectRequest is submitted by a student without a project.
type CreateProjectRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	SupervisorID string `json:"supervisorId" validate:"required"`
}

// StatusOption is a status paired with its label for clients.
type StatusOption struct {
	Status models.ProjectStatus `json:"status"`
	Label  string               `json:"label"`
}

// ProjectOverview is everything a participant needs to render a project page.
type ProjectOverview struct {
	Project          models.Project           `json:"project"`
	StatusLabel      string                   `json:"statusLabel"`
	AllowedNext      []StatusOption           `json:"allowedNext"`
	Student          models.UserRef           `json:"student"`
	Supervisor       models.UserRef           `json:"supervisor"`
	Reviewers        []models.ProjectReviewer `json:"reviewers"`
	Revisions        models.RevisionView      `json:"revisions"`
	LanguageChecks   []models.LanguageCheck   `json:"languageChecks"`
	PlagiarismChecks []models.PlagiarismCheck `json:"plagiarismChecks"`
	Evaluations      []models.Evaluation      `json:"evaluations"`
	Progress         models.ReviewProgress    `json:"progress"`
	Decision         *models.DeanDecision     `json:"decision,omitempty"`
}

// StudentDashboard is the student landing payload. Project is nil until one is created.
type StudentDashboard struct {
	Project *ProjectOverview `json:"project"`
}

// TeacherQueue groups the projects waiting on a teacher.
type TeacherQueue struct {
	Supervised        []models.ProjectSummary `json:"supervised"`
	PendingPlagiarism []models.ProjectSummary `json:"pendingPlagiarism"`
	AwaitingReview    []models.ProjectSummary `json:"awaitingReview"`
	GeneratedAt       time.Time               `json:"generatedAt"`
}
