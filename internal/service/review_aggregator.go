package service

import (
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
)

// ReviewAggregator enforces grade agreement between reviewers and decides quorum.
type ReviewAggregator struct{}

// NewReviewAggregator constructs an aggregator.
func NewReviewAggregator() *ReviewAggregator {
	return &ReviewAggregator{}
}

// CheckGrade rejects a grade that differs from any evaluation already submitted.
func (a *ReviewAggregator) CheckGrade(existing []models.Evaluation, grade models.Grade) error {
	if !grade.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "grade must be between 1 and 5")
	}
	for _, e := range existing {
		if e.Grade != grade {
			return appErrors.ErrGradeMismatch
		}
	}
	return nil
}

// HasEvaluated reports whether userID already submitted an evaluation.
func (a *ReviewAggregator) HasEvaluated(existing []models.Evaluation, userID string) bool {
	for _, e := range existing {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// QuorumReached is true once every assigned reviewer has evaluated. At least one
// evaluation is always required, so a project without reviewers never advances.
func (a *ReviewAggregator) QuorumReached(reviewers, evaluations int) bool {
	return evaluations >= a.required(reviewers)
}

// Progress summarises how far the review has come.
func (a *ReviewAggregator) Progress(reviewers, evaluations int) models.ReviewProgress {
	return models.ReviewProgress{
		Reviewers:   reviewers,
		Submitted:   evaluations,
		Required:    a.required(reviewers),
		QuorumReady: a.QuorumReached(reviewers, evaluations),
	}
}

func (a *ReviewAggregator) required(reviewers int) int {
	if reviewers < 1 {
		return 1
	}
	return reviewers
}
