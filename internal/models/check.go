package models

import (
	"fmt"
	"time"
)

// Grade is the 1..5 thesis grade scale.
type Grade int

const (
	GradeSufficient   Grade = 1
	GradeSatisfactory Grade = 2
	GradeGood         Grade = 3
	GradeVeryGood     Grade = 4
	GradeExcellent    Grade = 5
)

var gradeLabels = map[Grade]string{
	GradeSufficient:   "Sufficient",
	GradeSatisfactory: "Satisfactory",
	GradeGood:         "Good",
	GradeVeryGood:     "Very good",
	GradeExcellent:    "Excellent",
}

// Valid reports whether g is on the scale.
func (g Grade) Valid() bool {
	_, ok := gradeLabels[g]
	return ok
}

// Label returns the human readable grade.
func (g Grade) Label() string {
	if label, ok := gradeLabels[g]; ok {
		return label
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// LanguageCheck records the language review of a project.
type LanguageCheck struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	Comment   string    `db:"comment" json:"comment"`
	Grade     Grade     `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PlagiarismCheck records an imported plagiarism result. Approved is nil while undecided.
type PlagiarismCheck struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	Comment   string    `db:"comment" json:"comment"`
	Approved  *bool     `db:"approved" json:"approved"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Evaluation is a reviewer's grade for a project.
type Evaluation struct {
	ID              string    `db:"id" json:"id"`
	ProjectID       string    `db:"project_id" json:"project_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	UserName        string    `db:"user_name" json:"user_name"`
	Comment         string    `db:"comment" json:"comment"`
	Grade           Grade     `db:"grade" json:"grade"`
	OtherReviewerID *string   `db:"other_reviewer_id" json:"other_reviewer_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// DeanDecision records the final approval or denial.
type DeanDecision struct {
	ID        string        `db:"id" json:"id"`
	ProjectID string        `db:"project_id" json:"project_id"`
	UserID    string        `db:"user_id" json:"user_id"`
	Status    ProjectStatus `db:"status" json:"status"`
	Comment   string        `db:"comment" json:"comment"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
