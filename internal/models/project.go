package models

import "time"

// MaxReviewers is the number of reviewers a project can hold.
const MaxReviewers = 2

// Project is one student's thesis tracked through the approval lifecycle.
type Project struct {
	ID             string        `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	StudentID      string        `db:"student_id" json:"student_id"`
	SupervisorID   string        `db:"supervisor_id" json:"supervisor_id"`
	Status         ProjectStatus `db:"status" json:"status"`
	FinalVersionID *string       `db:"final_version_id" json:"final_version_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// IsSupervisor reports whether userID supervises the project.
func (p *Project) IsSupervisor(userID string) bool {
	return p != nil && p.SupervisorID == userID
}

// IsOwner reports whether userID is the project's student.
func (p *Project) IsOwner(userID string) bool {
	return p != nil && p.StudentID == userID
}

// ProjectReviewer links an assigned reviewer to a project.
type ProjectReviewer struct {
	ProjectID  string    `db:"project_id" json:"project_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FullName   string    `db:"full_name" json:"full_name"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// ReviewProgress summarises evaluation quorum for a project.
type ReviewProgress struct {
	Reviewers   int  `json:"reviewers"`
	Submitted   int  `json:"submitted"`
	Required    int  `json:"required"`
	QuorumReady bool `json:"quorum_ready"`
}

// ProjectSummary is the row shape used by the teacher queue.
type ProjectSummary struct {
	ID             string        `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	Status         ProjectStatus `db:"status" json:"status"`
	StudentID      string        `db:"student_id" json:"student_id"`
	StudentName    string        `db:"student_name" json:"student_name"`
	SupervisorID   string        `db:"supervisor_id" json:"supervisor_id"`
	SupervisorName string        `db:"supervisor_name" json:"supervisor_name"`
	LatestUpdate   *time.Time    `db:"latest_update" json:"latest_update,omitempty"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
