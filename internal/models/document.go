package models

import "time"

// Document is one uploaded revision of a thesis.
type Document struct {
	ID           string    `db:"id" json:"id"`
	ProjectID    string    `db:"project_id" json:"project_id"`
	UploaderID   string    `db:"uploader_id" json:"uploader_id"`
	FileName     string    `db:"file_name" json:"file_name"`
	FilePath     string    `db:"file_path" json:"-"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	AbstractName *string   `db:"abstract_name" json:"abstract_name,omitempty"`
	AbstractPath *string   `db:"abstract_path" json:"-"`
	Uploaded     time.Time `db:"uploaded_at" json:"uploaded_at"`
	LatestUpdate time.Time `db:"latest_update" json:"latest_update"`
	Draft        bool      `db:"draft" json:"draft"`
}

// DocumentRevision is a document joined with the viewer's most recent visit.
type DocumentRevision struct {
	Document
	LastVisit *time.Time `db:"last_visit" json:"last_visit,omitempty"`
}

// RevisionEntry is a document with its derived unseen flag.
type RevisionEntry struct {
	Document
	LastVisit       *time.Time `json:"last_visit,omitempty"`
	HasUnseenUpdate bool       `json:"has_unseen_update"`
}

// RevisionView is the viewer-specific split of a project's documents.
// Current is nil when the project has no documents.
type RevisionView struct {
	Current *RevisionEntry  `json:"current"`
	Older   []RevisionEntry `json:"older"`
}

// DocumentVisit is one view event. Rows are append-only.
type DocumentVisit struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	VisitedAt  time.Time `db:"visited_at" json:"visited_at"`
}

// DocumentComment is feedback left on a document.
type DocumentComment struct {
	ID         string    `db:"id" json:"id"`
	DocumentID string    `db:"document_id" json:"document_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Comment    string    `db:"comment" json:"comment"`
	FileName   *string   `db:"file_name" json:"file_name,omitempty"`
	FilePath   *string   `db:"file_path" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
