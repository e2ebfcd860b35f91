package dto

import (
	"io"
	"time"

	"github.com/noah-isme/egradu-api/internal/models"
)

// FileUpload is an uploaded file handed from the transport layer.
type FileUpload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// UploadDocumentInput carries a new revision for a project.
type UploadDocumentInput struct {
	ProjectID string
	File      FileUpload
	Abstract  *FileUpload
}

// CreateCommentRequest is a comment with an optional attachment.
type CreateCommentRequest struct {
	Comment    string      `json:"comment" form:"comment" validate:"required,max=5000"`
	Attachment *FileUpload `json:"-" form:"-"`
}

// CommentView is a comment with a signed attachment link.
type CommentView struct {
	models.DocumentComment
	FileURL *string `json:"fileUrl,omitempty"`
}

// DocumentDetail is the payload of the document page.
type DocumentDetail struct {
	Document        models.Document `json:"document"`
	IsCurrent       bool            `json:"isCurrent"`
	DownloadURL     string          `json:"downloadUrl"`
	AbstractURL     *string         `json:"abstractUrl,omitempty"`
	URLExpiresAt    time.Time       `json:"urlExpiresAt"`
	LastVisit       *time.Time      `json:"lastVisit,omitempty"`
	HasUnseenUpdate bool            `json:"hasUnseenUpdate"`
	Comments        []CommentView   `json:"comments"`
}
