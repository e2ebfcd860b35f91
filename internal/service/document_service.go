package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/storage"
)

// sniffLength is how much of an upload is inspected to detect its type.
const sniffLength = 3072

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	CreateComment(ctx context.Context, comment *models.DocumentComment) error
	ListComments(ctx context.Context, documentID string) ([]models.DocumentComment, error)
}

type projectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type fileStorage interface {
	SaveStream(name string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type urlSigner interface {
	Generate(resourceID, relPath string) (string, time.Time, error)
	Parse(token string) (*storage.SignedFile, error)
}

type visitRecorder interface {
	Record(ctx context.Context, documentID, userID string, at time.Time)
}

// DocumentConfig tunes upload validation and download links.
type DocumentConfig struct {
	APIPrefix    string
	MaxFileSize  int64
	AllowedMIMEs []string
}

// DocumentService handles revision uploads, the document page and comments.
type DocumentService struct {
	documents documentStore
	projects  projectFinder
	revisions revisionViewer
	storage   fileStorage
	signer    urlSigner
	visits    visitRecorder
	metrics   *MetricsService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	cfg       DocumentConfig
	now       func() time.Time
}

// DocumentServiceParams groups constructor dependencies.
type DocumentServiceParams struct {
	Documents documentStore
	Projects  projectFinder
	Revisions revisionViewer
	Storage   fileStorage
	Signer    urlSigner
	Visits    visitRecorder
	Metrics   *MetricsService
	Audit     auditLogger
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    DocumentConfig
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	cfg := params.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &DocumentService{
		documents: params.Documents,
		projects:  params.Projects,
		revisions: params.Revisions,
		storage:   params.Storage,
		signer:    params.Signer,
		visits:    params.Visits,
		metrics:   params.Metrics,
		audit:     params.Audit,
		validator: params.Validator,
		logger:    params.Logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a new draft revision. Revisions are accepted until the final
// version is frozen by the start of the review.
func (s *DocumentService) Upload(ctx context.Context, input dto.UploadDocumentInput, actor *models.JWTClaims) (*models.Document, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, translateLookup(err, "project not found", "failed to load project")
	}
	if !project.IsOwner(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only upload to your own project")
	}
	if project.Status >= models.StatusPendingPlagiarism {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "the final version has been selected, new revisions are not accepted")
	}

	dir := "projects/" + project.ID
	filePath, mime, err := s.store(dir, input.File, true)
	if err != nil {
		return nil, err
	}
	doc := &models.Document{
		ProjectID:  project.ID,
		UploaderID: actor.UserID,
		FileName:   cleanName(input.File.Name),
		FilePath:   filePath,
		MimeType:   mime,
		SizeBytes:  input.File.Size,
	}
	if input.Abstract != nil {
		abstractPath, _, err := s.store(dir, *input.Abstract, true)
		if err != nil {
			s.discard(filePath)
			return nil, err
		}
		name := cleanName(input.Abstract.Name)
		doc.AbstractName = &name
		doc.AbstractPath = &abstractPath
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		s.discard(filePath)
		if doc.AbstractPath != nil {
			s.discard(*doc.AbstractPath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	s.metrics.ObserveUpload(doc.SizeBytes)
	s.visits.Record(ctx, doc.ID, actor.UserID, doc.LatestUpdate)
	s.emitAudit(ctx, actor, doc)
	s.logger.Info("document uploaded", zap.String("project_id", project.ID), zap.String("document_id", doc.ID))
	return doc, nil
}

// Detail returns the document page and records the view. Unseen flags reflect
// the state before this view.
func (s *DocumentService) Detail(ctx context.Context, documentID string, actor *models.JWTClaims) (*dto.DocumentDetail, error) {
	doc, err := s.authorize(ctx, documentID, actor)
	if err != nil {
		return nil, err
	}
	view, err := s.revisions.CurrentView(ctx, doc.ProjectID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revisions")
	}
	comments, err := s.documents.ListComments(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}

	detail := &dto.DocumentDetail{
		Document:        *doc,
		HasUnseenUpdate: true,
		Comments:        make([]dto.CommentView, 0, len(comments)),
	}
	if entry := findRevision(view, doc.ID); entry != nil {
		detail.IsCurrent = view.Current != nil && view.Current.ID == doc.ID
		detail.LastVisit = entry.LastVisit
		detail.HasUnseenUpdate = entry.HasUnseenUpdate
	}

	detail.DownloadURL, detail.URLExpiresAt, err = s.sign(doc.ID, doc.FilePath)
	if err != nil {
		return nil, err
	}
	if doc.AbstractPath != nil {
		url, _, err := s.sign(doc.ID, *doc.AbstractPath)
		if err != nil {
			return nil, err
		}
		detail.AbstractURL = &url
	}
	for _, c := range comments {
		item, err := s.commentView(c)
		if err != nil {
			return nil, err
		}
		detail.Comments = append(detail.Comments, *item)
	}

	s.visits.Record(ctx, doc.ID, actor.UserID, s.now())
	return detail, nil
}

// Comment adds feedback to a document. The document's latest update moves to the
// comment time, so every other participant sees it as unseen.
func (s *DocumentService) Comment(ctx context.Context, documentID string, req dto.CreateCommentRequest, actor *models.JWTClaims) (*dto.CommentView, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	doc, err := s.authorize(ctx, documentID, actor)
	if err != nil {
		return nil, err
	}

	comment := &models.DocumentComment{
		DocumentID: doc.ID,
		UserID:     actor.UserID,
		AuthorName: actor.FullName,
		Comment:    req.Comment,
	}
	if req.Attachment != nil {
		stored, _, err := s.store("documents/"+doc.ID+"/comments", *req.Attachment, false)
		if err != nil {
			return nil, err
		}
		name := cleanName(req.Attachment.Name)
		comment.FileName = &name
		comment.FilePath = &stored
	}
	if err := s.documents.CreateComment(ctx, comment); err != nil {
		if comment.FilePath != nil {
			s.discard(*comment.FilePath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store comment")
	}

	s.visits.Record(ctx, doc.ID, actor.UserID, comment.CreatedAt)
	return s.commentView(*comment)
}

// OpenFile resolves a signed download token to the stored file.
func (s *DocumentService) OpenFile(token string) (*os.File, string, error) {
	signed, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	file, err := s.storage.Open(signed.Path)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file not found")
	}
	return file, path.Base(signed.Path), nil
}

// authorize loads the document; students only reach documents of their own project.
func (s *DocumentService) authorize(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, translateLookup(err, "document not found", "failed to load document")
	}
	if actor.Role != models.RoleStudent {
		return doc, nil
	}
	project, err := s.projects.FindByID(ctx, doc.ProjectID)
	if err != nil {
		return nil, translateLookup(err, "project not found", "failed to load project")
	}
	if !project.IsOwner(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only access your own project")
	}
	return doc, nil
}

// store validates and persists an upload under dir. Thesis files must match the
// allowed MIME list; comment attachments only obey the size limit.
func (s *DocumentService) store(dir string, upload dto.FileUpload, restrictType bool) (string, string, error) {
	if upload.Reader == nil || upload.Size <= 0 {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if restrictType && !s.allowed(detected) {
		return "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s is not allowed", detected.String()))
	}

	name := fmt.Sprintf("%s/%s%s", dir, uuid.NewString(), detected.Extension())
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), upload.Reader), s.cfg.MaxFileSize)
	stored, err := s.storage.SaveStream(name, body)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	return stored, detected.String(), nil
}

func (s *DocumentService) allowed(detected *mimetype.MIME) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, m := range s.cfg.AllowedMIMEs {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

func (s *DocumentService) discard(name string) {
	if err := s.storage.Delete(name); err != nil {
		s.logger.Warn("failed to remove orphaned upload", zap.String("path", name), zap.Error(err))
	}
}

func (s *DocumentService) sign(resourceID, relPath string) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(resourceID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/files/" + token, expiresAt, nil
}

func (s *DocumentService) commentView(c models.DocumentComment) (*dto.CommentView, error) {
	view := &dto.CommentView{DocumentComment: c}
	if c.FilePath != nil {
		url, _, err := s.sign(c.ID, *c.FilePath)
		if err != nil {
			return nil, err
		}
		view.FileURL = &url
	}
	return view, nil
}

func (s *DocumentService) emitAudit(ctx context.Context, actor *models.JWTClaims, doc *models.Document) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	docID := doc.ID
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionDocumentUpload,
		Resource:   models.AuditResourceDocument,
		ResourceID: &docID,
		NewValues:  []byte(fmt.Sprintf(`{"project_id":%q,"file_name":%q}`, doc.ProjectID, doc.FileName)),
		IPAddress:  "system",
		UserAgent:  "document-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func findRevision(view models.RevisionView, documentID string) *models.RevisionEntry {
	if view.Current != nil && view.Current.ID == documentID {
		return view.Current
	}
	for i := range view.Older {
		if view.Older[i].ID == documentID {
			return &view.Older[i]
		}
	}
	return nil
}

func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
