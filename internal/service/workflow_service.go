package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
	"github.com/noah-isme/egradu-api/pkg/middleware/requestid"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type projectCacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

type workflowProjectStore interface {
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Project, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id string, from, to models.ProjectStatus) (bool, error)
	SetFinalVersion(ctx context.Context, tx *sqlx.Tx, id, documentID string) error
	ListReviewersTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.ProjectReviewer, error)
	AddReviewer(ctx context.Context, tx *sqlx.Tx, projectID, userID string) error
}

type workflowDocumentStore interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	MarkSubmitted(ctx context.Context, tx *sqlx.Tx, id string, at time.Time) (bool, error)
}

type workflowCheckStore interface {
	CreateLanguageCheck(ctx context.Context, tx *sqlx.Tx, check *models.LanguageCheck) error
	CreatePlagiarismCheck(ctx context.Context, tx *sqlx.Tx, check *models.PlagiarismCheck) error
	CreateEvaluation(ctx context.Context, tx *sqlx.Tx, evaluation *models.Evaluation) error
	CreateDecision(ctx context.Context, tx *sqlx.Tx, decision *models.DeanDecision) error
	ListEvaluationsTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.Evaluation, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type currentDocumentResolver interface {
	CurrentDocumentTx(ctx context.Context, tx *sqlx.Tx, projectID string) (*models.Document, error)
}

// WorkflowService is the project state machine. Every trigger runs in one
// transaction holding the project row lock, and every status write goes through
// advance.
type WorkflowService struct {
	tx         txProvider
	projects   workflowProjectStore
	documents  workflowDocumentStore
	checks     workflowCheckStore
	users      userReader
	revisions  currentDocumentResolver
	aggregator *ReviewAggregator
	cache      projectCacheInvalidator
	metrics    *MetricsService
	audit      auditLogger
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// WorkflowDeps groups the collaborators of WorkflowService.
type WorkflowDeps struct {
	Tx         txProvider
	Projects   workflowProjectStore
	Documents  workflowDocumentStore
	Checks     workflowCheckStore
	Users      userReader
	Revisions  currentDocumentResolver
	Aggregator *ReviewAggregator
	Cache      projectCacheInvalidator
	Metrics    *MetricsService
	Audit      auditLogger
	Validator  *validator.Validate
	Logger     *zap.Logger
}

// NewWorkflowService builds a WorkflowService with sane defaults.
func NewWorkflowService(deps WorkflowDeps) *WorkflowService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Aggregator == nil {
		deps.Aggregator = NewReviewAggregator()
	}
	return &WorkflowService{
		tx:         deps.Tx,
		projects:   deps.Projects,
		documents:  deps.Documents,
		checks:     deps.Checks,
		users:      deps.Users,
		revisions:  deps.Revisions,
		aggregator: deps.Aggregator,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		audit:      deps.Audit,
		validator:  deps.Validator,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type statusChange struct {
	from models.ProjectStatus
	to   models.ProjectStatus
}

// lockedProject is the state of one trigger while the row lock is held.
type lockedProject struct {
	tx      *sqlx.Tx
	project *models.Project
	initial models.ProjectStatus
	changes []statusChange
	audits  []*models.AuditLog
}

func (l *lockedProject) result() *dto.TransitionResult {
	return &dto.TransitionResult{ProjectID: l.project.ID, From: l.initial, To: l.project.Status}
}

// SubmitForLanguageCheck freezes the current draft and moves the project to PENDING_LANGUAGE_CHECK.
func (s *WorkflowService) SubmitForLanguageCheck(ctx context.Context, documentID string, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, translateLookup(err, "document not found", "failed to load document")
	}

	locked, err := s.withProjectLock(ctx, doc.ProjectID, actor, func(l *lockedProject) error {
		if !l.project.IsOwner(actor.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the project's student can submit documents")
		}
		current, err := s.revisions.CurrentDocumentTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current document")
		}
		if current == nil || current.ID != doc.ID {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "only the current document can be submitted")
		}
		if !current.Draft {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "document has already been submitted")
		}
		if err := s.advance(ctx, l, models.StatusPendingLanguageCheck); err != nil {
			return err
		}
		ok, err := s.documents.MarkSubmitted(ctx, l.tx, doc.ID, s.now())
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit document")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrConflict, "document was submitted concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// RecordLanguageCheck stores the language review and moves the project to LANGUAGE_CHECK.
func (s *WorkflowService) RecordLanguageCheck(ctx context.Context, projectID string, req dto.LanguageCheckRequest, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid language check payload")
	}

	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if err := s.advance(ctx, l, models.StatusLanguageCheck); err != nil {
			return err
		}
		check := &models.LanguageCheck{
			ProjectID: l.project.ID,
			UserID:    actor.UserID,
			Comment:   strings.TrimSpace(req.Comment),
			Grade:     models.Grade(req.Grade),
		}
		if err := s.checks.CreateLanguageCheck(ctx, l.tx, check); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store language check")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// StartReview selects the current document as final version and moves the project to PENDING_PLAGIARISM.
func (s *WorkflowService) StartReview(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if !l.project.IsSupervisor(actor.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the supervisor can start the review")
		}
		current, err := s.revisions.CurrentDocumentTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current document")
		}
		if current == nil {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "project has no documents")
		}
		if err := s.advance(ctx, l, models.StatusPendingPlagiarism); err != nil {
			return err
		}
		if err := s.projects.SetFinalVersion(ctx, l.tx, l.project.ID, current.ID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set final version")
		}
		finalID := current.ID
		l.project.FinalVersionID = &finalID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// SendToPlagiarism moves the project to PLAGIARISM_ONGOING.
func (s *WorkflowService) SendToPlagiarism(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if !l.project.IsSupervisor(actor.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the supervisor can send the thesis to plagiarism check")
		}
		return s.advance(ctx, l, models.StatusPlagiarismOngoing)
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// ImportPlagiarism stores a plagiarism result. The project moves to PLAGIARISM,
// and on to EVALUATION when the result is an approval.
func (s *WorkflowService) ImportPlagiarism(ctx context.Context, projectID string, req dto.PlagiarismResultRequest, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plagiarism payload")
	}

	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if err := s.advance(ctx, l, models.StatusPlagiarism); err != nil {
			return err
		}
		check := &models.PlagiarismCheck{
			ProjectID: l.project.ID,
			UserID:    actor.UserID,
			Comment:   strings.TrimSpace(req.Comment),
			Approved:  req.Approved,
		}
		if err := s.checks.CreatePlagiarismCheck(ctx, l.tx, check); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store plagiarism check")
		}
		if req.Approved != nil && *req.Approved {
			return s.advance(ctx, l, models.StatusEvaluation)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// AssignReviewers adds reviewers chosen by the supervisor.
func (s *WorkflowService) AssignReviewers(ctx context.Context, projectID string, req dto.AssignReviewersRequest, actor *models.JWTClaims) ([]models.ProjectReviewer, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reviewer payload")
	}

	var reviewers []models.ProjectReviewer
	_, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if !l.project.IsSupervisor(actor.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only the supervisor can assign reviewers")
		}
		if l.project.Status >= models.StatusPendingApproval {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "reviewers can no longer be changed")
		}
		current, err := s.projects.ListReviewersTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewers")
		}
		assigned := make(map[string]struct{}, len(current))
		for _, r := range current {
			assigned[r.UserID] = struct{}{}
		}
		added := make([]string, 0, len(req.ReviewerIDs))
		for _, id := range req.ReviewerIDs {
			id = strings.TrimSpace(id)
			if _, ok := assigned[id]; ok {
				continue
			}
			if err := s.checkReviewerCandidate(ctx, l.project, id, ""); err != nil {
				return err
			}
			assigned[id] = struct{}{}
			added = append(added, id)
		}
		if len(assigned) > models.MaxReviewers {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a project can have at most %d reviewers", models.MaxReviewers))
		}
		for _, id := range added {
			if err := s.projects.AddReviewer(ctx, l.tx, l.project.ID, id); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign reviewer")
			}
			l.audits = append(l.audits, reviewerAudit(actor, l.project.ID, id))
		}
		reviewers, err = s.projects.ListReviewersTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewers, nil
}

// SubmitEvaluation stores a reviewer's grade. The grade must match every earlier
// evaluation; once quorum is reached the project moves to PENDING_APPROVAL.
func (s *WorkflowService) SubmitEvaluation(ctx context.Context, projectID string, req dto.EvaluationRequest, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	grade := models.Grade(req.Grade)

	var progress models.ReviewProgress
	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if l.project.Status != models.StatusEvaluation {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "project is not under evaluation")
		}
		reviewers, err := s.projects.ListReviewersTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewers")
		}
		if !containsReviewer(reviewers, actor.UserID) {
			return appErrors.Clone(appErrors.ErrForbidden, "only assigned reviewers can evaluate")
		}
		existing, err := s.checks.ListEvaluationsTx(ctx, l.tx, l.project.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
		}
		if s.aggregator.HasEvaluated(existing, actor.UserID) {
			return appErrors.Clone(appErrors.ErrConflict, "you have already evaluated this project")
		}
		if err := s.aggregator.CheckGrade(existing, grade); err != nil {
			return err
		}

		reviewerCount := len(reviewers)
		otherID := optionalString(req.OtherReviewerID)
		if otherID != nil {
			if err := s.checkReviewerCandidate(ctx, l.project, *otherID, actor.UserID); err != nil {
				return err
			}
			if !containsReviewer(reviewers, *otherID) && reviewerCount < models.MaxReviewers {
				if err := s.projects.AddReviewer(ctx, l.tx, l.project.ID, *otherID); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign suggested reviewer")
				}
				reviewerCount++
				l.audits = append(l.audits, reviewerAudit(actor, l.project.ID, *otherID))
			}
		}

		evaluation := &models.Evaluation{
			ProjectID:       l.project.ID,
			UserID:          actor.UserID,
			Comment:         strings.TrimSpace(req.Comment),
			Grade:           grade,
			OtherReviewerID: otherID,
		}
		if err := s.checks.CreateEvaluation(ctx, l.tx, evaluation); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store evaluation")
		}

		submitted := len(existing) + 1
		progress = s.aggregator.Progress(reviewerCount, submitted)
		if progress.QuorumReady {
			return s.advance(ctx, l, models.StatusPendingApproval)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrGradeMismatch) {
			s.logger.Info("evaluation rejected on grade mismatch", zap.String("project_id", projectID), zap.String("actor_id", actor.UserID))
		}
		return nil, err
	}
	result := locked.result()
	result.Progress = &progress
	return result, nil
}

// Decide records the dean's decision and moves the project to APPROVED or DENIED.
func (s *WorkflowService) Decide(ctx context.Context, projectID string, req dto.DecisionRequest, actor *models.JWTClaims) (*dto.TransitionResult, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}
	target, err := models.ParseProjectStatus(req.Status)
	if err != nil || (target != models.StatusApproved && target != models.StatusDenied) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or DENIED")
	}

	locked, err := s.withProjectLock(ctx, projectID, actor, func(l *lockedProject) error {
		if err := s.advance(ctx, l, target); err != nil {
			return err
		}
		decision := &models.DeanDecision{
			ProjectID: l.project.ID,
			UserID:    actor.UserID,
			Status:    target,
			Comment:   strings.TrimSpace(req.Comment),
		}
		if err := s.checks.CreateDecision(ctx, l.tx, decision); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store decision")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked.result(), nil
}

// withProjectLock runs fn in a transaction holding the project's row lock. The
// transaction commits only when fn succeeds; side effects (cache, metrics, audit)
// happen after commit.
func (s *WorkflowService) withProjectLock(ctx context.Context, projectID string, actor *models.JWTClaims, fn func(l *lockedProject) error) (locked *lockedProject, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			s.metrics.RecordRejection(strings.ToLower(appErrors.FromError(err).Code))
		}
	}()

	project, err := s.projects.GetForUpdate(ctx, tx, projectID)
	if err != nil {
		return nil, translateLookup(err, "project not found", "failed to lock project")
	}

	locked = &lockedProject{tx: tx, project: project, initial: project.Status}
	if err = fn(locked); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}

	s.afterCommit(ctx, locked, actor)
	return locked, nil
}

// advance is the only path that writes a project status.
func (s *WorkflowService) advance(ctx context.Context, l *lockedProject, to models.ProjectStatus) error {
	from := l.project.Status
	if !models.CanTransition(from, to) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move project from %s to %s", from.Code(), to.Code()))
	}
	ok, err := s.projects.UpdateStatus(ctx, l.tx, l.project.ID, from, to)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project status")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrConflict, "project status changed concurrently")
	}
	l.project.Status = to
	l.changes = append(l.changes, statusChange{from: from, to: to})
	return nil
}

func (s *WorkflowService) afterCommit(ctx context.Context, l *lockedProject, actor *models.JWTClaims) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, projectCacheKey(l.project.ID))
	}
	for _, change := range l.changes {
		s.metrics.RecordTransition(change.from, change.to)
		s.logger.Info("project status changed",
			zap.String("project_id", l.project.ID),
			zap.String("from", change.from.Code()),
			zap.String("to", change.to.Code()),
			zap.String("actor_id", actor.UserID),
			zap.String("request_id", requestid.FromContext(ctx)),
		)
		s.emitAudit(ctx, transitionAudit(actor, l.project.ID, change))
	}
	for _, log := range l.audits {
		s.emitAudit(ctx, log)
	}
}

func (s *WorkflowService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "workflow-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// checkReviewerCandidate ensures id names an active teacher who is neither the
// student nor excluded (the evaluating reviewer suggesting a colleague).
func (s *WorkflowService) checkReviewerCandidate(ctx context.Context, project *models.Project, id, excluded string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "reviewer id is required")
	}
	if id == project.StudentID {
		return appErrors.Clone(appErrors.ErrValidation, "the student cannot review their own thesis")
	}
	if id == excluded {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot suggest yourself as another reviewer")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "reviewer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}
	if user.Role != models.RoleTeacher || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "reviewers must be active teachers")
	}
	return nil
}

func transitionAudit(actor *models.JWTClaims, projectID string, change statusChange) *models.AuditLog {
	userID := actor.UserID
	id := projectID
	return &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionStatusTransition,
		Resource:   models.AuditResourceProject,
		ResourceID: &id,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, change.from.Code())),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, change.to.Code())),
	}
}

func reviewerAudit(actor *models.JWTClaims, projectID, reviewerID string) *models.AuditLog {
	userID := actor.UserID
	id := projectID
	return &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionReviewerAssign,
		Resource:   models.AuditResourceProject,
		ResourceID: &id,
		NewValues:  []byte(fmt.Sprintf(`{"reviewer_id":%q}`, reviewerID)),
	}
}

func containsReviewer(reviewers []models.ProjectReviewer, userID string) bool {
	for _, r := range reviewers {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func requireRole(actor *models.JWTClaims, role models.UserRole) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("only %s users can perform this action", strings.ToLower(string(role))))
	}
	return nil
}

// translateLookup maps sql.ErrNoRows to a not found error and anything else to an internal error.
func translateLookup(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func optionalString(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
