package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	appErrors "github.com/noah-isme/egradu-api/pkg/errors"
)

type projectStore interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	FindByStudent(ctx context.Context, studentID string) (*models.Project, error)
	ListReviewers(ctx context.Context, projectID string) ([]models.ProjectReviewer, error)
	ListSupervised(ctx context.Context, teacherID string) ([]models.ProjectSummary, error)
	ListByStatus(ctx context.Context, status models.ProjectStatus) ([]models.ProjectSummary, error)
	ListAwaitingReview(ctx context.Context, teacherID string) ([]models.ProjectSummary, error)
}

type projectCheckReader interface {
	ListLanguageChecks(ctx context.Context, projectID string) ([]models.LanguageCheck, error)
	ListPlagiarismChecks(ctx context.Context, projectID string) ([]models.PlagiarismCheck, error)
	ListEvaluations(ctx context.Context, projectID string) ([]models.Evaluation, error)
	FindDecision(ctx context.Context, projectID string) (*models.DeanDecision, error)
}

type teacherDirectory interface {
	ListActiveTeachers(ctx context.Context) ([]models.UserRef, error)
}

const supervisorsCacheKey = "supervisors"

type revisionViewer interface {
	CurrentView(ctx context.Context, projectID, viewerID string) (models.RevisionView, error)
}

// projectSnapshot is the viewer independent part of an overview. It is what the
// project cache stores; revision flags are computed per viewer on every read.
type projectSnapshot struct {
	Project          models.Project           `json:"project"`
	Student          models.UserRef           `json:"student"`
	Supervisor       models.UserRef           `json:"supervisor"`
	Reviewers        []models.ProjectReviewer `json:"reviewers"`
	LanguageChecks   []models.LanguageCheck   `json:"languageChecks"`
	PlagiarismChecks []models.PlagiarismCheck `json:"plagiarismChecks"`
	Evaluations      []models.Evaluation      `json:"evaluations"`
	Decision         *models.DeanDecision     `json:"decision,omitempty"`
}

// ProjectService creates projects and composes the read side: overviews and dashboards.
type ProjectService struct {
	projects   projectStore
	checks     projectCheckReader
	users      userReader
	directory  teacherDirectory
	revisions  revisionViewer
	aggregator *ReviewAggregator
	cache      *CacheService
	audit      auditLogger
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
	cacheTTL   time.Duration
}

// ProjectServiceParams groups constructor dependencies.
type ProjectServiceParams struct {
	Projects   projectStore
	Checks     projectCheckReader
	Users      userReader
	Directory  teacherDirectory
	Revisions  revisionViewer
	Aggregator *ReviewAggregator
	Cache      *CacheService
	Audit      auditLogger
	Validator  *validator.Validate
	Logger     *zap.Logger
	CacheTTL   time.Duration
}

// NewProjectService constructs a ProjectService.
func NewProjectService(params ProjectServiceParams) *ProjectService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Aggregator == nil {
		params.Aggregator = NewReviewAggregator()
	}
	return &ProjectService{
		projects:   params.Projects,
		checks:     params.Checks,
		users:      params.Users,
		directory:  params.Directory,
		revisions:  params.Revisions,
		aggregator: params.Aggregator,
		cache:      params.Cache,
		audit:      params.Audit,
		validator:  params.Validator,
		logger:     params.Logger,
		now:        func() time.Time { return time.Now().UTC() },
		cacheTTL:   params.CacheTTL,
	}
}

// Create opens a project for the calling student. A student holds at most one project.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest, actor *models.JWTClaims) (*models.Project, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.SupervisorID = strings.TrimSpace(req.SupervisorID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}

	existing, err := s.projects.FindByStudent(ctx, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a project")
	}

	if req.SupervisorID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "you cannot supervise your own thesis")
	}
	supervisor, err := s.users.FindByID(ctx, req.SupervisorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "supervisor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervisor")
	}
	if supervisor.Role != models.RoleTeacher || !supervisor.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "supervisor must be an active teacher")
	}

	project := &models.Project{Title: req.Title, StudentID: actor.UserID, SupervisorID: supervisor.ID}
	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a project")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}

	s.logger.Info("project created", zap.String("project_id", project.ID), zap.String("student_id", actor.UserID))
	if s.audit != nil {
		userID := actor.UserID
		projectID := project.ID
		log := &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionProjectCreate,
			Resource:   models.AuditResourceProject,
			ResourceID: &projectID,
			IPAddress:  "system",
			UserAgent:  "project-service",
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	return project, nil
}

// Overview returns the project page for actor. Students may only read their own project.
func (s *ProjectService) Overview(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.ProjectOverview, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	snap, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && !snap.Project.IsOwner(actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only view your own project")
	}

	revisions, err := s.revisions.CurrentView(ctx, projectID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load documents")
	}

	next := snap.Project.Status.Successors()
	allowed := make([]dto.StatusOption, 0, len(next))
	for _, st := range next {
		allowed = append(allowed, dto.StatusOption{Status: st, Label: st.Label()})
	}

	return &dto.ProjectOverview{
		Project:          snap.Project,
		StatusLabel:      snap.Project.Status.Label(),
		AllowedNext:      allowed,
		Student:          snap.Student,
		Supervisor:       snap.Supervisor,
		Reviewers:        snap.Reviewers,
		Revisions:        revisions,
		LanguageChecks:   snap.LanguageChecks,
		PlagiarismChecks: snap.PlagiarismChecks,
		Evaluations:      snap.Evaluations,
		Progress:         s.aggregator.Progress(len(snap.Reviewers), len(snap.Evaluations)),
		Decision:         snap.Decision,
	}, nil
}

// Supervisors lists the active teachers a project can be supervised or reviewed by.
func (s *ProjectService) Supervisors(ctx context.Context, actor *models.JWTClaims) ([]models.UserRef, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if s.cache != nil {
		var cached []models.UserRef
		if hit, err := s.cache.Get(ctx, supervisorsCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}
	teachers, err := s.directory.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, supervisorsCacheKey, teachers, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache supervisors", zap.Error(err))
		}
	}
	return teachers, nil
}

// StudentDashboard returns the calling student's project, or an empty dashboard before one exists.
func (s *ProjectService) StudentDashboard(ctx context.Context, actor *models.JWTClaims) (*dto.StudentDashboard, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	project, err := s.projects.FindByStudent(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.StudentDashboard{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	overview, err := s.Overview(ctx, project.ID, actor)
	if err != nil {
		return nil, err
	}
	return &dto.StudentDashboard{Project: overview}, nil
}

// TeacherQueue lists what is waiting on the calling teacher. PendingPlagiarism holds
// every project waiting for an imported plagiarism result.
func (s *ProjectService) TeacherQueue(ctx context.Context, actor *models.JWTClaims) (*dto.TeacherQueue, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	supervised, err := s.projects.ListSupervised(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supervised projects")
	}
	plagiarism, err := s.projects.ListByStatus(ctx, models.StatusPlagiarismOngoing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plagiarism queue")
	}
	reviews, err := s.projects.ListAwaitingReview(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review queue")
	}
	return &dto.TeacherQueue{
		Supervised:        supervised,
		PendingPlagiarism: plagiarism,
		AwaitingReview:    reviews,
		GeneratedAt:       s.now(),
	}, nil
}

func (s *ProjectService) snapshot(ctx context.Context, projectID string) (*projectSnapshot, error) {
	key := projectCacheKey(projectID)
	if s.cache != nil {
		var cached projectSnapshot
		hit, err := s.cache.Get(ctx, key, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	snap, err := s.composeSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, snap, s.cacheTTL); err != nil {
			s.logger.Warn("project cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return snap, nil
}

func (s *ProjectService) composeSnapshot(ctx context.Context, projectID string) (*projectSnapshot, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, translateLookup(err, "project not found", "failed to load project")
	}
	student, err := s.userRef(ctx, project.StudentID)
	if err != nil {
		return nil, err
	}
	supervisor, err := s.userRef(ctx, project.SupervisorID)
	if err != nil {
		return nil, err
	}
	reviewers, err := s.projects.ListReviewers(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewers")
	}
	language, err := s.checks.ListLanguageChecks(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load language checks")
	}
	plagiarism, err := s.checks.ListPlagiarismChecks(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plagiarism checks")
	}
	evaluations, err := s.checks.ListEvaluations(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}
	decision, err := s.checks.FindDecision(ctx, projectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load decision")
	}

	return &projectSnapshot{
		Project:          *project,
		Student:          student,
		Supervisor:       supervisor,
		Reviewers:        reviewers,
		LanguageChecks:   language,
		PlagiarismChecks: plagiarism,
		Evaluations:      evaluations,
		Decision:         decision,
	}, nil
}

func (s *ProjectService) userRef(ctx context.Context, id string) (models.UserRef, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.UserRef{}, translateLookup(err, "user not found", "failed to load user")
	}
	return models.UserRef{ID: user.ID, FullName: user.FullName, Email: user.Email}, nil
}
