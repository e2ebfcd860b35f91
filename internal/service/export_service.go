package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egradu-api/internal/dto"
	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/pkg/export"
)

type overviewProvider interface {
	Overview(ctx context.Context, projectID string, actor *models.JWTClaims) (*dto.ProjectOverview, error)
	TeacherQueue(ctx context.Context, actor *models.JWTClaims) (*dto.TeacherQueue, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type csvRenderer interface {
	Render(t export.Table) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// ExportService renders review statements and the teacher queue for download.
type ExportService struct {
	overviews overviewProvider
	pdf       pdfRenderer
	csv       csvRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(overviews overviewProvider, pdf pdfRenderer, csv csvRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ExportService{overviews: overviews, pdf: pdf, csv: csv, logger: logger}
}

// Statement renders the review statement of a project as PDF.
func (s *ExportService) Statement(ctx context.Context, projectID string, actor *models.JWTClaims) (*ExportFile, error) {
	if err := requireRole(actor, models.RoleTeacher); err != nil {
		return nil, err
	}
	overview, err := s.overviews.Overview(ctx, projectID, actor)
	if err != nil {
		return nil, err
	}

	body, err := s.pdf.Render(statementDocument(overview))
	if err != nil {
		s.logger.Error("failed to render statement", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return &ExportFile{
		Name:        fmt.Sprintf("statement_%s.pdf", sanitizeFilename(overview.Project.Title)),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

// QueueCSV renders the calling teacher's queue as one CSV table.
func (s *ExportService) QueueCSV(ctx context.Context, actor *models.JWTClaims) (*ExportFile, error) {
	queue, err := s.overviews.TeacherQueue(ctx, actor)
	if err != nil {
		return nil, err
	}
	table := export.Table{Headers: []string{"Queue", "Project", "Title", "Student", "Supervisor", "Status", "Latest update"}}
	appendRows := func(section string, items []models.ProjectSummary) {
		for _, p := range items {
			latest := ""
			if p.LatestUpdate != nil {
				latest = p.LatestUpdate.UTC().Format(time.RFC3339)
			}
			table.Rows = append(table.Rows, []string{section, p.ID, p.Title, p.StudentName, p.SupervisorName, p.Status.Code(), latest})
		}
	}
	appendRows("supervised", queue.Supervised)
	appendRows("plagiarism", queue.PendingPlagiarism)
	appendRows("review", queue.AwaitingReview)

	body, err := s.csv.Render(table)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Name:        fmt.Sprintf("queue_%s.csv", queue.GeneratedAt.Format("20060102_150405")),
		ContentType: "text/csv",
		Body:        body,
	}, nil
}

func statementDocument(o *dto.ProjectOverview) export.Document {
	reviewers := make([]string, 0, len(o.Reviewers))
	for _, r := range o.Reviewers {
		reviewers = append(reviewers, r.FullName)
	}
	finalVersion := "-"
	if o.Project.FinalVersionID != nil {
		finalVersion = *o.Project.FinalVersionID
		if o.Revisions.Current != nil && o.Revisions.Current.ID == finalVersion {
			finalVersion = o.Revisions.Current.FileName
		}
	}
	fields := []export.Field{
		{Label: "Title", Value: o.Project.Title},
		{Label: "Student", Value: o.Student.FullName},
		{Label: "Supervisor", Value: o.Supervisor.FullName},
		{Label: "Status", Value: o.StatusLabel},
		{Label: "Final version", Value: finalVersion},
		{Label: "Reviewers", Value: orDash(strings.Join(reviewers, ", "))},
		{Label: "Evaluations", Value: fmt.Sprintf("%d of %d", o.Progress.Submitted, o.Progress.Required)},
	}
	if o.Decision != nil {
		fields = append(fields, export.Field{Label: "Decision", Value: o.Decision.Status.Label() + " " + formatDate(o.Decision.CreatedAt)})
	}

	language := export.Table{Title: "Language checks", Headers: []string{"Checker", "Grade", "Comment", "Date"}, Widths: []float64{40, 30, 80, 30}}
	for _, c := range o.LanguageChecks {
		language.Rows = append(language.Rows, []string{c.UserName, c.Grade.Label(), c.Comment, formatDate(c.CreatedAt)})
	}
	plagiarism := export.Table{Title: "Plagiarism checks", Headers: []string{"Checker", "Result", "Comment", "Date"}, Widths: []float64{40, 30, 80, 30}}
	for _, c := range o.PlagiarismChecks {
		plagiarism.Rows = append(plagiarism.Rows, []string{c.UserName, plagiarismResult(c.Approved), c.Comment, formatDate(c.CreatedAt)})
	}
	evaluations := export.Table{Title: "Evaluations", Headers: []string{"Reviewer", "Grade", "Comment", "Date"}, Widths: []float64{40, 30, 80, 30}}
	for _, e := range o.Evaluations {
		evaluations.Rows = append(evaluations.Rows, []string{e.UserName, e.Grade.Label(), e.Comment, formatDate(e.CreatedAt)})
	}

	return export.Document{
		Title:  "Thesis review statement",
		Fields: fields,
		Tables: []export.Table{language, plagiarism, evaluations},
	}
}

func plagiarismResult(approved *bool) string {
	switch {
	case approved == nil:
		return "Undecided"
	case *approved:
		return "Approved"
	default:
		return "Rejected"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "project"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
