package service

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/egradu-api/internal/models"
)

type revisionStore interface {
	ListRevisions(ctx context.Context, projectID, viewerID string) ([]models.DocumentRevision, error)
	ListDocumentsTx(ctx context.Context, tx *sqlx.Tx, projectID string) ([]models.Document, error)
}

// RevisionTracker is the only place that decides which document is current:
// the most recently uploaded one.
type RevisionTracker struct {
	store revisionStore
}

// NewRevisionTracker constructs a tracker over the document store.
func NewRevisionTracker(store revisionStore) *RevisionTracker {
	return &RevisionTracker{store: store}
}

// CurrentView splits the project's documents into current and older revisions
// and flags those the viewer has not seen since their latest update.
func (t *RevisionTracker) CurrentView(ctx context.Context, projectID, viewerID string) (models.RevisionView, error) {
	revisions, err := t.store.ListRevisions(ctx, projectID, viewerID)
	if err != nil {
		return models.RevisionView{Older: []models.RevisionEntry{}}, err
	}
	return BuildRevisionView(revisions), nil
}

// CurrentDocumentTx returns the current document as seen inside tx, or nil when
// the project has no documents.
func (t *RevisionTracker) CurrentDocumentTx(ctx context.Context, tx *sqlx.Tx, projectID string) (*models.Document, error) {
	docs, err := t.store.ListDocumentsTx(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	revisions := make([]models.DocumentRevision, 0, len(docs))
	for _, d := range docs {
		revisions = append(revisions, models.DocumentRevision{Document: d})
	}
	view := BuildRevisionView(revisions)
	if view.Current == nil {
		return nil, nil
	}
	doc := view.Current.Document
	return &doc, nil
}

// BuildRevisionView orders revisions newest first (ties broken by id) and derives
// the unseen flag for each one.
func BuildRevisionView(revisions []models.DocumentRevision) models.RevisionView {
	ordered := make([]models.DocumentRevision, len(revisions))
	copy(ordered, revisions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Uploaded.Equal(ordered[j].Uploaded) {
			return ordered[i].Uploaded.After(ordered[j].Uploaded)
		}
		return ordered[i].ID > ordered[j].ID
	})

	view := models.RevisionView{Older: make([]models.RevisionEntry, 0, len(ordered))}
	for i, rev := range ordered {
		entry := models.RevisionEntry{
			Document:        rev.Document,
			LastVisit:       rev.LastVisit,
			HasUnseenUpdate: HasUnseenUpdate(rev.LatestUpdate, rev.LastVisit),
		}
		if i == 0 {
			view.Current = &entry
			continue
		}
		view.Older = append(view.Older, entry)
	}
	return view
}

// HasUnseenUpdate is true when the viewer never visited, or last visited strictly
// before the document's latest update.
func HasUnseenUpdate(latestUpdate time.Time, lastVisit *time.Time) bool {
	if lastVisit == nil {
		return true
	}
	return lastVisit.Before(latestUpdate)
}
