package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/pkg/jobs"
)

type visitStore interface {
	Create(ctx context.Context, visit *models.DocumentVisit) error
}

// VisitRecorder appends document visits off the request path. When the queue is
// not running or full the visit is written inline so no view is lost.
type VisitRecorder struct {
	store   visitStore
	queue   *jobs.Queue[models.DocumentVisit]
	metrics *MetricsService
	logger  *zap.Logger
}

// NewVisitRecorder builds a recorder backed by a worker queue.
func NewVisitRecorder(store visitStore, metrics *MetricsService, cfg jobs.QueueConfig) *VisitRecorder {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := &VisitRecorder{store: store, metrics: metrics, logger: cfg.Logger}
	r.queue = jobs.NewQueue("document-visits", r.persist, cfg)
	return r
}

// Start launches the queue workers.
func (r *VisitRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains pending visits.
func (r *VisitRecorder) Stop() {
	r.queue.Stop()
}

// Record stores that userID viewed documentID at the given time.
func (r *VisitRecorder) Record(ctx context.Context, documentID, userID string, at time.Time) {
	if documentID == "" || userID == "" {
		return
	}
	visit := models.DocumentVisit{DocumentID: documentID, UserID: userID, VisitedAt: at.UTC()}
	err := r.queue.Enqueue(visit)
	if err == nil {
		return
	}
	r.logger.Debug("visit queue unavailable, writing inline", zap.Error(err))
	if err := r.store.Create(ctx, &visit); err != nil {
		r.metrics.RecordVisit("failed")
		r.logger.Warn("failed to record document visit", zap.String("document_id", documentID), zap.Error(err))
		return
	}
	r.metrics.RecordVisit("inline")
}

func (r *VisitRecorder) persist(ctx context.Context, visit models.DocumentVisit) error {
	if err := r.store.Create(ctx, &visit); err != nil {
		r.metrics.RecordVisit("failed")
		return err
	}
	r.metrics.RecordVisit("stored")
	return nil
}
