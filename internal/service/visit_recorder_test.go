package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egradu-api/internal/models"
	"github.com/noah-isme/egradu-api/pkg/jobs"
)

type visitStoreStub struct {
	mu     sync.Mutex
	visits []models.DocumentVisit
	err    error
	stored chan struct{}
}

func (s *visitStoreStub) Create(ctx context.Context, visit *models.DocumentVisit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.visits = append(s.visits, *visit)
	if s.stored != nil {
		s.stored <- struct{}{}
	}
	return nil
}

func (s *visitStoreStub) all() []models.DocumentVisit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DocumentVisit(nil), s.visits...)
}

func TestVisitRecorderQueuesVisits(t *testing.T) {
	store := &visitStoreStub{stored: make(chan struct{}, 1)}
	metrics := NewMetricsService()
	recorder := NewVisitRecorder(store, metrics, jobs.QueueConfig{Workers: 1})
	recorder.Start(context.Background())
	defer recorder.Stop()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	recorder.Record(context.Background(), "d1", "u1", at)

	select {
	case <-store.stored:
	case <-time.After(2 * time.Second):
		t.Fatal("visit was not stored")
	}
	visits := store.all()
	require.Len(t, visits, 1)
	assert.Equal(t, "d1", visits[0].DocumentID)
	assert.Equal(t, at, visits[0].VisitedAt)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.visits.WithLabelValues("stored")) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestVisitRecorderWritesInlineWhenStopped(t *testing.T) {
	store := &visitStoreStub{}
	metrics := NewMetricsService()
	recorder := NewVisitRecorder(store, metrics, jobs.QueueConfig{})

	recorder.Record(context.Background(), "d1", "u1", time.Now())
	assert.Len(t, store.all(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.visits.WithLabelValues("inline")))

	recorder.Record(context.Background(), "", "u1", time.Now())
	assert.Len(t, store.all(), 1)

	store.err = errors.New("db down")
	recorder.Record(context.Background(), "d1", "u1", time.Now())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.visits.WithLabelValues("failed")))
}
