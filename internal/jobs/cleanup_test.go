package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
)

type mockSessionRepo struct {
	evicted int
	err     error
	calls   atomic.Int32
}

func (m *mockSessionRepo) GetOrCreate(ctx context.Context, phone string) *model.Session {
	return model.NewSession(phone, time.Now())
}

func (m *mockSessionRepo) Get(ctx context.Context, phone string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) Save(ctx context.Context, session *model.Session) error {
	return nil
}

func (m *mockSessionRepo) Remove(ctx context.Context, phone string) error {
	return nil
}

func (m *mockSessionRepo) CleanupExpired(ctx context.Context) (int, error) {
	m.calls.Add(1)
	return m.evicted, m.err
}

func (m *mockSessionRepo) Backend() string {
	return repository.BackendMemory
}

func TestCleanupJob_StartStop(t *testing.T) {
	repo := &mockSessionRepo{evicted: 2}
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	job := NewCleanupJob(repo, metrics, 10*time.Millisecond)
	job.Start()

	assert.Eventually(t, func() bool {
		return repo.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	job.Stop()

	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.SessionsEvicted), 6.0)
}

func TestCleanupJob_Cleanup(t *testing.T) {
	t.Run("records evictions", func(t *testing.T) {
		repo := &mockSessionRepo{evicted: 5}
		metrics := observability.NewMetrics("test", prometheus.NewRegistry())

		job := NewCleanupJob(repo, metrics, time.Hour)
		job.cleanup()

		assert.Equal(t, int32(1), repo.calls.Load())
		assert.Equal(t, 5.0, testutil.ToFloat64(metrics.SessionsEvicted))
	})

	t.Run("survives store errors", func(t *testing.T) {
		repo := &mockSessionRepo{err: errors.New("boom")}

		job := NewCleanupJob(repo, nil, time.Hour)
		assert.NotPanics(t, job.cleanup)
	})

	t.Run("works with the memory store", func(t *testing.T) {
		now := time.Now()
		clock := func() time.Time { return now }
		repo := repository.NewMemorySessionRepository(time.Minute, repository.WithClock(clock))
		repo.GetOrCreate(context.Background(), "5511000000001")

		now = now.Add(2 * time.Minute)

		job := NewCleanupJob(repo, nil, time.Hour)
		job.cleanup()

		remaining, err := repo.CleanupExpired(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 0, remaining)
	})
}
