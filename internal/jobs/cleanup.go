package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/repository"
)

const cleanupTimeout = 30 * time.Second

// CleanupJob periodically evicts expired chat sessions. Lazy expiry in
// GetOrCreate already keeps reads correct; the sweep only bounds memory.
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	metrics     *observability.Metrics
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(sessionRepo repository.SessionRepository, metrics *observability.Metrics, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		metrics:     metrics,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().
		Dur("interval", j.interval).
		Str("backend", j.sessionRepo.Backend()).
		Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	count, err := j.sessionRepo.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to cleanup expired sessions")
		return
	}
	if count > 0 {
		j.metrics.Evicted(count)
		log.Info().Int("count", count).Msg("cleaned up expired sessions")
	}
}
