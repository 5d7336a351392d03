package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/config"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/observability"
	"github.com/RodrigoCastroMoura/trackerbot/internal/redis"
)

var ErrStoreUnavailable = errors.New("session store unavailable")

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// SessionRepository owns the canonical copy of every chat session.
// GetOrCreate hands out a clone; callers write it back with Save.
type SessionRepository interface {
	// GetOrCreate never fails. An expired or unknown phone yields a fresh
	// UNAUTHENTICATED session; a backend error yields a transient one.
	GetOrCreate(ctx context.Context, phone string) *model.Session
	// Get returns nil, nil when the phone has no live session.
	Get(ctx context.Context, phone string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Remove(ctx context.Context, phone string) error
	CleanupExpired(ctx context.Context) (int, error)
	Backend() string
}

type storeOptions struct {
	now           func() time.Time
	metrics       *observability.Metrics
	encryptionKey string
}

type SessionStoreOption func(*storeOptions)

func WithClock(now func() time.Time) SessionStoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

func WithMetrics(m *observability.Metrics) SessionStoreOption {
	return func(o *storeOptions) {
		o.metrics = m
	}
}

// WithEncryptionKey enables AES-256-GCM sealing of Redis records.
// The key is 64 hex characters. The memory backend ignores it.
func WithEncryptionKey(hexKey string) SessionStoreOption {
	return func(o *storeOptions) {
		o.encryptionKey = hexKey
	}
}

func newStoreOptions(opts []SessionStoreOption) storeOptions {
	o := storeOptions{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewSessionRepositoryFromConfig picks the backend named by SESSION_STORE.
// When Redis is selected but rdb is nil or does not answer, it logs and
// falls back to the memory backend instead of failing.
func NewSessionRepositoryFromConfig(cfg *config.Config, rdb *redis.Client, opts ...SessionStoreOption) SessionRepository {
	o := newStoreOptions(opts)
	timeout := cfg.SessionTimeout()

	if cfg.SessionStore == config.SessionStoreRedis {
		if cfg.SessionEncryptionKey != "" {
			opts = append(opts, WithEncryptionKey(cfg.SessionEncryptionKey))
		}

		if rdb == nil {
			log.Warn().Msg("redis session store requested but no redis client available, falling back to memory")
			o.metrics.StoreFallback("no_client")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
			defer cancel()

			repo, err := NewRedisSessionRepository(ctx, rdb, timeout, opts...)
			if err == nil {
				log.Info().Dur("timeout", timeout).Msg("using redis session store")
				return repo
			}
			log.Warn().Err(err).Msg("redis session store unavailable, falling back to memory")
			o.metrics.StoreFallback("construct")
		}
	}

	log.Info().Dur("timeout", timeout).Msg("using memory session store")
	return NewMemorySessionRepository(timeout, opts...)
}
