package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/RodrigoCastroMoura/trackerbot/internal/config"
	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
	"github.com/RodrigoCastroMoura/trackerbot/internal/redis"
	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

type redisSessionRepo struct {
	client  *redis.Client
	timeout time.Duration
	opts    storeOptions
}

// NewRedisSessionRepository probes the server with PING and fails if it
// does not answer, so callers can fall back to another backend.
func NewRedisSessionRepository(ctx context.Context, client *redis.Client, timeout time.Duration, opts ...SessionStoreOption) (SessionRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis session store: %w", ErrStoreUnavailable)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis session store: %w: %v", ErrStoreUnavailable, err)
	}

	return &redisSessionRepo{
		client:  client,
		timeout: timeout,
		opts:    newStoreOptions(opts),
	}, nil
}

func (r *redisSessionRepo) Backend() string {
	return BackendRedis
}

func (r *redisSessionRepo) key(phone string) string {
	return redis.SessionKey(config.SessionKeyPrefix, phone)
}

func (r *redisSessionRepo) GetOrCreate(ctx context.Context, phone string) *model.Session {
	now := r.opts.now()

	s, err := r.load(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			log.Error().Err(err).Str("phone", util.MaskPhone(phone)).Msg("session store unreachable, using transient session")
			r.opts.metrics.StoreFallback("runtime")
			s := model.NewSession(phone, now)
			s.MarkTransient()
			return s
		}
		log.Warn().Err(err).Str("phone", util.MaskPhone(phone)).Msg("discarding unreadable session record")
	}

	if s != nil && s.PhoneNumber == phone && !s.IsExpired(now, r.timeout) {
		s.Touch(now)
		return s
	}

	s = model.NewSession(phone, now)
	if err := r.Save(ctx, s); err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(phone)).Msg("failed to persist new session")
	}
	return s
}

func (r *redisSessionRepo) Get(ctx context.Context, phone string) (*model.Session, error) {
	s, err := r.load(ctx, phone)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, nil
	}
	if s == nil || s.IsExpired(r.opts.now(), r.timeout) {
		return nil, nil
	}
	return s, nil
}

// load returns nil, nil on a miss. Errors wrapping ErrStoreUnavailable mean
// the server could not be reached; any other error is an unreadable record.
func (r *redisSessionRepo) load(ctx context.Context, phone string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, r.key(phone)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.opts.metrics.StoreError("get")
		return nil, fmt.Errorf("get session: %w: %v", ErrStoreUnavailable, err)
	}

	if r.opts.encryptionKey != "" {
		raw, err = util.Decrypt(r.opts.encryptionKey, raw)
		if err != nil {
			return nil, fmt.Errorf("decrypt session: %w", err)
		}
	}

	return DecodeSession([]byte(raw))
}

func (r *redisSessionRepo) Save(ctx context.Context, session *model.Session) error {
	if session == nil || session.PhoneNumber == "" {
		return fmt.Errorf("save session: missing phone number")
	}
	if session.IsTransient() {
		log.Debug().Str("phone", util.MaskPhone(session.PhoneNumber)).Msg("skipping save of transient session")
		return nil
	}

	data, err := EncodeSession(session)
	if err != nil {
		return err
	}

	payload := string(data)
	if r.opts.encryptionKey != "" {
		payload, err = util.Encrypt(r.opts.encryptionKey, payload)
		if err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
	}

	if err := r.client.Set(ctx, r.key(session.PhoneNumber), payload, r.timeout).Err(); err != nil {
		r.opts.metrics.StoreError("save")
		return fmt.Errorf("save session: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *redisSessionRepo) Remove(ctx context.Context, phone string) error {
	if err := r.client.Del(ctx, r.key(phone)).Err(); err != nil {
		r.opts.metrics.StoreError("remove")
		return fmt.Errorf("remove session: %w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// CleanupExpired is a no-op: Redis expires records through their TTL.
func (r *redisSessionRepo) CleanupExpired(ctx context.Context) (int, error) {
	return 0, nil
}
