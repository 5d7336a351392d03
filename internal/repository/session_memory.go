package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RodrigoCastroMoura/trackerbot/internal/model"
)

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	timeout  time.Duration
	opts     storeOptions
}

func NewMemorySessionRepository(timeout time.Duration, opts ...SessionStoreOption) SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]*model.Session),
		timeout:  timeout,
		opts:     newStoreOptions(opts),
	}
}

func (r *memorySessionRepo) Backend() string {
	return BackendMemory
}

func (r *memorySessionRepo) GetOrCreate(ctx context.Context, phone string) *model.Session {
	now := r.opts.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[phone]; ok && !s.IsExpired(now, r.timeout) {
		s.Touch(now)
		return s.Clone()
	}

	s := model.NewSession(phone, now)
	r.sessions[phone] = s
	return s.Clone()
}

func (r *memorySessionRepo) Get(ctx context.Context, phone string) (*model.Session, error) {
	now := r.opts.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[phone]
	if !ok || s.IsExpired(now, r.timeout) {
		return nil, nil
	}
	return s.Clone(), nil
}

func (r *memorySessionRepo) Save(ctx context.Context, session *model.Session) error {
	if session == nil || session.PhoneNumber == "" {
		return fmt.Errorf("save session: missing phone number")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.PhoneNumber] = session.Clone()
	return nil
}

func (r *memorySessionRepo) Remove(ctx context.Context, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, phone)
	return nil
}

func (r *memorySessionRepo) CleanupExpired(ctx context.Context) (int, error) {
	now := r.opts.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for phone, s := range r.sessions {
		if s.IsExpired(now, r.timeout) {
			delete(r.sessions, phone)
			evicted++
		}
	}
	return evicted, nil
}
