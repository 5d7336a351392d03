package service

import (
	"sync"
	"time"
)

const (
	localMaxEntries      = 10000
	localCleanupInterval = time.Minute
	localEntryTTL        = 5 * time.Minute
)

type windowEntry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// localWindow is an in-process sliding window keyed by string.
type localWindow struct {
	mu          sync.Mutex
	store       map[string]*windowEntry
	window      time.Duration
	now         func() time.Time
	lastCleanup time.Time
}

func newLocalWindow(window time.Duration, now func() time.Time) *localWindow {
	return &localWindow{
		store:       make(map[string]*windowEntry),
		window:      window,
		now:         now,
		lastCleanup: now(),
	}
}

func (lw *localWindow) cleanup(now time.Time) {
	if now.Sub(lw.lastCleanup) < localCleanupInterval {
		return
	}
	lw.lastCleanup = now

	for key, entry := range lw.store {
		if now.Sub(entry.lastAccess) > localEntryTTL {
			delete(lw.store, key)
		}
	}

	if len(lw.store) > localMaxEntries {
		drop := len(lw.store) / 5
		for key := range lw.store {
			if drop == 0 {
				break
			}
			delete(lw.store, key)
			drop--
		}
	}
}

func (lw *localWindow) check(key string, limit int) (bool, time.Time) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	now := lw.now()
	lw.cleanup(now)

	entry, ok := lw.store[key]
	if !ok {
		entry = &windowEntry{}
		lw.store[key] = entry
	}
	entry.lastAccess = now

	windowStart := now.Add(-lw.window)
	filtered := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(windowStart) {
			filtered = append(filtered, ts)
		}
	}
	entry.timestamps = filtered

	if len(entry.timestamps) >= limit {
		return false, entry.timestamps[0].Add(lw.window)
	}

	entry.timestamps = append(entry.timestamps, now)
	return true, entry.timestamps[0].Add(lw.window)
}

func (lw *localWindow) size() int {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return len(lw.store)
}
