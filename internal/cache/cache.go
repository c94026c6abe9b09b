package cache

import "time"

// Cache is the read/write surface handlers depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that support bulk expiry cleanup.
type Cleaner interface {
	CleanExpired() int
}

// Flusher is implemented by caches that can be invalidated wholesale, e.g.
// after a warehouse refresh.
type Flusher interface {
	Clear()
}

// Manager owns the lifecycle of a set of caches: periodic expiry cleanup
// plus explicit whole-set invalidation.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// FlushAll clears every registered cache that supports it.
func (m *Manager) FlushAll() {
	for _, c := range m.caches {
		if f, ok := c.(Flusher); ok {
			f.Clear()
		}
	}
}

// StartCleanup begins periodic expiry cleanup in the background.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanupLoop(interval)
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				c.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop halts the cleanup loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
