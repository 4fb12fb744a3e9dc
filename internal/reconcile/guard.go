package reconcile

import "sync"

// Guard tracks which documents have a sync in flight. A second acquisition of
// the same key fails instead of blocking.
type Guard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]struct{})}
}

// TryAcquire marks key as in flight. When ok is false the key was already
// held and release is nil. Release is idempotent.
func (g *Guard) TryAcquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true
}

// Held reports whether key is currently in flight.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
