package http

import (
	"sync"
	"time"

	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/session"
)

// Registry holds the live sessions of the HTTP API in memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	newFn    func(opts ...session.Option) *session.Session
	now      func() time.Time
	hub      *Broadcaster
}

// RegistryOption configures a [Registry].
type RegistryOption func(*Registry)

// WithSessionFactory replaces how new sessions are built. fn must pass opts
// on to session.New so that snapshots reach stream subscribers.
func WithSessionFactory(fn func(opts ...session.Option) *session.Session) RegistryOption {
	return func(r *Registry) { r.newFn = fn }
}

// WithRegistryClock replaces time.Now when sweeping.
func WithRegistryClock(fn func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = fn }
}

// NewRegistry creates an empty [Registry] whose sessions use analyzer.
func NewRegistry(analyzer tranquility.Analyzer, opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*session.Session),
		newFn: func(opts ...session.Option) *session.Session {
			return session.New(analyzer, opts...)
		},
		now: time.Now,
		hub: NewBroadcaster(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create starts a new session.
func (r *Registry) Create() *session.Session {
	s := r.newFn(session.WithObserver(r.hub.Publish))
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete closes and forgets the session with id.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}

// Subscribe streams snapshots of the session with id. See
// [Broadcaster.Subscribe].
func (r *Registry) Subscribe(id string) (<-chan session.Snapshot, func()) {
	return r.hub.Subscribe(id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than ttl and returns how many were
// removed. Sessions with a request in flight are kept.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	var stale []*session.Session

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.State() != session.StateSending && s.UpdatedAt().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// CloseAll closes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*session.Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
