package server

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/termchat-dev/termchat/pkg/protocol"
)

// Registry is the authoritative map of connected identities. All mutation
// goes through Register and Unregister under a single mutex, so membership
// transitions are linearizable: the presence hooks fire under the same
// critical section that changed the map, which keeps every UserList
// snapshot consistent with the order of the mutations that produced it.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	// Presence hooks, invoked under mu with a consistent snapshot.
	onJoin  func(joined *Session, users []protocol.UserInfo, targets []*Session)
	onLeave func(left uuid.UUID, users []protocol.UserInfo, targets []*Session)

	totalCreated uint64
	peak         int

	logger  *slog.Logger
	metrics *Metrics
}

// RegistryStats is a point-in-time view of registry counters.
type RegistryStats struct {
	Active       int
	TotalCreated uint64
	Peak         int
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger, metrics *Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger.With("component", "registry"),
		metrics:  metrics,
	}
}

// OnJoin installs the hook fired after each successful Register. The hook
// runs under the registry lock and must only enqueue, never block.
func (r *Registry) OnJoin(fn func(joined *Session, users []protocol.UserInfo, targets []*Session)) {
	r.onJoin = fn
}

// OnLeave installs the hook fired after each effective Unregister. Same
// contract as OnJoin.
func (r *Registry) OnLeave(fn func(left uuid.UUID, users []protocol.UserInfo, targets []*Session)) {
	r.onLeave = fn
}

// Register adds a session and returns the membership snapshot that
// includes it, used to seed the new client. It fails with ErrDuplicateID
// if the id is taken and ErrInvalidUsername if the username is blank.
func (r *Registry) Register(s *Session) ([]protocol.UserInfo, error) {
	if strings.TrimSpace(s.Username) == "" {
		return nil, ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return nil, ErrDuplicateID
	}

	r.sessions[s.ID] = s
	r.totalCreated++
	if len(r.sessions) > r.peak {
		r.peak = len(r.sessions)
	}
	if r.metrics != nil {
		r.metrics.activeSessions.Set(float64(len(r.sessions)))
		r.metrics.sessionsTotal.Inc()
	}

	users := r.usersLocked()
	if r.onJoin != nil {
		r.onJoin(s, users, r.targetsLocked())
	}

	r.logger.Info("session registered",
		"session_id", s.ID,
		"username", s.Username,
		"active_sessions", len(r.sessions))

	return users, nil
}

// Unregister removes a session if present and reports whether it did
// anything. Absent ids are a no-op, not an error: disconnects race with
// explicit Leave messages and both paths call here. Exactly one caller
// observes true, so the departure is broadcast exactly once.
func (r *Registry) Unregister(id uuid.UUID) bool {
	r.mu.Lock()

	s, exists := r.sessions[id]
	if !exists {
		r.mu.Unlock()
		return false
	}

	delete(r.sessions, id)
	if r.metrics != nil {
		r.metrics.activeSessions.Set(float64(len(r.sessions)))
	}

	users := r.usersLocked()
	if r.onLeave != nil {
		r.onLeave(id, users, r.targetsLocked())
	}
	active := len(r.sessions)
	r.mu.Unlock()

	// Tear down outside the lock; Close is idempotent against the read
	// loop and router racing us here.
	s.Close()

	r.logger.Info("session unregistered",
		"session_id", id,
		"active_sessions", active)

	return true
}

// Lookup returns the session for an id.
func (r *Registry) Lookup(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Users returns the current membership snapshot, ordered by join time.
func (r *Registry) Users() []protocol.UserInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usersLocked()
}

// Sessions returns a snapshot of the current sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetsLocked()
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Stats returns registry counters.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{
		Active:       len(r.sessions),
		TotalCreated: r.totalCreated,
		Peak:         r.peak,
	}
}

// Shutdown closes every session and empties the registry without firing
// per-departure presence broadcasts.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.targetsLocked()
	r.sessions = make(map[uuid.UUID]*Session)
	if r.metrics != nil {
		r.metrics.activeSessions.Set(0)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (r *Registry) usersLocked() []protocol.UserInfo {
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID.String() < sessions[j].ID.String()
	})

	users := make([]protocol.UserInfo, 0, len(sessions))
	for _, s := range sessions {
		users = append(users, protocol.UserInfo{
			ID:       s.ID,
			Username: s.Username,
			JoinedAt: s.CreatedAt.Unix(),
		})
	}
	return users
}

func (r *Registry) targetsLocked() []*Session {
	targets := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		targets = append(targets, s)
	}
	return targets
}
