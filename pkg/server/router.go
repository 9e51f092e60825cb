package server

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/termchat-dev/termchat/pkg/protocol"
)

// Scope selects which sessions an outbound message is delivered to.
type Scope struct {
	all     bool
	exclude uuid.UUID
}

// ScopeAll targets every registered session.
func ScopeAll() Scope {
	return Scope{all: true}
}

// ScopeExcept targets every registered session except the given id,
// typically the sender.
func ScopeExcept(id uuid.UUID) Scope {
	return Scope{exclude: id}
}

func (sc Scope) includes(id uuid.UUID) bool {
	return sc.all || id != sc.exclude
}

// Router fans outbound messages to sessions, applying the per-kind
// delivery policy. It only ever enqueues: draining to the transport is the
// per-session write loop's job, so one slow reader cannot stall a Publish.
type Router struct {
	registry *Registry
	metrics  *Metrics
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, metrics *Metrics, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		metrics:  metrics,
		logger:   logger.With("component", "router"),
	}
}

// Publish delivers a message to the sessions selected by scope.
func (rt *Router) Publish(m protocol.Message, scope Scope) {
	rt.deliver(m, rt.registry.Sessions(), scope)
}

// deliver enqueues an encoded message to each in-scope target. Presence
// hooks call this directly with a snapshot taken under the registry lock,
// which is what makes UserList broadcasts causally follow the mutation
// that produced them.
func (rt *Router) deliver(m protocol.Message, targets []*Session, scope Scope) {
	data, err := protocol.Encode(m)
	if err != nil {
		rt.logger.Error("encode error", "kind", m.Kind(), "error", err)
		return
	}

	kind := m.Kind()
	sender := uuid.Nil
	if vf, ok := m.(*protocol.VideoFrame); ok {
		sender = vf.ID
	}

	for _, s := range targets {
		if !scope.includes(s.ID) {
			continue
		}

		if !kind.Reliable() {
			if s.enqueueVideo(sender, data) && rt.metrics != nil {
				rt.metrics.framesDropped.Inc()
			}
			continue
		}

		switch err := s.enqueueReliable(data); {
		case err == nil:
		case errors.Is(err, ErrBacklogExceeded):
			if rt.metrics != nil {
				rt.metrics.slowDisconnects.Inc()
			}
			rt.logger.Warn("disconnecting unresponsive session",
				"session_id", s.ID,
				"username", s.Username,
				"kind", kind)
			// Unregister synthesizes the departure broadcast. Run it off
			// this goroutine: deliver may be executing under the registry
			// lock when called from a presence hook.
			go rt.dropSession(s)
		case errors.Is(err, ErrSessionClosed):
			// Racing a disconnect; the registry cleanup will catch up.
		}
	}

	if rt.metrics != nil {
		rt.metrics.messagesRouted.WithLabelValues(string(kind)).Inc()
	}
}

func (rt *Router) dropSession(s *Session) {
	s.Close()
	rt.registry.Unregister(s.ID)
}
