package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/termchat-dev/termchat/pkg/protocol"
)

const tracerName = "github.com/termchat-dev/termchat/pkg/server"

// Server accepts WebSocket connections, runs the join handshake, and hands
// live sessions to the registry. There is exactly one room: every joined
// session shares presence and chat with every other.
type Server struct {
	config   *Config
	registry *Registry
	router   *Router
	metrics  *Metrics

	upgrader   websocket.Upgrader
	httpServer *http.Server

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a relay server. A nil config uses DefaultConfig.
func New(config *Config) *Server {
	config = config.withDefaults()

	logger := slog.Default().With("component", "server")
	metrics := NewMetrics()
	registry := NewRegistry(logger, metrics)
	router := NewRouter(registry, metrics, logger)

	s := &Server{
		config:   config,
		registry: registry,
		router:   router,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}

	// Presence hooks run under the registry lock with a snapshot taken
	// there, so every receiver observes Join/Leave and the UserList that
	// reflects it in mutation order.
	registry.OnJoin(func(joined *Session, users []protocol.UserInfo, targets []*Session) {
		router.deliver(&protocol.Join{ID: joined.ID, Username: joined.Username}, targets, ScopeExcept(joined.ID))
		router.deliver(&protocol.UserList{Users: users}, targets, ScopeAll())
	})
	registry.OnLeave(func(left uuid.UUID, users []protocol.UserInfo, targets []*Session) {
		router.deliver(&protocol.Leave{ID: left}, targets, ScopeAll())
		router.deliver(&protocol.UserList{Users: users}, targets, ScopeAll())
	})

	return s
}

// Registry exposes the session registry, mainly for inspection.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the HTTP handler serving the WebSocket endpoint along
// with health and metrics routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// ListenAndServe runs the server until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Handler(),
	}

	s.logger.Info("relay listening",
		"addr", s.config.Addr,
		"room", s.config.RoomName)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and tears down every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// WebSocket connections are hijacked from the HTTP server, so they
	// have to be closed explicitly.
	s.registry.Shutdown()
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	go s.serveConn(conn, r.RemoteAddr)
}

// serveConn owns one transport connection from handshake to teardown.
func (s *Server) serveConn(conn *websocket.Conn, remote string) {
	_, span := s.tracer.Start(context.Background(), "termchat.session")
	defer span.End()

	sess, err := s.handshake(conn)
	if err != nil {
		recordSpanError(span, err)
		s.logger.Warn("handshake rejected", "remote", remote, "error", err)
		conn.Close()
		return
	}
	setSpanSession(span, sess)

	go sess.writeLoop()
	s.readLoop(sess)

	// Either loop ending means the session is over. Unregister is
	// idempotent with the explicit Leave path and broadcasts the fresh
	// UserList to everyone left.
	sess.Close()
	s.registry.Unregister(sess.ID)
}

// handshake expects exactly one Join within the handshake window. On any
// failure the connection is closed without touching the registry.
func (s *Server) handshake(conn *websocket.Conn) (*Session, error) {
	conn.SetReadLimit(s.config.ReadLimit)
	conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		s.countDecodeError(err)
		s.rejectConn(conn, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	join, ok := msg.(*protocol.Join)
	if !ok {
		s.rejectConn(conn, "expected Join")
		return nil, fmt.Errorf("%w: first message was %s", ErrHandshakeFailed, msg.Kind())
	}

	id := join.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	sess := newSession(conn, id, join.Username, s.config, s.logger)

	// Seed ServerInfo ahead of registration so it precedes the first
	// UserList in the new client's stream.
	info := &protocol.ServerInfo{RoomName: s.config.RoomName}
	if s.config.NgrokURL != "" {
		url := s.config.NgrokURL
		info.NgrokURL = &url
	}
	if data, err := protocol.Encode(info); err == nil {
		if err := sess.enqueueReliable(data); err != nil {
			sess.logger.Warn("failed to seed server info", "error", err)
		}
	}

	if _, err := s.registry.Register(sess); err != nil {
		s.rejectConn(conn, err.Error())
		return nil, &SessionError{SessionID: id, Op: "register", Err: err}
	}

	conn.SetReadDeadline(time.Time{})
	return sess, nil
}

// rejectSession sends a best-effort Error on a live session. The write
// goes through the session so it is serialized with the write loop, which
// may be draining broadcasts to the same connection.
func (s *Server) rejectSession(sess *Session, reason string) {
	data, err := protocol.Encode(&protocol.Error{Message: reason})
	if err != nil {
		return
	}
	sess.write(data)
}

// rejectConn sends a best-effort Error message directly; only valid during
// the handshake, before the session's loops are running.
func (s *Server) rejectConn(conn *websocket.Conn, reason string) {
	data, err := protocol.Encode(&protocol.Error{Message: reason})
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) countDecodeError(err error) {
	var de *protocol.DecodeError
	if errors.As(err, &de) {
		s.metrics.decodeErrors.WithLabelValues(de.Kind.String()).Inc()
	}
}

func (s *Server) chatScope(sender uuid.UUID) Scope {
	if s.config.EchoChat {
		return ScopeAll()
	}
	return ScopeExcept(sender)
}

func (s *Server) videoScope(sender uuid.UUID) Scope {
	if s.config.EchoOwnVideo {
		return ScopeAll()
	}
	return ScopeExcept(sender)
}
