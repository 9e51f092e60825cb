package server

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session is the server-side record of one connected, joined client. It is
// created by the acceptor after a valid Join and owned by the Registry; the
// router only ever appends to its outbound lanes.
//
// Outbound traffic is split across two lanes with different policies:
// a reliable lane (chat, presence) that disconnects the session when it
// stops draining, and a small latest-wins video lane that sheds the oldest
// pending frame per sender instead of backing up.
type Session struct {
	ID        uuid.UUID
	Username  string
	CreatedAt time.Time

	conn         *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex

	events    chan []byte
	video     *videoQueue
	videoWake chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	logger *slog.Logger
}

func newSession(conn *websocket.Conn, id uuid.UUID, username string, config *Config, logger *slog.Logger) *Session {
	return &Session{
		ID:           id,
		Username:     username,
		CreatedAt:    time.Now(),
		conn:         conn,
		writeTimeout: config.WriteTimeout,
		events:       make(chan []byte, config.EventQueueSize),
		video:        newVideoQueue(config.VideoQueueSize),
		videoWake:    make(chan struct{}, 1),
		done:         make(chan struct{}),
		logger:       logger.With("session_id", id, "username", username),
	}
}

// enqueueReliable appends an encoded message to the reliable lane. It never
// blocks: a full lane means the reader is not draining, and the caller is
// expected to disconnect the session on ErrBacklogExceeded.
func (s *Session) enqueueReliable(data []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.events <- data:
		return nil
	default:
		return ErrBacklogExceeded
	}
}

// enqueueVideo appends an encoded frame to the video lane, evicting the
// oldest pending frame from the same sender on overflow. It reports whether
// a frame was dropped.
func (s *Session) enqueueVideo(sender uuid.UUID, data []byte) bool {
	if s.closed.Load() {
		return false
	}
	dropped := s.video.push(sender, data)
	select {
	case s.videoWake <- struct{}{}:
	default:
	}
	return dropped
}

// writeLoop drains both outbound lanes to the transport. Reliable messages
// take priority; video is written only when no reliable traffic is pending,
// so a burst of frames can never starve chat for this receiver.
func (s *Session) writeLoop() {
	defer s.conn.Close()

	for {
		select {
		case <-s.done:
			return

		case data := <-s.events:
			if !s.write(data) {
				return
			}

		case <-s.videoWake:
			for {
				select {
				case data := <-s.events:
					if !s.write(data) {
						return
					}
					continue
				default:
				}
				break
			}

			frame, ok := s.video.pop()
			if !ok {
				continue
			}
			if !s.write(frame) {
				return
			}
			if !s.video.empty() {
				select {
				case s.videoWake <- struct{}{}:
				default:
				}
			}
		}
	}
}

// write puts one message on the transport. Serialized with writeMu: the
// write loop is the usual writer, but the read loop writes a final Error
// directly when it rejects a message, and the transport allows only one
// writer at a time.
func (s *Session) write(data []byte) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		if !s.closed.Load() {
			s.logger.Error("write error", "error", err)
		}
		return false
	}
	return true
}

// Close terminates the session's loops and transport. Idempotent; racing
// calls from the read loop, the router and the registry are all safe.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// videoQueue is the bounded latest-wins lane. Producers are router
// goroutines, the consumer is the session's write loop.
type videoQueue struct {
	mu       sync.Mutex
	capacity int
	entries  []videoEntry
}

type videoEntry struct {
	sender uuid.UUID
	data   []byte
}

func newVideoQueue(capacity int) *videoQueue {
	return &videoQueue{capacity: capacity}
}

// push enqueues a frame. At capacity it evicts the oldest pending frame
// from the same sender, or the globally oldest if that sender has none
// pending, and reports that a frame was dropped.
func (q *videoQueue) push(sender uuid.UUID, data []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := false
	if len(q.entries) >= q.capacity {
		evict := 0
		for i, e := range q.entries {
			if e.sender == sender {
				evict = i
				break
			}
		}
		q.entries = append(q.entries[:evict], q.entries[evict+1:]...)
		dropped = true
	}
	q.entries = append(q.entries, videoEntry{sender: sender, data: data})
	return dropped
}

func (q *videoQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil, false
	}
	data := q.entries[0].data
	q.entries = q.entries[1:]
	return data, true
}

func (q *videoQueue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) == 0
}

func (q *videoQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
