package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/termchat-dev/termchat/pkg/protocol"
)

// readLoop decodes the session's inbound stream and dispatches each
// message. It returns when the transport closes, the client leaves, or the
// codec rejects a message; every return path leads to Unregister in
// serveConn, so failures stay local to this connection.
func (s *Server) readLoop(sess *Session) {
	conn := sess.conn

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !sess.closed.Load() && websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.logger.Error("read error", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.countDecodeError(err)
			sess.logger.Warn("closing on decode error", "error", err)
			s.rejectSession(sess, err.Error())
			return
		}

		switch m := msg.(type) {
		case *protocol.Chat:
			// The relay stamps identity and time; client-supplied values
			// are not trusted.
			s.router.Publish(&protocol.Chat{
				ID:        sess.ID,
				Username:  sess.Username,
				Text:      m.Text,
				Timestamp: time.Now().Unix(),
			}, s.chatScope(sess.ID))

		case *protocol.VideoFrame:
			s.router.Publish(&protocol.VideoFrame{
				ID:       sess.ID,
				Username: sess.Username,
				Frame:    m.Frame,
			}, s.videoScope(sess.ID))

		case *protocol.Leave:
			return

		default:
			sess.logger.Debug("ignoring client message", "kind", msg.Kind())
		}
	}
}
