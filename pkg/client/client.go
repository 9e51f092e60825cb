// Package client is a thin outbound client for the termchat relay. It
// handles dialing, the join handshake and the message pumps; rendering is
// left to the caller.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/termchat-dev/termchat/pkg/ascii"
	"github.com/termchat-dev/termchat/pkg/protocol"
)

// ErrClientClosed is returned by send methods after Close.
var ErrClientClosed = errors.New("client: closed")

// Config holds configuration for a relay client.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://127.0.0.1:8080/ws".
	URL string

	// Username is the display name announced in the Join message.
	Username string

	// ID is the client identity. uuid.Nil lets the relay assign one.
	ID uuid.UUID

	// HandshakeTimeout bounds the dial. Default: 10 seconds.
	HandshakeTimeout time.Duration

	// WriteTimeout is the per-message write deadline. Default: 10 seconds.
	WriteTimeout time.Duration

	// Logger receives connection events. Default: slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Client is one live connection to the relay. Inbound messages are
// delivered on Recv in arrival order; sends go through a pump so callers
// never block on the transport.
type Client struct {
	conn         *websocket.Conn
	id           uuid.UUID
	username     string
	writeTimeout time.Duration
	writeMu      sync.Mutex

	inbound  chan protocol.Message
	outbound chan protocol.Message

	gen     *ascii.Generator
	videoMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

// Dial connects to the relay and sends the Join message. The returned
// client's pumps are already running.
func Dial(ctx context.Context, config Config) (*Client, error) {
	config = config.withDefaults()

	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", config.URL, err)
	}

	c := &Client{
		conn:         conn,
		id:           config.ID,
		username:     config.Username,
		writeTimeout: config.WriteTimeout,
		inbound:      make(chan protocol.Message, 64),
		outbound:     make(chan protocol.Message, 64),
		done:         make(chan struct{}),
		logger:       config.Logger.With("component", "client", "username", config.Username),
	}

	join := &protocol.Join{ID: c.id, Username: c.username}
	if err := c.writeNow(join); err != nil {
		conn.Close()
		return nil, err
	}

	go c.readPump()
	go c.writePump()
	return c, nil
}

// ID returns the identity sent in the Join message. When the config left
// it nil the relay's assignment shows up in the first UserList instead.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// Recv returns the inbound message stream. The channel is closed when the
// connection ends.
func (c *Client) Recv() <-chan protocol.Message {
	return c.inbound
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendChat queues a chat message. The relay stamps identity and time.
func (c *Client) SendChat(text string) error {
	return c.send(&protocol.Chat{ID: c.id, Username: c.username, Text: text})
}

// SendFrame queues one serialized video frame.
func (c *Client) SendFrame(frame []byte) error {
	return c.send(&protocol.VideoFrame{ID: c.id, Username: c.username, Frame: frame})
}

// StartVideo runs a frame generator and publishes each produced frame
// until StopVideo or Close. Starting twice replaces the previous
// generator.
func (c *Client) StartVideo(width, height uint16, fps int) {
	c.videoMu.Lock()
	defer c.videoMu.Unlock()

	if c.gen != nil {
		c.gen.Stop()
	}
	gen := ascii.NewGenerator(width, height, fps)
	c.gen = gen

	go gen.Run()
	go func() {
		for {
			select {
			case <-c.done:
				gen.Stop()
				return
			case frame, ok := <-gen.Frames():
				if !ok {
					return
				}
				if err := c.SendFrame(frame.Marshal()); err != nil {
					return
				}
			}
		}
	}()
}

// StopVideo stops the frame generator, if one is running.
func (c *Client) StopVideo() {
	c.videoMu.Lock()
	defer c.videoMu.Unlock()
	if c.gen != nil {
		c.gen.Stop()
		c.gen = nil
	}
}

// Close announces the departure and tears the connection down. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.StopVideo()
		// Best effort; the relay also handles a bare transport close.
		c.writeNow(&protocol.Leave{ID: c.id})
		close(c.done)
		c.conn.Close()
	})
	return nil
}

func (c *Client) send(m protocol.Message) error {
	select {
	case <-c.done:
		return ErrClientClosed
	case c.outbound <- m:
		return nil
	}
}

// writeNow serializes writers: the pump and Close's parting Leave may
// race, and the transport allows one writer at a time.
func (c *Client) writeNow(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", m.Kind(), err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("client: write %s: %w", m.Kind(), err)
	}
	return nil
}

func (c *Client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case m := <-c.outbound:
			if err := c.writeNow(m); err != nil {
				c.logger.Error("send failed", "error", err)
				c.Close()
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer close(c.inbound)
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Info("connection closed", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("dropping undecodable message", "error", err)
			continue
		}

		select {
		case c.inbound <- msg:
		case <-c.done:
			return
		}
	}
}
