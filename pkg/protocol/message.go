package protocol

import (
	"github.com/google/uuid"
)

// Kind is the wire discriminator carried in the "type" field.
type Kind string

const (
	KindJoin       Kind = "Join"
	KindLeave      Kind = "Leave"
	KindChat       Kind = "Chat"
	KindVideoFrame Kind = "VideoFrame"
	KindUserList   Kind = "UserList"
	KindServerInfo Kind = "ServerInfo"
	KindError      Kind = "Error"
)

// Reliable reports whether messages of this kind use the reliable delivery
// lane. VideoFrame is the only best-effort kind.
func (k Kind) Reliable() bool {
	return k != KindVideoFrame
}

// Message is implemented by every wire message variant.
type Message interface {
	Kind() Kind
}

// Join announces a client entering the room. The id is the client's
// proposed identity; the relay rejects duplicates.
type Join struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

func (*Join) Kind() Kind { return KindJoin }

// Leave announces an explicit departure. A closed transport is treated
// identically by the relay.
type Leave struct {
	ID uuid.UUID `json:"id"`
}

func (*Leave) Kind() Kind { return KindLeave }

// Chat carries room-wide text. ID, Username and Timestamp are stamped by
// the relay on the way through; values supplied by clients are ignored.
type Chat struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
}

func (*Chat) Kind() Kind { return KindChat }

// VideoFrame carries one serialized ASCII frame. The payload is opaque to
// the relay and bounded by MaxFramePayload.
type VideoFrame struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Frame    []byte    `json:"frame"`
}

func (*VideoFrame) Kind() Kind { return KindVideoFrame }

// UserInfo is one entry of a UserList snapshot.
type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	JoinedAt int64     `json:"joined_at"`
}

// UserList is the authoritative membership snapshot, ordered by join time.
type UserList struct {
	Users []UserInfo `json:"users"`
}

func (*UserList) Kind() Kind { return KindUserList }

// ServerInfo tells a freshly joined client where it landed.
type ServerInfo struct {
	NgrokURL *string `json:"ngrok_url"`
	RoomName string  `json:"room_name"`
}

func (*ServerInfo) Kind() Kind { return KindServerInfo }

// Error is sent to a single client before its connection is closed, for
// example on a rejected join. It is never broadcast.
type Error struct {
	Message string `json:"message"`
}

func (*Error) Kind() Kind { return KindError }
