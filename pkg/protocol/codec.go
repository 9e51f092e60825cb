package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a message to its JSON wire form. The output is a pure
// function of the message's fields. The embedded-struct wrappers splice the
// "type" tag in front of each variant's own fields.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case *Join:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Join
		}{KindJoin, v})
	case *Leave:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Leave
		}{KindLeave, v})
	case *Chat:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Chat
		}{KindChat, v})
	case *VideoFrame:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*VideoFrame
		}{KindVideoFrame, v})
	case *UserList:
		if v.Users == nil {
			// Keep "users" an array on the wire even for an empty room.
			v = &UserList{Users: []UserInfo{}}
		}
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*UserList
		}{KindUserList, v})
	case *ServerInfo:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*ServerInfo
		}{KindServerInfo, v})
	case *Error:
		return json.Marshal(struct {
			Type Kind `json:"type"`
			*Error
		}{KindError, v})
	default:
		return nil, fmt.Errorf("protocol: cannot encode %T", m)
	}
}

// Decode parses one wire message. It rejects oversized input, unknown
// variant tags, missing required fields and malformed JSON, each with a
// distinct *DecodeError kind.
func Decode(data []byte) (Message, error) {
	if len(data) > MaxMessageSize {
		return nil, errPayloadTooLarge(fmt.Sprintf("message is %d bytes, limit %d", len(data), MaxMessageSize))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errMalformed(err.Error())
	}

	tagRaw, ok := fields["type"]
	if !ok {
		return nil, errMissingField("type")
	}
	var tag string
	if err := json.Unmarshal(tagRaw, &tag); err != nil {
		return nil, errMalformed("type tag is not a string")
	}

	var (
		msg      Message
		required []string
	)
	switch Kind(tag) {
	case KindJoin:
		msg, required = new(Join), []string{"id", "username"}
	case KindLeave:
		msg, required = new(Leave), []string{"id"}
	case KindChat:
		msg, required = new(Chat), []string{"id", "username", "text", "timestamp"}
	case KindVideoFrame:
		msg, required = new(VideoFrame), []string{"id", "username", "frame"}
	case KindUserList:
		msg, required = new(UserList), []string{"users"}
	case KindServerInfo:
		msg, required = new(ServerInfo), []string{"room_name"}
	case KindError:
		msg, required = new(Error), []string{"message"}
	default:
		return nil, errUnknownVariant(tag)
	}

	if err := unmarshalVariant(data, fields, msg, required...); err != nil {
		return nil, err
	}
	if vf, ok := msg.(*VideoFrame); ok && len(vf.Frame) > MaxFramePayload {
		return nil, errPayloadTooLarge(fmt.Sprintf("frame is %d bytes, limit %d", len(vf.Frame), MaxFramePayload))
	}
	return msg, nil
}

// unmarshalVariant checks that every required field is present and non-null,
// then parses the full message into dst. A return of nil means dst is valid.
func unmarshalVariant(data []byte, fields map[string]json.RawMessage, dst Message, required ...string) error {
	for _, name := range required {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return errMissingField(name)
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errMalformed(err.Error())
	}
	return nil
}
