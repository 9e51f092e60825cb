// Package protocol implements the wire protocol for the termchat relay.
//
// Messages travel as JSON text, one message per WebSocket frame, tagged
// with a "type" discriminator. The codec is pure and stateless: Encode is
// a deterministic function of a message's fields, and Decode either yields
// a typed message or a *DecodeError naming what was wrong.
//
// # Message Variants
//
//   - Join{id, username}: sent by a client once, to enter the room
//   - Leave{id}: explicit departure (a closed transport has the same effect)
//   - Chat{id, username, text, timestamp}: reliable room-wide text
//   - VideoFrame{id, username, frame}: best-effort ASCII video payload
//   - UserList{users}: authoritative room membership snapshot
//   - ServerInfo{ngrok_url, room_name}: deployment details for new clients
//   - Error{message}: server-to-client rejection notice before close
//
// # Delivery Categories
//
// Join, Leave, Chat, UserList, ServerInfo and Error are reliable: the relay
// queues them per receiver and disconnects receivers that stop draining.
// VideoFrame is latest-wins: a slow receiver loses the oldest pending frame
// from the same sender, never chat traffic.
//
// # Decode Errors
//
// Decode distinguishes three rejection kinds plus a catch-all:
//
//   - UnknownVariant: unrecognized "type" tag
//   - MissingField: a required field for the variant is absent
//   - PayloadTooLarge: the message or its frame payload exceeds the limits
//   - Malformed: the bytes are not a JSON object, or a field has the wrong type
//
// Any decode error is local to the connection that produced the bytes.
package protocol
