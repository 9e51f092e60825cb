// Package server implements the termchat relay: a single-room group chat
// server that also forwards per-user ASCII video frames.
//
// # Architecture
//
// Each connection gets a read loop and a write loop. Inbound messages are
// decoded by pkg/protocol and dispatched to the Router, which fans them out
// to per-session outbound queues. The Registry owns the authoritative
// membership map; its presence hooks fire under the registry lock so
// UserList broadcasts are causally ordered after the mutation that
// produced them.
//
// # Delivery Policies
//
// Reliable traffic (presence, chat) is queued per session up to a
// high-water mark; a session that stops draining is disconnected rather
// than allowed to stall the router. Video frames use a small latest-wins
// lane: on overflow the oldest pending frame from the same sender is
// discarded, so stale video never accumulates and never crowds out chat.
//
// # Failure Isolation
//
// Every error - codec rejection, registry refusal, transport failure - is
// local to one connection: that connection closes, the registry entry (if
// any) is removed exactly once, and the remaining sessions only ever see
// the resulting Leave and UserList updates.
package server
