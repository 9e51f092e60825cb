package protocol

// Size limits enforced at decode time. Both bound what a single client can
// make every other session buffer.
const (
	// MaxMessageSize is the largest JSON message Decode will look at.
	// A 40x30 frame serializes to roughly 6.5KB of base64; 64KB leaves
	// generous headroom for larger configured grids.
	MaxMessageSize = 64 * 1024

	// MaxFramePayload is the largest decoded VideoFrame payload accepted.
	// Covers grids up to about 100x100 cells at 4 bytes per cell.
	MaxFramePayload = 40 * 1024
)
