package ascii

import (
	"sync"
	"sync/atomic"
	"time"
)

// Generator produces frames on a fixed cadence, independent of network I/O.
// Delivery is latest-wins: if the consumer has not taken the previous frame
// the new one is dropped, and if an encode overruns its tick budget the next
// tick is skipped instead of queued, so video latency stays bounded.
type Generator struct {
	width    uint16
	height   uint16
	interval time.Duration

	// encode produces the frame for a tick; defaults to Encode. Replaced
	// in tests to simulate slow encodes.
	encode func(tick uint64, width, height uint16) *Frame

	frames   chan *Frame
	done     chan struct{}
	stopOnce sync.Once

	dropped atomic.Uint64
	skipped atomic.Uint64
}

// NewGenerator returns a generator for the given grid size and frame rate.
// An fps of zero or less falls back to 15.
func NewGenerator(width, height uint16, fps int) *Generator {
	if fps <= 0 {
		fps = 15
	}
	return &Generator{
		width:    width,
		height:   height,
		interval: time.Second / time.Duration(fps),
		encode:   Encode,
		frames:   make(chan *Frame, 1),
		done:     make(chan struct{}),
	}
}

// Frames returns the channel on which generated frames are delivered.
func (g *Generator) Frames() <-chan *Frame {
	return g.frames
}

// Run generates frames until Stop is called. It blocks the calling
// goroutine.
func (g *Generator) Run() {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			start := time.Now()
			frame := g.encode(tick, g.width, g.height)
			tick++

			select {
			case g.frames <- frame:
			default:
				g.dropped.Add(1)
			}

			if time.Since(start) > g.interval {
				// Overran the tick budget: consume the tick that piled up
				// instead of letting it queue behind us.
				select {
				case <-ticker.C:
					tick++
					g.skipped.Add(1)
				default:
				}
			}
		}
	}
}

// Stop terminates Run. Safe to call more than once.
func (g *Generator) Stop() {
	g.stopOnce.Do(func() { close(g.done) })
}

// Dropped reports frames discarded because the consumer was behind.
func (g *Generator) Dropped() uint64 {
	return g.dropped.Load()
}

// Skipped reports ticks skipped after an encode overran its budget.
func (g *Generator) Skipped() uint64 {
	return g.skipped.Load()
}
