package gridvoice

import "sync/atomic"

// SampleClock is a monotonically increasing frame counter, the shared notion
// of "now" in samples. The audio goroutine advances it once per rendered
// frame; any goroutine may read it without blocking. The counter is 64-bit
// and never wraps within the lifetime of the process.
type SampleClock struct {
	frames atomic.Uint64
}

// Frames returns the number of frames rendered since the stream started.
func (c *SampleClock) Frames() uint64 { return c.frames.Load() }

// Advance moves the clock forward by n frames. Only the audio goroutine may
// call Advance.
func (c *SampleClock) Advance(n uint64) { c.frames.Add(n) }
