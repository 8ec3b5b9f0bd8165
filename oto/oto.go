// Package oto implements gridvoice.AudioContext on the ebitengine/oto/v3
// library. oto pulls audio through an io.Reader, so the package adapts the
// block-callback contract onto a reader that renders a block and converts it
// to interleaved little-endian float32 bytes.
package oto

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/gridvoice/gridvoice"
)

type (
	// Context is a stereo float32 oto context at a fixed sample rate.
	Context struct {
		context    *oto.Context
		sampleRate int
	}

	stream struct {
		player *oto.Player
		reader *callbackReader
	}
)

// bufferDuration is the device-side buffering. Roughly ten callback blocks
// of headroom; latency stays well under human-noticeable for a control knob.
const bufferDuration = 50 * time.Millisecond

// NewContext initializes the audio device for a stereo float32 stream at
// sampleRate. A failure here (no device, unsupported format) is a fatal
// startup error for the caller; there is no retry at this layer.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferDuration,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{context: context, sampleRate: sampleRate}, nil
}

// Play starts pulling audio from callback. The stream runs until the
// returned CloserWaiter is closed or the callback returns an error.
func (c *Context) Play(callback gridvoice.AudioCallback) gridvoice.CloserWaiter {
	r := &callbackReader{callback: callback, done: make(chan struct{})}
	s := &stream{player: c.context.NewPlayer(r), reader: r}
	s.player.Play()
	return s
}

// Close is a no-op: an oto context cannot be closed, it lives until the
// process exits.
func (c *Context) Close() error { return nil }

func (s *stream) Close() error {
	s.reader.finish(nil)
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (s *stream) Wait() { <-s.reader.done }

// callbackReader renders blocks on demand. The scratch buffer is allocated
// on the first Read and reused after that; oto asks for fixed-size reads, so
// the hot path stays allocation-free.
type callbackReader struct {
	callback gridvoice.AudioCallback
	buf      gridvoice.AudioBuffer
	done     chan struct{}
	once     sync.Once
	err      error
}

const bytesPerFrame = 8 // two float32 channels

func (r *callbackReader) Read(p []byte) (int, error) {
	select {
	case <-r.done:
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	default:
	}
	frames := len(p) / bytesPerFrame
	if cap(r.buf) < frames {
		r.buf = make(gridvoice.AudioBuffer, frames)
	}
	buf := r.buf[:frames]
	if err := r.callback(buf); err != nil {
		err = fmt.Errorf("render callback failed: %w", err)
		r.finish(err)
		return 0, err
	}
	putSamplesLE(p, buf)
	return frames * bytesPerFrame, nil
}

func (r *callbackReader) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}
