package gridvoice

type (
	// AudioBuffer is a block of stereo audio frames of variable length.
	AudioBuffer [][2]float32

	// AudioCallback fills buf completely with rendered audio. It is invoked
	// by the audio driver once per output block, under a real-time deadline:
	// implementations must not block, allocate or loop unboundedly.
	AudioCallback func(buf AudioBuffer) error

	// AudioContext represents the low-level audio drivers. There should be
	// at most one AudioContext alive at a time. The interface is implemented
	// by oto.Context.
	AudioContext interface {
		// Play starts a stream that pulls audio from callback. The stream
		// runs until the returned CloserWaiter is closed or the callback
		// returns an error.
		Play(callback AudioCallback) CloserWaiter
		Close() error
	}

	// CloserWaiter is a stream handle: Close stops the stream, Wait blocks
	// until it has stopped, either by Close or by a callback error.
	CloserWaiter interface {
		Close() error
		Wait()
	}
)
