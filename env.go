package gridvoice

// Envelope is an attack-decay-hold-release gain curve keyed to absolute
// sample clock positions. Its value is 0 for any time before the last
// trigger or after the curve has fully decayed; in between it is a
// deterministic function of the elapsed samples. Durations are stored as
// sample counts, converted from seconds at the sample rate given at
// construction. Setters take effect on the next Render call, not
// retroactively.
type Envelope struct {
	startTime  uint64
	attack     uint64
	decay      uint64
	hold       uint64
	release    uint64
	sustain    float32
	sampleRate float32
}

func NewEnvelope(sampleRate float32) *Envelope {
	return &Envelope{
		release:    uint64(sampleRate / 100),
		sustain:    1,
		sampleRate: sampleRate,
	}
}

// shape maps [0,1] to [0,1] with an ease-in curve.
func shape(x float32) float32 { return x * x }

// Render returns the envelope gain at absolute sample index t. Zero-length
// segments are passed through instantly; no segment ever divides by its
// length when that length is zero.
func (e *Envelope) Render(t uint64) float32 {
	if t < e.startTime || t > e.startTime+e.duration() {
		return 0
	}
	t -= e.startTime
	if t < e.attack {
		return shape(float32(t) / float32(e.attack))
	}
	t -= e.attack
	if t < e.decay {
		return 1 - (1-e.sustain)*shape(float32(t)/float32(e.decay))
	}
	t -= e.decay
	if t < e.hold {
		return e.sustain
	}
	t -= e.hold
	if t < e.release {
		return e.sustain * (1 - shape(float32(t)/float32(e.release)))
	}
	return 0
}

// Trigger restarts the envelope timeline from absolute sample index t,
// unconditionally: whatever segment a previous trigger was in, the curve
// re-enters the attack from t.
func (e *Envelope) Trigger(t uint64) { e.startTime = t }

func (e *Envelope) SetAttack(seconds float32)  { e.attack = e.samples(seconds) }
func (e *Envelope) SetDecay(seconds float32)   { e.decay = e.samples(seconds) }
func (e *Envelope) SetHold(seconds float32)    { e.hold = e.samples(seconds) }
func (e *Envelope) SetRelease(seconds float32) { e.release = e.samples(seconds) }

// SetSustain takes a raw gain in [0,1], not a duration.
func (e *Envelope) SetSustain(gain float32) {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	e.sustain = gain
}

func (e *Envelope) duration() uint64 {
	return e.attack + e.decay + e.hold + e.release
}

func (e *Envelope) samples(seconds float32) uint64 {
	if seconds < 0 {
		seconds = 0
	}
	return uint64(seconds*e.sampleRate + 0.5)
}
