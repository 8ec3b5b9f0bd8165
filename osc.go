package gridvoice

import "github.com/chewxy/math32"

const twoPi = 2 * math32.Pi

// Oscillator is a phase-accumulating sine generator. Frequency and detune
// (in cents) are Params, so the control goroutine can retarget them without
// clicks while the audio goroutine renders.
type Oscillator struct {
	phase      float32
	sampleRate float32
	frequency  Param
	detune     Param
}

func NewOscillator(sampleRate, frequency float32) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  NewParam(sampleRate, frequency),
		detune:     NewParam(sampleRate, 0),
	}
}

// Render emits one sample and advances the phase. The effective frequency
// is the frequency plus the detune converted from cents to a ratio. The
// phase wraps into [0, 2π) by subtraction, not modulo, so float rounding
// cannot reintroduce a discontinuity; any phase that leaves [0, 2π) anyway
// (zero or negative effective frequency, NaN detune) resets to 0.
func (o *Oscillator) Render() float32 {
	freq := o.frequency.Value() + math32.Exp2(o.detune.Value()/1200)
	v := math32.Sin(o.phase)
	o.phase += twoPi * freq / o.sampleRate
	if o.phase >= twoPi {
		o.phase -= twoPi
	}
	if !(o.phase >= 0 && o.phase < twoPi) {
		o.phase = 0
	}
	return v
}

// SetFrequency requests a smoothed transition to hz. This is the normal
// control-path setter.
func (o *Oscillator) SetFrequency(hz float32) { o.frequency.Set(hz) }

// SetFrequencyImmediate makes hz effective at the next sample. Use this when
// the frequency is itself driven at sample rate by another oscillator:
// smoothing an already-continuous modulation signal only adds latency.
func (o *Oscillator) SetFrequencyImmediate(hz float32) { o.frequency.SetImmediate(hz) }

// SetDetune requests a smoothed transition to a detune of cents, in
// [-1200, 1200].
func (o *Oscillator) SetDetune(cents float32) { o.detune.Set(cents) }

// SetPhase forces the accumulator; phase should be in [0, 2π).
func (o *Oscillator) SetPhase(phase float32) { o.phase = phase }

// Phase returns the current accumulator value.
func (o *Oscillator) Phase() float32 { return o.phase }
