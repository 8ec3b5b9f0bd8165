package gridvoice

import "github.com/chewxy/math32"

// Param is a control value that can be retargeted asynchronously from the
// control goroutine while audio is rendering. Set schedules an exponential
// approach towards the new value so that the change is click-free;
// SetImmediate makes the new value effective on the very next sample, for
// targets that are already continuous signals (per-sample FM).
type Param struct {
	current float32
	target  float32
	coeff   float32
}

// smoothingTime is the time constant of the exponential approach, in
// seconds. Short enough that a hardware encoder feels instant, long enough
// that a step in the target never becomes a step in the signal.
const smoothingTime = 0.01

// snapThreshold is the distance below which the smoothed value snaps to the
// target, so that the approach terminates instead of chasing denormals.
const snapThreshold = 1e-4

func NewParam(sampleRate, value float32) Param {
	return Param{
		current: value,
		target:  value,
		coeff:   1 - math32.Exp(-1/(sampleRate*smoothingTime)),
	}
}

// Value returns the effective value for the current sample and advances the
// smoothing by one sample. It mutates no state beyond that progress.
func (p *Param) Value() float32 {
	v := p.current
	p.current += (p.target - p.current) * p.coeff
	if math32.Abs(p.target-p.current) < snapThreshold {
		p.current = p.target
	}
	return v
}

// Set requests a smoothed transition to value.
func (p *Param) Set(value float32) { p.target = value }

// SetImmediate makes value effective at the next sample, with no transition.
func (p *Param) SetImmediate(value float32) {
	p.current = value
	p.target = value
}

// Target returns the most recently requested value, without advancing the
// smoothing.
func (p *Param) Target() float32 { return p.target }
