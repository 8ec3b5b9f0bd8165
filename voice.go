package gridvoice

// Voice composes the sample clock, the carrier and modulator oscillators,
// the envelope and the consumer end of the update queue into the body of the
// real-time audio callback. All synthesis state is owned by the audio
// goroutine; the queue pop at the top of Render is the only cross-goroutine
// synchronization on this path.
type Voice struct {
	clock      *SampleClock
	sampleRate uint64

	carrier   *Oscillator
	modulator *Oscillator
	env       *Envelope

	updates *UpdateQueue
	monitor *Monitor
}

func NewVoice(patch Patch, clock *SampleClock, updates *UpdateQueue) *Voice {
	sr := float32(patch.SampleRate)
	env := NewEnvelope(sr)
	env.SetAttack(patch.Attack)
	env.SetDecay(patch.Decay)
	env.SetHold(patch.Hold)
	env.SetRelease(patch.Release)
	env.SetSustain(patch.Sustain)
	return &Voice{
		clock:      clock,
		sampleRate: uint64(patch.SampleRate),
		carrier:    NewOscillator(sr, patch.CarrierHz),
		modulator:  NewOscillator(sr, patch.ModulatorHz),
		env:        env,
		updates:    updates,
	}
}

// SetMonitor directs a copy of every rendered block to m for level metering;
// nil disables. Must be called before the stream starts.
func (v *Voice) SetMonitor(m *Monitor) { v.monitor = m }

// Render fills buf with the voice output and advances the clock by one frame
// per frame written. It implements AudioCallback.
//
// At most one pending update is applied per block, so a burst of control
// changes is spread over several callbacks instead of stealing time from one
// of them. The envelope retriggers whenever the clock crosses a whole
// second: the voice free-runs as a periodic re-attack rather than waiting
// for an external gate.
func (v *Voice) Render(buf AudioBuffer) error {
	if u, ok := v.updates.TryPop(); ok {
		v.apply(u)
	}
	for i := range buf {
		t := v.clock.Frames()
		if t%v.sampleRate == 0 {
			v.env.Trigger(t)
		}
		m := v.modulator.Render()
		v.carrier.SetFrequencyImmediate((m + 1) * 100)
		s := v.env.Render(t) * v.carrier.Render()
		buf[i][0] = s
		buf[i][1] = s
		v.clock.Advance(1)
	}
	if v.monitor != nil {
		v.monitor.Observe(buf)
	}
	return nil
}

// apply dispatches one update onto the owned synthesis state. From the
// renderer's point of view an update is atomic: it lands entirely between
// two blocks.
func (v *Voice) apply(u ParamUpdate) {
	switch u.Kind {
	case CarrierFrequency:
		v.carrier.SetFrequency(u.Value)
	case ModulatorFrequency:
		v.modulator.SetFrequency(u.Value)
	case Attack:
		v.env.SetAttack(u.Value)
	case Release:
		v.env.SetRelease(u.Value)
	}
}
