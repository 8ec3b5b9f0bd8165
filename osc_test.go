package gridvoice_test

import (
	"math"
	"testing"

	"github.com/gridvoice/gridvoice"
)

const twoPi = 2 * math.Pi

func phaseInRange(t *testing.T, o *gridvoice.Oscillator) {
	t.Helper()
	p := o.Phase()
	if !(p >= 0 && float64(p) < twoPi) {
		t.Fatalf("phase %v outside [0, 2π)", p)
	}
}

func TestOscillatorPhaseStaysInRange(t *testing.T) {
	o := gridvoice.NewOscillator(sampleRate, 440)
	for i := 0; i < 10000; i++ {
		o.Render()
		phaseInRange(t, o)
	}
}

func TestOscillatorDegenerateFrequencies(t *testing.T) {
	o := gridvoice.NewOscillator(sampleRate, 440)
	degenerates := []float32{0, -100, -1e9, float32(math.NaN())}
	for _, f := range degenerates {
		o.SetFrequencyImmediate(f)
		for i := 0; i < 100; i++ {
			v := o.Render()
			if math.IsNaN(float64(v)) {
				t.Fatalf("NaN sample emitted for frequency %v", f)
			}
			phaseInRange(t, o)
		}
	}
}

func TestOscillatorNaNDetune(t *testing.T) {
	o := gridvoice.NewOscillator(sampleRate, 440)
	o.SetDetune(float32(math.NaN()))
	for i := 0; i < 100; i++ {
		v := o.Render()
		if math.IsNaN(float64(v)) {
			t.Fatalf("NaN sample emitted at %d", i)
		}
		phaseInRange(t, o)
	}
}

func TestOscillatorFrequency(t *testing.T) {
	// effective frequency is the frequency plus the detune ratio, which is
	// 1 Hz at zero detune, so 100 Hz renders as 101 cycles per second
	o := gridvoice.NewOscillator(sampleRate, 100)
	crossings := 0
	prev := o.Render()
	for i := 1; i < sampleRate; i++ {
		v := o.Render()
		if prev < 0 && v >= 0 {
			crossings++
		}
		prev = v
	}
	if crossings < 99 || crossings > 103 {
		t.Errorf("expected about 101 upward zero crossings, got %d", crossings)
	}
}

func TestOscillatorSetPhase(t *testing.T) {
	o := gridvoice.NewOscillator(sampleRate, 440)
	o.SetPhase(1.5)
	want := float32(math.Sin(1.5))
	if got := o.Render(); math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("Render after SetPhase(1.5) = %v, want %v", got, want)
	}
}
