package gridvoice

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/viterin/vek/vek32"
)

type (
	// Volume is the current level of the left and right channels, in
	// decibels relative to full scale (0 dB = signal level of +-1).
	Volume [2]float64

	// VolumeAnalyzer measures the volume of rendered blocks. For each block
	// it computes the mean power per channel and folds the decibel value
	// into Level with an exponentially decaying average, using the Attack
	// time constant when the level is rising and Release when falling.
	// Typical time constants for average level detection are 0.3 s for
	// both. Min and Max clamp the decibel values so a silent channel does
	// not drive the average to negative infinity.
	VolumeAnalyzer struct {
		Level      Volume
		Attack     float64 // attack time constant, seconds
		Release    float64 // release time constant, seconds
		Min        float64 // decibel floor
		Max        float64 // decibel ceiling
		SampleRate float64

		tmp []float32
	}
)

var errVolumeNaN = errors.New("NaN detected in master output")

// Update analyzes buffer and updates Level. It returns errVolumeNaN if the
// buffer contains NaN samples; the level keeps its previous value for the
// affected channel in that case.
func (v *VolumeAnalyzer) Update(buffer AudioBuffer) (err error) {
	if len(buffer) == 0 {
		return nil
	}
	n := float64(len(buffer))
	alphaAttack := 1 - math.Exp(-n/(v.Attack*v.SampleRate))
	alphaRelease := 1 - math.Exp(-n/(v.Release*v.SampleRate))
	if cap(v.tmp) < len(buffer) {
		v.tmp = make([]float32, len(buffer))
	}
	for j := 0; j < 2; j++ {
		tmp := v.tmp[:len(buffer)]
		for i, frame := range buffer {
			tmp[i] = frame[j]
		}
		power := float64(vek32.Dot(tmp, tmp)) / n
		if math.IsNaN(power) {
			if err == nil {
				err = errVolumeNaN
			}
			continue
		}
		dB := 10 * math.Log10(power)
		if dB < v.Min || math.IsNaN(dB) {
			dB = v.Min
		}
		if dB > v.Max {
			dB = v.Max
		}
		a := alphaAttack
		if dB < v.Level[j] {
			a = alphaRelease
		}
		v.Level[j] += (dB - v.Level[j]) * a
	}
	return err
}

// Monitor carries rendered audio off the real-time path for level metering.
// The audio goroutine borrows a buffer from a pool, copies the block into it
// and hands it over with a non-blocking send; blocks are skipped when the
// metering goroutine is behind. Buffer capacities stabilize after the first
// few blocks, the same borrowing scheme the renderer-to-model path uses in
// trackers.
type Monitor struct {
	analyzer VolumeAnalyzer
	blocks   chan *AudioBuffer
	pool     sync.Pool

	mu    sync.Mutex
	level Volume
}

func NewMonitor(sampleRate int) *Monitor {
	return &Monitor{
		analyzer: VolumeAnalyzer{
			Level:      Volume{-100, -100},
			Attack:     0.3,
			Release:    0.3,
			Min:        -100,
			Max:        20,
			SampleRate: float64(sampleRate),
		},
		blocks: make(chan *AudioBuffer, 16),
		pool:   sync.Pool{New: func() any { return &AudioBuffer{} }},
		level:  Volume{-100, -100},
	}
}

// Observe hands a copy of buf to the metering goroutine. It never blocks:
// if the channel is full the block is dropped and its buffer returned to
// the pool.
func (m *Monitor) Observe(buf AudioBuffer) {
	ptr := m.pool.Get().(*AudioBuffer)
	*ptr = append((*ptr)[:0], buf...)
	if !trySend(m.blocks, ptr) {
		*ptr = (*ptr)[:0]
		m.pool.Put(ptr)
	}
}

// Run consumes blocks and updates the level until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ptr := <-m.blocks:
			m.analyzer.Update(*ptr)
			m.mu.Lock()
			m.level = m.analyzer.Level
			m.mu.Unlock()
			*ptr = (*ptr)[:0]
			m.pool.Put(ptr)
		}
	}
}

// Level returns the most recent measurement. Safe to call from any
// goroutine except the audio goroutine.
func (m *Monitor) Level() Volume {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// trySend sends v to c if it is not full. It is guaranteed to be
// non-blocking. Returns true if the value was sent, false otherwise.
func trySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
