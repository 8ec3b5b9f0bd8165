package gridvoice

import (
	"context"
	"log/slog"
	"time"
)

type (
	// EncoderEvent is one hardware input event: encoder Index was turned by
	// Delta clicks, negative meaning counterclockwise.
	EncoderEvent struct {
		Index int
		Delta int
	}

	// Controller is the hardware grid controller as seen by the control
	// loop: a non-blocking source of encoder events and a sink for ring LED
	// feedback. Implemented by gomidi.Controller. The feedback calls are
	// pure display; no synthesis logic depends on them.
	Controller interface {
		// Poll returns the next pending encoder event without blocking;
		// ok is false when no event is pending.
		Poll() (ev EncoderEvent, ok bool)
		// SetRing lights the LED ring of an encoder at the given position
		// (0..64) and brightness level; level 0 turns the position off.
		SetRing(index, position, level int) error
		// ClearRings turns all ring LEDs off.
		ClearRings() error
	}
)

// NumEncoders is the number of encoders the voice is mapped to: carrier
// frequency, modulator frequency, attack time and release time, in that
// order.
const NumEncoders = 4

const (
	ringOff = 0
	ringOn  = 3

	accumMax = 64
)

// ControlLoop polls a hardware controller at a fixed cadence and turns
// encoder movement into ParamUpdates. Each encoder drives an internal 0..64
// accumulator; encoders 0 and 1 scale it by 10 into Hz, encoders 2 and 3
// divide it by 64 into seconds. The loop is the single producer of the
// update queue and never blocks on it: when the queue is full the update is
// dropped and the next encoder movement supersedes it.
//
// The loop runs on its own goroutine, outside any real-time deadline;
// sleeping, allocation and logging are all fine here.
type ControlLoop struct {
	controller Controller
	updates    *UpdateQueue
	interval   time.Duration
	accum      [NumEncoders]float32
	log        *slog.Logger
}

func NewControlLoop(controller Controller, updates *UpdateQueue, logger *slog.Logger) *ControlLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlLoop{
		controller: controller,
		updates:    updates,
		interval:   10 * time.Millisecond,
		log:        logger,
	}
}

// Run resets the loop to the patch defaults, then polls the controller until
// ctx is cancelled.
func (l *ControlLoop) Run(ctx context.Context, patch Patch) {
	l.Reset(patch)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Step()
		}
	}
}

// Reset seeds the accumulators from patch, pushes the four startup values
// into the queue and redraws the rings. The queue is empty at startup, so
// these four pushes cannot drop.
func (l *ControlLoop) Reset(patch Patch) {
	l.accum[0] = clampAccum(patch.CarrierHz / 10)
	l.accum[1] = clampAccum(patch.ModulatorHz / 10)
	l.accum[2] = clampAccum(patch.Attack * accumMax)
	l.accum[3] = clampAccum(patch.Release * accumMax)
	l.push(ParamUpdate{Kind: CarrierFrequency, Value: patch.CarrierHz})
	l.push(ParamUpdate{Kind: ModulatorFrequency, Value: patch.ModulatorHz})
	l.push(ParamUpdate{Kind: Attack, Value: patch.Attack})
	l.push(ParamUpdate{Kind: Release, Value: patch.Release})
	if err := l.controller.ClearRings(); err != nil {
		l.log.Warn("control: clearing rings failed", "error", err)
	}
	for i := range l.accum {
		l.setRing(i, ringOn)
	}
}

// Step drains all pending controller events. Run calls it once per tick; it
// is exported so a host with its own scheduling can drive the loop directly.
func (l *ControlLoop) Step() {
	for {
		ev, ok := l.controller.Poll()
		if !ok {
			return
		}
		l.handle(ev)
	}
}

func (l *ControlLoop) handle(ev EncoderEvent) {
	if ev.Index < 0 || ev.Index >= NumEncoders {
		l.log.Warn("control: event for unknown encoder", "encoder", ev.Index)
		return
	}
	l.setRing(ev.Index, ringOff)
	l.accum[ev.Index] = clampAccum(l.accum[ev.Index] + float32(ev.Delta)/10)
	l.setRing(ev.Index, ringOn)
	a := l.accum[ev.Index]
	switch ev.Index {
	case 0:
		l.push(ParamUpdate{Kind: CarrierFrequency, Value: a * 10})
	case 1:
		l.push(ParamUpdate{Kind: ModulatorFrequency, Value: a * 10})
	case 2:
		l.push(ParamUpdate{Kind: Attack, Value: a / accumMax})
	case 3:
		l.push(ParamUpdate{Kind: Release, Value: a / accumMax})
	}
}

func (l *ControlLoop) push(u ParamUpdate) {
	if !l.updates.TryPush(u) {
		// full queue means the renderer is behind by a whole queue of
		// updates; dropping a stale value is the correct recovery
		l.log.Debug("control: update queue full, dropping", "kind", u.Kind.String(), "value", u.Value)
	}
}

func (l *ControlLoop) setRing(i, level int) {
	if err := l.controller.SetRing(i, int(l.accum[i]), level); err != nil {
		l.log.Warn("control: ring feedback failed", "encoder", i, "error", err)
	}
}

func clampAccum(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > accumMax {
		return accumMax
	}
	return v
}
