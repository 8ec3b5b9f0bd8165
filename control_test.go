package gridvoice_test

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/gridvoice/gridvoice"
)

type ringCall struct {
	index, position, level int
}

// fakeController feeds queued encoder events to the loop and records the
// ring feedback it receives.
type fakeController struct {
	events  []gridvoice.EncoderEvent
	rings   []ringCall
	cleared int
}

func (c *fakeController) Poll() (gridvoice.EncoderEvent, bool) {
	if len(c.events) == 0 {
		return gridvoice.EncoderEvent{}, false
	}
	ev := c.events[0]
	c.events = c.events[1:]
	return ev, true
}

func (c *fakeController) SetRing(index, position, level int) error {
	c.rings = append(c.rings, ringCall{index, position, level})
	return nil
}

func (c *fakeController) ClearRings() error {
	c.cleared++
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestControlLoopReset(t *testing.T) {
	fc := &fakeController{}
	q := gridvoice.NewUpdateQueue(16)
	l := gridvoice.NewControlLoop(fc, q, quietLogger())
	l.Reset(gridvoice.DefaultPatch())

	want := []gridvoice.ParamUpdate{
		{Kind: gridvoice.CarrierFrequency, Value: 110},
		{Kind: gridvoice.ModulatorFrequency, Value: 55},
		{Kind: gridvoice.Attack, Value: 0.1},
		{Kind: gridvoice.Release, Value: 0.9},
	}
	for i, w := range want {
		u, ok := q.TryPop()
		if !ok {
			t.Fatalf("expected %d startup updates, got %d", len(want), i)
		}
		if u != w {
			t.Errorf("startup update %d = %+v, want %+v", i, u, w)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("queue should hold exactly the four startup updates")
	}
	if fc.cleared != 1 {
		t.Errorf("ClearRings called %d times, want 1", fc.cleared)
	}
	if len(fc.rings) != gridvoice.NumEncoders {
		t.Fatalf("got %d ring redraws, want %d", len(fc.rings), gridvoice.NumEncoders)
	}
	wantRings := []ringCall{{0, 11, 3}, {1, 5, 3}, {2, 6, 3}, {3, 57, 3}}
	for i, w := range wantRings {
		if fc.rings[i] != w {
			t.Errorf("ring redraw %d = %+v, want %+v", i, fc.rings[i], w)
		}
	}
}

func TestControlLoopEncoderScaling(t *testing.T) {
	fc := &fakeController{}
	q := gridvoice.NewUpdateQueue(16)
	l := gridvoice.NewControlLoop(fc, q, quietLogger())
	l.Reset(gridvoice.DefaultPatch())
	for {
		if _, ok := q.TryPop(); !ok {
			break
		}
	}
	fc.rings = nil

	fc.events = []gridvoice.EncoderEvent{
		{Index: 0, Delta: 100},   // carrier 11 + 10 clicks -> 210 Hz
		{Index: 2, Delta: -100},  // attack clamps at 0
		{Index: 3, Delta: 1000},  // release clamps at 64 -> 1 s
	}
	l.Step()

	want := []gridvoice.ParamUpdate{
		{Kind: gridvoice.CarrierFrequency, Value: 210},
		{Kind: gridvoice.Attack, Value: 0},
		{Kind: gridvoice.Release, Value: 1},
	}
	for i, w := range want {
		u, ok := q.TryPop()
		if !ok {
			t.Fatalf("expected update %d", i)
		}
		if u.Kind != w.Kind || math.Abs(float64(u.Value-w.Value)) > 1e-5 {
			t.Errorf("update %d = %+v, want %+v", i, u, w)
		}
	}

	// each turn clears the old ring position before lighting the new one
	if len(fc.rings) < 2 {
		t.Fatalf("expected ring feedback for the events, got %d calls", len(fc.rings))
	}
	if (fc.rings[0] != ringCall{0, 11, 0}) {
		t.Errorf("first ring call = %+v, want clear of old position {0 11 0}", fc.rings[0])
	}
	if (fc.rings[1] != ringCall{0, 21, 3}) {
		t.Errorf("second ring call = %+v, want light of new position {0 21 3}", fc.rings[1])
	}
}

func TestControlLoopUnknownEncoder(t *testing.T) {
	fc := &fakeController{events: []gridvoice.EncoderEvent{{Index: 7, Delta: 1}}}
	q := gridvoice.NewUpdateQueue(16)
	l := gridvoice.NewControlLoop(fc, q, quietLogger())
	l.Step()
	if _, ok := q.TryPop(); ok {
		t.Error("event for an unmapped encoder should not produce an update")
	}
}

func TestControlLoopFullQueueDropsUpdate(t *testing.T) {
	fc := &fakeController{events: []gridvoice.EncoderEvent{{Index: 0, Delta: 10}}}
	q := gridvoice.NewUpdateQueue(4)
	for i := 0; i < 4; i++ {
		q.TryPush(gridvoice.ParamUpdate{Kind: gridvoice.Attack, Value: float32(i)})
	}
	l := gridvoice.NewControlLoop(fc, q, quietLogger())
	l.Step()
	for i := 0; i < 4; i++ {
		u, ok := q.TryPop()
		if !ok || u.Kind != gridvoice.Attack {
			t.Fatalf("pop %d = %+v (ok=%v), queued updates should survive the drop", i, u, ok)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("dropped update must not land in the queue")
	}
}
