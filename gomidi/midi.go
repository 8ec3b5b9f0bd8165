// Package gomidi reaches the hardware grid controller over MIDI, using
// gitlab.com/gomidi/midi with the rtmidi driver. Encoder turns arrive as
// relative control change messages; ring LED feedback goes back out as
// absolute values on the same controller numbers.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/gridvoice/gridvoice"
)

// Encoders 0..3 map to these control change numbers. Turns use the usual
// two's-complement relative encoding (1..63 clockwise, 127..65
// counterclockwise). Outgoing ring feedback carries the absolute 0..64
// position as the value; the MIDI channel selects the brightness level,
// channel 0 meaning off.
const (
	encoderBaseCC = 16
	ringMax       = 64
)

var errNoDriver = errors.New("no MIDI driver available")

// Controller reads encoder turns from a MIDI device and writes ring LED
// feedback back to it. It implements gridvoice.Controller. Before a device
// is opened, Poll reports no events and SetRing is a no-op, so the control
// loop keeps working with the controller unplugged.
type Controller struct {
	driver *rtmididrv.Driver
	in     drivers.In
	out    drivers.Out
	send   func(midi.Message) error
	stop   func()
	events chan gridvoice.EncoderEvent
}

// New opens the MIDI driver. A missing driver is not fatal: the returned
// Controller just never produces events.
func New() *Controller {
	c := &Controller{events: make(chan gridvoice.EncoderEvent, 256)}
	// nil driver means no MIDI available on this system
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices iterates over the names of the available MIDI inputs.
func (c *Controller) InputDevices(yield func(string) bool) {
	if c.driver == nil {
		return
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(in.String()) {
			return
		}
	}
}

// OpenByPrefix connects to the first input whose name starts with prefix,
// along with the output of the same name if one exists; an empty prefix
// takes the first input. Any previously open device is closed first.
func (c *Controller) OpenByPrefix(prefix string) error {
	if c.driver == nil {
		return errNoDriver
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if prefix != "" && !strings.HasPrefix(in.String(), prefix) {
			continue
		}
		return c.open(in)
	}
	return fmt.Errorf("no MIDI input matching %q", prefix)
}

func (c *Controller) open(in drivers.In) error {
	c.closeDevice()
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input %v: %w", in, err)
	}
	stop, err := midi.ListenTo(in, c.handleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("listening to MIDI input %v: %w", in, err)
	}
	c.in = in
	c.stop = stop
	c.openFeedback(in.String())
	return nil
}

// openFeedback looks for an output port named like the input. Feedback is
// optional: with no output the rings just stay dark.
func (c *Controller) openFeedback(name string) {
	outs, err := c.driver.Outs()
	if err != nil {
		return
	}
	for _, out := range outs {
		if out.String() != name {
			continue
		}
		if err := out.Open(); err != nil {
			return
		}
		send, err := midi.SendTo(out)
		if err != nil {
			out.Close()
			return
		}
		c.out = out
		c.send = send
		return
	}
}

// handleMessage runs on the driver's listener goroutine. It decodes encoder
// control changes into events and drops them when the channel is full;
// losing an encoder delta is harmless, the next turn supersedes it. Other
// messages from the device are ignored.
func (c *Controller) handleMessage(msg midi.Message, timestampms int32) {
	var channel, cc, value uint8
	if !msg.GetControlChange(&channel, &cc, &value) {
		return
	}
	if cc < encoderBaseCC || cc >= encoderBaseCC+gridvoice.NumEncoders {
		return
	}
	delta := int(value)
	if delta >= 64 {
		delta -= 128
	}
	trySendEvent(c.events, gridvoice.EncoderEvent{Index: int(cc - encoderBaseCC), Delta: delta})
}

func trySendEvent(c chan gridvoice.EncoderEvent, ev gridvoice.EncoderEvent) {
	select {
	case c <- ev:
	default:
	}
}

// Poll returns the next pending encoder event without blocking.
func (c *Controller) Poll() (gridvoice.EncoderEvent, bool) {
	select {
	case ev := <-c.events:
		return ev, true
	default:
		return gridvoice.EncoderEvent{}, false
	}
}

// SetRing lights the ring of encoder index at position (0..64) with the
// given brightness level. A no-op when no feedback output is open.
func (c *Controller) SetRing(index, position, level int) error {
	if c.send == nil {
		return nil
	}
	if index < 0 || index >= gridvoice.NumEncoders {
		return fmt.Errorf("no such encoder: %d", index)
	}
	if position < 0 {
		position = 0
	}
	if position > ringMax {
		position = ringMax
	}
	if err := c.send(midi.ControlChange(uint8(level), uint8(encoderBaseCC+index), uint8(position))); err != nil {
		return fmt.Errorf("sending ring feedback: %w", err)
	}
	return nil
}

// ClearRings turns all ring LEDs off.
func (c *Controller) ClearRings() error {
	for i := 0; i < gridvoice.NumEncoders; i++ {
		if err := c.SetRing(i, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) closeDevice() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.in != nil && c.in.IsOpen() {
		c.in.Close()
	}
	c.in = nil
	if c.out != nil && c.out.IsOpen() {
		c.out.Close()
	}
	c.out = nil
	c.send = nil
}

// Close closes the open device, if any, and the driver.
func (c *Controller) Close() {
	c.closeDevice()
	if c.driver != nil {
		c.driver.Close()
	}
}
