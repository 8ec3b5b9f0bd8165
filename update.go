package gridvoice

import "sync/atomic"

// ParamKind tags a ParamUpdate with the parameter it targets.
type ParamKind uint8

const (
	CarrierFrequency ParamKind = iota
	ModulatorFrequency
	Attack
	Release
)

func (k ParamKind) String() string {
	switch k {
	case CarrierFrequency:
		return "carrier frequency"
	case ModulatorFrequency:
		return "modulator frequency"
	case Attack:
		return "attack"
	case Release:
		return "release"
	}
	return "unknown"
}

// ParamUpdate is one tagged control message travelling from the control
// goroutine to the audio goroutine. Frequencies are in Hz, envelope times in
// seconds. A ParamUpdate is immutable once constructed; ownership transfers
// through the queue.
type ParamUpdate struct {
	Kind  ParamKind
	Value float32
}

// DefaultQueueCapacity is the update queue size used when none is
// configured. A burst from the control loop is drained one update per audio
// block, so 16 pending updates cover well over a controller poll cycle.
const DefaultQueueCapacity = 16

// UpdateQueue is a bounded wait-free single-producer single-consumer FIFO of
// ParamUpdates. TryPush must be called from a single goroutine and TryPop
// from a single other goroutine; under that contract both complete in a
// bounded number of steps, never block and never allocate. Capacity is fixed
// at construction.
type UpdateQueue struct {
	buf  []ParamUpdate
	mask uint64
	head atomic.Uint64 // next slot to pop, advanced only by the consumer
	tail atomic.Uint64 // next slot to push, advanced only by the producer
}

func NewUpdateQueue(capacity int) *UpdateQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	// rounded up to a power of two so indices wrap with a mask
	c := 1
	for c < capacity {
		c <<= 1
	}
	return &UpdateQueue{buf: make([]ParamUpdate, c), mask: uint64(c - 1)}
}

func (q *UpdateQueue) Cap() int { return len(q.buf) }

// TryPush enqueues u, returning false if the queue is full. A dropped
// update is not an error: a fresher value for the same parameter typically
// follows within one controller poll cycle.
func (q *UpdateQueue) TryPush(u ParamUpdate) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() >= uint64(len(q.buf)) {
		return false
	}
	q.buf[tail&q.mask] = u
	q.tail.Store(tail + 1)
	return true
}

// TryPop dequeues the oldest pending update; ok is false if the queue is
// empty, which is the normal case for most audio blocks.
func (q *UpdateQueue) TryPop() (u ParamUpdate, ok bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return ParamUpdate{}, false
	}
	u = q.buf[head&q.mask]
	q.head.Store(head + 1)
	return u, true
}
