// Package event carries simulation notifications from systems to
// out-of-loop consumers (audio cues, network observers). The queue is a
// lock-free MPSC ring buffer: systems push from the tick goroutine or
// workers, a single consumer drains once per frame.
package event

import (
	"sync/atomic"

	"github.com/veldtgame/veldt/core"
)

// Type identifies a simulation event.
type Type uint8

const (
	// UnitSpawned fires when a unit enters the world
	UnitSpawned Type = iota
	// UnitArrived fires when a travelling unit settles at its target
	UnitArrived
	// UnitDestroyed fires when a unit is removed from the world
	UnitDestroyed
)

// String returns the event type name for diagnostics.
func (t Type) String() string {
	switch t {
	case UnitSpawned:
		return "spawned"
	case UnitArrived:
		return "arrived"
	case UnitDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// SimEvent is a single simulation notification.
type SimEvent struct {
	Type   Type
	Entity core.Entity
	Tick   int64
}

const (
	queueSize  = 1024 // power of two
	bufferMask = queueSize - 1
)

// Queue is a fixed-size MPSC ring buffer. Push is lock-free and safe for
// concurrent producers; Consume must be called from a single consumer.
// When full, the oldest unread events are overwritten.
type Queue struct {
	events    [queueSize]SimEvent
	published [queueSize]atomic.Bool // slot fully written
	head      atomic.Uint64          // read index
	tail      atomic.Uint64          // write index
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends one event. Lock-free CAS; safe for concurrent producers.
func (q *Queue) Push(ev SimEvent) {
	for {
		tail := q.tail.Load()
		if !q.tail.CompareAndSwap(tail, tail+1) {
			continue
		}
		idx := tail & bufferMask
		q.events[idx] = ev
		q.published[idx].Store(true) // must follow the slot write

		// advance head past overwritten events
		head := q.head.Load()
		if tail+1-head > queueSize {
			q.head.CompareAndSwap(head, tail+1-queueSize)
		}
		return
	}
}

// Consume drains all pending events in FIFO order. Single consumer only.
// Slots not yet fully published are left for the next drain.
func (q *Queue) Consume() []SimEvent {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if tail == head {
			return nil
		}

		available := tail - head
		if available > queueSize {
			available = queueSize
			head = tail - queueSize
		}

		result := make([]SimEvent, 0, available)
		for i := uint64(0); i < available; i++ {
			idx := (head + i) & bufferMask
			if !q.published[idx].Load() {
				break
			}
			result = append(result, q.events[idx])
			q.published[idx].Store(false)
		}

		if q.head.CompareAndSwap(head, head+uint64(len(result))) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len returns the approximate pending event count.
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	n := int(tail - head)
	if n > queueSize {
		return queueSize
	}
	return n
}
