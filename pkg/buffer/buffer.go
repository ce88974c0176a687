// Package buffer implements a double-buffered page slot: the bitmap on
// screen is only replaced once the bitmap for the latest requested target
// has finished rendering, so a page or resolution change never blanks the
// slot.
//
// A Buffer has two slots, A and B. One is active (on screen), the other is
// standby. A request is written into the standby slot and rendered there;
// when it completes and still matches the latest request, the slots swap.
// A request arriving while another is rendering overwrites the standby
// target, and the older completion is discarded when it eventually lands.
package buffer

import "image"

// Target identifies what a slot should show.
type Target struct {
	Page  int
	Scale float64
}

// SlotID names one of the two slots.
type SlotID int

const (
	A SlotID = iota
	B
)

// Other returns the opposite slot.
func (id SlotID) Other() SlotID {
	if id == A {
		return B
	}
	return A
}

func (id SlotID) String() string {
	if id == A {
		return "A"
	}
	return "B"
}

// Direction is the navigation direction that caused a request.
type Direction int

const (
	Still    Direction = 0
	Forward  Direction = 1
	Backward Direction = -1
)

// Slot is the content of one buffer.
type Slot struct {
	Target Target
	Image  image.Image
	Err    error
	Ready  bool
}

// Transition describes a swap, for the caller to animate.
type Transition struct {
	From, To   SlotID
	PageChange bool
	Direction  Direction
}

// EnterOffset returns the horizontal offset the incoming slot starts from:
// +offset when paging forward, -offset backward, zero for a resolution-only
// change.
func (t Transition) EnterOffset(offset float32) float32 {
	if !t.PageChange {
		return 0
	}
	switch t.Direction {
	case Forward:
		return offset
	case Backward:
		return -offset
	}
	return 0
}

// RenderFunc starts rendering t and calls done exactly once with the
// result. done may be called before RenderFunc returns.
type RenderFunc func(t Target, done func(img image.Image, err error))

// Buffer is the double-buffer state machine. It is not safe for concurrent
// use: Request, the done callbacks and the accessors must all be called
// from the same goroutine or under the caller's lock.
type Buffer struct {
	render RenderFunc
	onSwap func(Transition)

	active  SlotID
	slots   [2]Slot
	latest  Target
	pending bool
	dir     Direction
	epoch   uint64
}

// New returns an empty buffer. onSwap may be nil.
func New(render RenderFunc, onSwap func(Transition)) *Buffer {
	return &Buffer{render: render, onSwap: onSwap}
}

// Request asks the slot to show t.
func (b *Buffer) Request(t Target, dir Direction) {
	if b.pending && t == b.latest {
		return
	}
	b.latest = t
	b.dir = dir

	act := b.slots[b.active]
	if act.Ready && act.Target == t {
		// back to what is already on screen; whatever is rendering in
		// standby is now stale
		b.pending = false
		return
	}

	sb := b.active.Other()
	if standby := b.slots[sb]; standby.Target == t {
		// already rendered or still rendering there
		if standby.Ready {
			b.promote(sb)
		} else {
			b.pending = true
		}
		return
	}

	b.slots[sb] = Slot{Target: t}
	b.pending = true
	epoch := b.epoch
	b.render(t, func(img image.Image, err error) {
		b.complete(epoch, sb, t, img, err)
	})
}

func (b *Buffer) complete(epoch uint64, id SlotID, t Target, img image.Image, err error) {
	s := &b.slots[id]
	if epoch != b.epoch || id == b.active || s.Target != t || s.Ready {
		return
	}
	s.Image, s.Err, s.Ready = img, err, true
	if t != b.latest {
		return
	}
	b.promote(id)
}

func (b *Buffer) promote(id SlotID) {
	prev := b.slots[b.active]
	tr := Transition{
		From:       b.active,
		To:         id,
		PageChange: !prev.Ready || prev.Target.Page != b.slots[id].Target.Page,
		Direction:  b.dir,
	}
	b.active = id
	b.pending = false
	if b.onSwap != nil {
		b.onSwap(tr)
	}
}

// Visible returns the slot on screen.
func (b *Buffer) Visible() Slot { return b.slots[b.active] }

// Active returns the id of the slot on screen.
func (b *Buffer) Active() SlotID { return b.active }

// Slot returns a slot by id.
func (b *Buffer) Slot(id SlotID) Slot { return b.slots[id] }

// Pending reports whether a render for the latest target is in flight.
func (b *Buffer) Pending() bool { return b.pending }

// ReleaseStandby drops the standby bitmap once it is no longer needed for
// a transition, bounding the buffer to one materialized bitmap at rest.
func (b *Buffer) ReleaseStandby() {
	if b.pending {
		return
	}
	b.slots[b.active.Other()] = Slot{}
}

// Reset empties both slots, e.g. when the document changes. Completions of
// renders issued before the reset are discarded.
func (b *Buffer) Reset() {
	b.slots = [2]Slot{}
	b.epoch++
	b.active = A
	b.pending = false
	b.latest = Target{}
}
