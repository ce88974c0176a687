// Package debounce provides a cancellable delayed task driven by an
// injectable clock.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Task runs a function once its input has settled: every Arm restarts the
// delay, and only the last arming fires.
type Task struct {
	clock clock.Clock
	delay time.Duration
	fn    func()

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
}

// NewTask creates a task that calls fn after delay without re-arming.
// A nil clock means the wall clock.
func NewTask(c clock.Clock, delay time.Duration, fn func()) *Task {
	if c == nil {
		c = clock.New()
	}
	return &Task{clock: c, delay: delay, fn: fn}
}

// Arm cancels any pending call and schedules a new one.
func (t *Task) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.delay, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		t.fn()
	})
}

// Cancel drops the pending call, if any.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Pending reports whether a call is scheduled.
func (t *Task) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
