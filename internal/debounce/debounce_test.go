package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestTaskFiresAfterDelay(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32
	task := NewTask(mock, 600*time.Millisecond, func() { calls.Add(1) })

	task.Arm()
	assert.True(t, task.Pending())

	mock.Add(599 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.True(t, task.Pending())

	mock.Add(time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	assert.False(t, task.Pending())
}

func TestTaskRearmRestartsDelay(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32
	task := NewTask(mock, 600*time.Millisecond, func() { calls.Add(1) })

	task.Arm()
	mock.Add(400 * time.Millisecond)
	task.Arm()
	mock.Add(400 * time.Millisecond)
	assert.Zero(t, calls.Load(), "first arming must not fire after being replaced")
	assert.True(t, task.Pending())

	mock.Add(200 * time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)

	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 1, calls.Load())
}

func TestTaskCancel(t *testing.T) {
	mock := clock.NewMock()
	var calls atomic.Int32
	task := NewTask(mock, time.Second, func() { calls.Add(1) })

	task.Arm()
	task.Cancel()
	assert.False(t, task.Pending())
	mock.Add(2 * time.Second)
	time.Sleep(10 * time.Millisecond)

	assert.Zero(t, calls.Load())
}

func TestWallClockTask(t *testing.T) {
	done := make(chan struct{})
	task := NewTask(nil, 5*time.Millisecond, func() { close(done) })
	task.Arm()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
}
