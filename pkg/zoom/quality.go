package zoom

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"folio/internal/debounce"
)

// QualityConfig configures the render quality policy.
type QualityConfig struct {
	// DevicePixelRatio is the number of device pixels per viewport unit.
	DevicePixelRatio float64
	// ConstrainedCap is the fixed level used on memory-constrained
	// (narrow) viewports, capped further by DevicePixelRatio.
	ConstrainedCap float64
	// WideFactor multiplies DevicePixelRatio for the resting level on
	// wide viewports.
	WideFactor float64
	// Headroom multiplies the needed level when escalating.
	Headroom float64
	// SettleDelay is how long the scale must stay put before the level is
	// re-evaluated.
	SettleDelay time.Duration
}

// DefaultQualityConfig returns the standard policy for a ratio-1 display.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		DevicePixelRatio: 1,
		ConstrainedCap:   1.5,
		WideFactor:       2,
		Headroom:         1.2,
		SettleDelay:      600 * time.Millisecond,
	}
}

// Quality decides the raster resolution multiplier for the current visual
// scale. Changes are debounced: only once the scale has settled is a new
// level computed, and only when the cached level is too low or more than
// twice what is needed. On constrained viewports the level is fixed.
//
// Quality is safe for concurrent use; onChange runs without locks held,
// on the clock's goroutine for settled changes.
type Quality struct {
	mu          sync.Mutex
	cfg         QualityConfig
	constrained bool
	level       float64
	scale       float64
	task        *debounce.Task
	onChange    func(level float64)
}

// NewQuality returns a policy at its resting level. onChange may be nil.
func NewQuality(cfg QualityConfig, clk clock.Clock, onChange func(level float64)) *Quality {
	if cfg.DevicePixelRatio <= 0 {
		cfg.DevicePixelRatio = 1
	}
	q := &Quality{cfg: cfg, scale: 1, onChange: onChange}
	q.level = q.baseLocked()
	q.task = debounce.NewTask(clk, cfg.SettleDelay, q.settle)
	return q
}

// Level returns the current raster multiplier.
func (q *Quality) Level() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.level
}

// Base returns the resting level for the current context.
func (q *Quality) Base() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.baseLocked()
}

// Constrained reports whether escalation is disabled.
func (q *Quality) Constrained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.constrained
}

// Observe records a new visual scale. The level is re-evaluated once no
// further scale arrives within the settle delay.
func (q *Quality) Observe(scale float64) {
	q.mu.Lock()
	if q.constrained {
		q.mu.Unlock()
		return
	}
	q.scale = scale
	q.mu.Unlock()
	q.task.Arm()
}

// Reset drops any pending evaluation and returns to the resting level.
func (q *Quality) Reset() {
	q.task.Cancel()
	q.mu.Lock()
	q.scale = 1
	changed := q.setLocked(q.baseLocked())
	level := q.level
	q.mu.Unlock()
	q.notify(changed, level)
}

// SetConstrained switches between the fixed and the adaptive policy and
// resets the level.
func (q *Quality) SetConstrained(constrained bool) {
	q.mu.Lock()
	same := q.constrained == constrained
	q.constrained = constrained
	q.mu.Unlock()
	if !same {
		q.Reset()
	}
}

// SetDevicePixelRatio updates the display density and resets the level.
func (q *Quality) SetDevicePixelRatio(ratio float64) {
	if ratio <= 0 {
		return
	}
	q.mu.Lock()
	same := q.cfg.DevicePixelRatio == ratio
	q.cfg.DevicePixelRatio = ratio
	q.mu.Unlock()
	if !same {
		q.Reset()
	}
}

func (q *Quality) settle() {
	q.mu.Lock()
	if q.constrained {
		q.mu.Unlock()
		return
	}
	dpr := q.cfg.DevicePixelRatio
	needed := q.scale * dpr
	changed := false
	if needed > q.level || needed < q.level/2 {
		changed = q.setLocked(math.Max(needed*q.cfg.Headroom, dpr))
	}
	level := q.level
	q.mu.Unlock()
	q.notify(changed, level)
}

func (q *Quality) baseLocked() float64 {
	dpr := q.cfg.DevicePixelRatio
	if q.constrained {
		return math.Min(dpr, q.cfg.ConstrainedCap)
	}
	return dpr * q.cfg.WideFactor
}

func (q *Quality) setLocked(level float64) bool {
	if level == q.level {
		return false
	}
	q.level = level
	return true
}

func (q *Quality) notify(changed bool, level float64) {
	if changed && q.onChange != nil {
		q.onChange(level)
	}
}
