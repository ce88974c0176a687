// Package zoom turns wheel and drag gestures into a scale + translation
// transform for a centred piece of content, and keeps the translation
// inside bounds derived from the content and viewport sizes.
//
// Coordinates are in viewport units with the origin at the viewport's top
// left corner. At rest the content is centred; a content point c (relative
// to the content centre, unscaled) is drawn at
//
//	centre + Translation + c*Scale
package zoom

import "math"

// Point is a position or offset in viewport units.
type Point struct {
	X, Y float64
}

// Size is a width and height in viewport units.
type Size struct {
	W, H float64
}

// Empty reports whether either dimension is unmeasured.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Transform is the current view transform.
type Transform struct {
	Scale       float64
	Translation Point
}

// Identity is the resting transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// IsIdentity reports whether t is exactly the resting transform.
func (t Transform) IsIdentity() bool {
	return t.Scale == 1 && t.Translation == Point{}
}

// Limits configures an Engine.
type Limits struct {
	// Min and Max bound the scale.
	Min, Max float64
	// Snap is the scale at or below which a zoom snaps back to Identity.
	Snap float64
	// Margin is how far, in viewport units, the content edge may be pulled
	// inside the viewport edge.
	Margin float64
	// Damping divides the overshoot past the bounds while dragging.
	Damping float64
	// WheelSensitivity converts one unit of wheel delta into a relative
	// scale change.
	WheelSensitivity float64
}

// DefaultLimits returns the standard viewer limits.
func DefaultLimits() Limits {
	return Limits{
		Min:              1,
		Max:              4,
		Snap:             1.05,
		Margin:           50,
		Damping:          3,
		WheelSensitivity: 0.02,
	}
}

// Engine holds the transform and gesture state. It is not safe for
// concurrent use.
type Engine struct {
	limits    Limits
	t         Transform
	content   Size
	viewport  Size
	dragging  bool
	dragStart Point
	dragRaw   Point
}

// NewEngine returns an engine at Identity.
func NewEngine(limits Limits) *Engine {
	if limits.Min <= 0 {
		limits.Min = 1
	}
	if limits.Max < limits.Min {
		limits.Max = limits.Min
	}
	if limits.Damping < 1 {
		limits.Damping = 1
	}
	return &Engine{limits: limits, t: Identity()}
}

// Transform returns the current transform.
func (e *Engine) Transform() Transform { return e.t }

// Limits returns the engine configuration.
func (e *Engine) Limits() Limits { return e.limits }

// Dragging reports whether a drag is in progress.
func (e *Engine) Dragging() bool { return e.dragging }

// Ready reports whether both the content and the viewport have been
// measured. Gestures are ignored until then.
func (e *Engine) Ready() bool {
	return !e.content.Empty() && !e.viewport.Empty()
}

// SetContent sets the unscaled content size and re-clamps the translation.
func (e *Engine) SetContent(s Size) {
	e.content = s
	e.settle()
}

// SetViewport sets the viewport size and re-clamps the translation.
func (e *Engine) SetViewport(s Size) {
	e.viewport = s
	e.settle()
}

// Reset returns to Identity and abandons any drag.
func (e *Engine) Reset() {
	e.t = Identity()
	e.dragging = false
	e.dragRaw = Point{}
}

// Bounds returns the largest allowed |Translation.X| and |Translation.Y|
// for the current scale. An axis whose scaled content fits inside the
// viewport has a zero bound.
func (e *Engine) Bounds() Point {
	return e.BoundsAt(e.t.Scale)
}

// BoundsAt returns Bounds for an arbitrary scale.
func (e *Engine) BoundsAt(scale float64) Point {
	if !e.Ready() {
		return Point{}
	}
	return Point{
		X: axisBound(e.content.W*scale, e.viewport.W, e.limits.Margin),
		Y: axisBound(e.content.H*scale, e.viewport.H, e.limits.Margin),
	}
}

func axisBound(content, viewport, margin float64) float64 {
	overflow := content - viewport
	if overflow <= 0 {
		return 0
	}
	return overflow/2 + margin
}

// ZoomAt changes the scale to target while keeping the content point under
// pointer fixed. The scale is clamped to the limits; zooming out to the snap
// threshold or below becomes exactly Identity. The resulting translation is
// always clamped to the bounds, so a pointer outside the content moves the
// anchor rather than the content off screen.
func (e *Engine) ZoomAt(pointer Point, target float64) (Transform, bool) {
	if !e.Ready() || e.dragging {
		return e.t, false
	}
	target = clamp(target, e.limits.Min, e.limits.Max)
	if target <= e.limits.Min || (target < e.t.Scale && target <= e.limits.Snap) {
		changed := !e.t.IsIdentity()
		e.t = Identity()
		return e.t, changed
	}
	if target == e.t.Scale {
		return e.t, false
	}

	centre := e.centre()
	// content point under the pointer, unscaled
	cx := (pointer.X - centre.X - e.t.Translation.X) / e.t.Scale
	cy := (pointer.Y - centre.Y - e.t.Translation.Y) / e.t.Scale

	e.t = Transform{
		Scale: target,
		Translation: Point{
			X: pointer.X - centre.X - cx*target,
			Y: pointer.Y - centre.Y - cy*target,
		},
	}
	e.t.Translation = e.clampHard(e.t.Translation)
	return e.t, true
}

// Wheel applies a wheel step at pointer. Positive delta zooms in.
func (e *Engine) Wheel(pointer Point, delta float64) (Transform, bool) {
	factor := 1 + delta*e.limits.WheelSensitivity
	if factor < 0.1 {
		factor = 0.1
	}
	return e.ZoomAt(pointer, e.t.Scale*factor)
}

// ZoomBy adds step to the scale, anchored at the viewport centre.
func (e *Engine) ZoomBy(step float64) (Transform, bool) {
	return e.ZoomAt(e.centre(), e.t.Scale+step)
}

// ContentAt returns the unscaled content point drawn under pointer.
func (e *Engine) ContentAt(pointer Point) Point {
	centre := e.centre()
	return Point{
		X: (pointer.X - centre.X - e.t.Translation.X) / e.t.Scale,
		Y: (pointer.Y - centre.Y - e.t.Translation.Y) / e.t.Scale,
	}
}

// BeginDrag starts a pan. It returns false when the content is not zoomed
// in, since there is nothing to pan.
func (e *Engine) BeginDrag() bool {
	if !e.Ready() || e.t.Scale <= 1 {
		return false
	}
	e.dragging = true
	e.dragStart = e.t.Translation
	e.dragRaw = Point{}
	return true
}

// DragBy moves the pan by delta since the previous call. Past the bounds
// the movement is damped, giving an elastic overshoot.
func (e *Engine) DragBy(delta Point) Transform {
	if !e.dragging {
		return e.t
	}
	e.dragRaw.X += delta.X
	e.dragRaw.Y += delta.Y
	b := e.Bounds()
	e.t.Translation = Point{
		X: resist(e.dragStart.X+e.dragRaw.X, b.X, e.limits.Damping),
		Y: resist(e.dragStart.Y+e.dragRaw.Y, b.Y, e.limits.Damping),
	}
	return e.t
}

// EndDrag finishes a pan and snaps any overshoot back inside the bounds.
func (e *Engine) EndDrag() Transform {
	e.dragging = false
	e.dragRaw = Point{}
	e.t.Translation = e.clampHard(e.t.Translation)
	return e.t
}

func (e *Engine) centre() Point {
	return Point{X: e.viewport.W / 2, Y: e.viewport.H / 2}
}

func (e *Engine) settle() {
	if e.t.Scale <= 1 {
		e.t = Identity()
		return
	}
	if !e.dragging {
		e.t.Translation = e.clampHard(e.t.Translation)
	}
}

func (e *Engine) clampHard(p Point) Point {
	b := e.Bounds()
	return Point{X: clamp(p.X, -b.X, b.X), Y: clamp(p.Y, -b.Y, b.Y)}
}

func resist(pos, limit, damping float64) float64 {
	if pos > limit {
		return limit + (pos-limit)/damping
	}
	if pos < -limit {
		return -limit + (pos+limit)/damping
	}
	return pos
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
