// Package layout holds the element the starfield origin can track.
package layout

// Element is an axis-aligned box in logical units.
type Element struct {
	X, Y          float64
	Width, Height float64
	Label         string
	Hidden        bool
}

// NewCentered creates an element of the given size centered in a w x h area.
func NewCentered(label string, width, height, w, h float64) *Element {
	return &Element{
		X:      (w - width) / 2,
		Y:      (h - height) / 2,
		Width:  width,
		Height: height,
		Label:  label,
	}
}

// Center returns the middle of the box.
func (e *Element) Center() (x, y float64) {
	return e.X + e.Width/2, e.Y + e.Height/2
}

// Origin reports the center of a visible element.
func (e *Element) Origin() (x, y float64, ok bool) {
	if e == nil || e.Hidden || e.Width <= 0 || e.Height <= 0 {
		return 0, 0, false
	}
	x, y = e.Center()
	return x, y, true
}

// Contains reports whether (x, y) lies inside the box. The right and bottom
// edges are exclusive.
func (e *Element) Contains(x, y float64) bool {
	if e.Hidden {
		return false
	}
	return x >= e.X && x < e.X+e.Width && y >= e.Y && y < e.Y+e.Height
}

// Move shifts the box.
func (e *Element) Move(dx, dy float64) {
	e.X += dx
	e.Y += dy
}

// Clamp keeps the box inside a w x h area. A box larger than the area is
// pinned to the top-left corner.
func (e *Element) Clamp(w, h float64) {
	e.X = max(min(e.X, w-e.Width), 0)
	e.Y = max(min(e.Y, h-e.Height), 0)
}

// Transition is a change of hover state.
type Transition int

const (
	NoChange Transition = iota
	Enter
	Leave
)

// Hover turns pointer positions into enter and leave transitions for an element.
type Hover struct {
	inside bool
}

// Inside reports the last known hover state.
func (h *Hover) Inside() bool {
	return h.inside
}

// Update records a pointer position.
func (h *Hover) Update(e *Element, x, y float64) Transition {
	return h.set(e.Contains(x, y))
}

// Recheck re-evaluates the last pointer position after the element moved.
func (h *Hover) Recheck(e *Element, x, y float64, known bool) Transition {
	if !known {
		return NoChange
	}
	return h.Update(e, x, y)
}

// Exit records that the pointer left the surface entirely.
func (h *Hover) Exit() Transition {
	return h.set(false)
}

func (h *Hover) set(inside bool) Transition {
	if inside == h.inside {
		return NoChange
	}
	h.inside = inside
	if inside {
		return Enter
	}
	return Leave
}
