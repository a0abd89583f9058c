package session

import (
	"errors"
	"sync"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/starfield"
)

var errNoCanvas = errors.New("session: no canvas")

// terminalHost adapts a terminal to starfield.Container. A cell holds two
// vertically stacked pixels, so the logical size is cols x rows*2 with a
// pixel ratio of 1.
type terminalHost struct {
	mu        sync.Mutex
	canvas    *draw.Canvas
	cols      int
	rows      int
	attached  bool
	observers map[int]func(width, height int)
	nextObs   int
}

func newTerminalHost(canvas *draw.Canvas, cols, rows int) *terminalHost {
	return &terminalHost{
		canvas:    canvas,
		cols:      cols,
		rows:      rows,
		observers: make(map[int]func(int, int)),
	}
}

func (h *terminalHost) Size() (width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows * 2
}

// cells returns the terminal size in cells.
func (h *terminalHost) cells() (cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows
}

func (h *terminalHost) PixelRatio() float64 {
	return 1
}

func (h *terminalHost) Attach() (starfield.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.canvas == nil {
		return nil, errNoCanvas
	}
	h.attached = true
	return h.canvas, nil
}

func (h *terminalHost) Detach(starfield.Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached = false
}

func (h *terminalHost) ObserveResize(fn func(width, height int)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers, id)
	}
}

// resize records a new terminal size and notifies observers when it changed.
func (h *terminalHost) resize(cols, rows int) bool {
	h.mu.Lock()
	if cols == h.cols && rows == h.rows {
		h.mu.Unlock()
		return false
	}
	h.cols, h.rows = cols, rows
	fns := make([]func(int, int), 0, len(h.observers))
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(cols, rows*2)
	}
	return true
}

var _ starfield.Container = (*terminalHost)(nil)
