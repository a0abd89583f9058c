package starfield

import (
	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/loop"
)

// Surface is the drawing target a container hands to the field.
// Sizes are in device pixels.
type Surface interface {
	SetSize(width, height int)
	Fill(c draw.Color)
	StrokeTrail(path []draw.Point, g draw.Gradient, width float64)
}

// Container hosts the surface and reports its size in logical units.
type Container interface {
	Size() (width, height int)
	// PixelRatio is device pixels per logical unit. Values <= 0 mean 1.
	PixelRatio() float64
	Attach() (Surface, error)
	Detach(s Surface)
	// ObserveResize registers fn for size changes and returns a function
	// that unregisters it. fn may be called from any goroutine.
	ObserveResize(fn func(width, height int)) (disconnect func())
}

// Scheduler delivers the display refresh signal. *loop.Scheduler implements it.
type Scheduler interface {
	RequestFrame(cb loop.Callback) loop.FrameID
	CancelFrame(id loop.FrameID)
}

var _ Scheduler = (*loop.Scheduler)(nil)
