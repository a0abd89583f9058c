// Package snapshot renders a starfield offscreen to an image.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/loop"
	"github.com/tomz197/starfield/internal/starfield"
)

var ErrInvalidSize = errors.New("snapshot: invalid size")

// Request describes one snapshot.
type Request struct {
	Width, Height int
	// Frames is the number of frames simulated before capture.
	Frames     int
	Seed       uint64
	Accelerate bool
	Overrides  starfield.Overrides
}

// offscreen is a fixed-size container backed by a canvas.
type offscreen struct {
	canvas        *draw.Canvas
	width, height int
}

func (o *offscreen) Size() (int, int) {
	return o.width, o.height
}

func (o *offscreen) PixelRatio() float64 {
	return 1
}

func (o *offscreen) Attach() (starfield.Surface, error) {
	return o.canvas, nil
}

func (o *offscreen) Detach(starfield.Surface) {}

func (o *offscreen) ObserveResize(func(int, int)) func() {
	return func() {}
}

// Render simulates req.Frames frames and returns the final canvas.
// The same request always produces the same image.
func Render(req Request, logger *log.Logger) (*image.RGBA, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, req.Width, req.Height)
	}

	host := &offscreen{
		canvas: draw.NewCanvas(req.Width, req.Height),
		width:  req.Width,
		height: req.Height,
	}
	sched := loop.NewScheduler()
	opts := []starfield.Option{starfield.WithRand(rand.New(rand.NewPCG(req.Seed, req.Seed^0x5eed)))}
	if logger != nil {
		opts = append(opts, starfield.WithLogger(logger))
	}

	field := starfield.New(host, sched, opts...)
	if err := field.Setup(req.Overrides); err != nil {
		return nil, err
	}
	defer field.Cleanup()
	field.SetAccelerate(req.Accelerate)

	// Simulated time advances at 60 frames per second from the zero time.
	var now time.Time
	for i := 0; i < req.Frames; i++ {
		now = now.Add(time.Second / loop.DefaultFPS)
		sched.Tick(now)
	}
	return host.canvas.Image(), nil
}
