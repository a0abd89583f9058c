package starfield

import (
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/loop"
)

type stroke struct {
	path  []draw.Point
	g     draw.Gradient
	width float64
}

// fakeSurface records what the field draws. Strokes are kept for the most
// recent frame only; every frame starts with a Fill.
type fakeSurface struct {
	mu            sync.Mutex
	width, height int
	fills         int
	strokes       []stroke
}

func (s *fakeSurface) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

func (s *fakeSurface) Fill(draw.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills++
	s.strokes = s.strokes[:0]
}

func (s *fakeSurface) StrokeTrail(path []draw.Point, g draw.Gradient, width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = append(s.strokes, stroke{path: slices.Clone(path), g: g, width: width})
}

func (s *fakeSurface) lastStrokes() []stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.strokes)
}

type fakeContainer struct {
	mu        sync.Mutex
	width     int
	height    int
	ratio     float64
	attachErr error
	surface   *fakeSurface
	attached  bool
	observers map[int]func(int, int)
	nextObs   int
}

func newFakeContainer(width, height int) *fakeContainer {
	return &fakeContainer{width: width, height: height, ratio: 1, observers: map[int]func(int, int){}}
}

func (c *fakeContainer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *fakeContainer) PixelRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ratio
}

func (c *fakeContainer) Attach() (Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attachErr != nil {
		return nil, c.attachErr
	}
	c.surface = &fakeSurface{}
	c.attached = true
	return c.surface, nil
}

func (c *fakeContainer) Detach(Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = false
}

func (c *fakeContainer) ObserveResize(fn func(int, int)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// resize changes the size and notifies observers synchronously.
func (c *fakeContainer) resize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	fns := make([]func(int, int), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(width, height)
	}
}

func (c *fakeContainer) observerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

func (c *fakeContainer) isAttached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// constSource makes every Float64 call return 0.5.
type constSource struct{}

func (constSource) Uint64() uint64 { return 1 << 52 }

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newTestField(t *testing.T, c Container, opts ...Option) (*Field, *loop.Scheduler) {
	t.Helper()
	sched := loop.NewScheduler()
	opts = append([]Option{WithRand(seeded())}, opts...)
	f := New(c, sched, opts...)
	t.Cleanup(f.Cleanup)
	return f, sched
}

func tick(sched *loop.Scheduler, frames int) {
	for i := 0; i < frames; i++ {
		sched.Tick(time.Time{})
	}
}

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func strp(v string) *string { return &v }

func modep(m OriginMode) *OriginMode { return &m }
