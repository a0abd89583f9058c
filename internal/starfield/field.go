// Package starfield implements the radial star trail animation engine.
package starfield

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/loop"
)

var (
	ErrNoContainer       = errors.New("starfield: no container")
	ErrNoScheduler       = errors.New("starfield: no scheduler")
	ErrAlreadyRunning    = errors.New("starfield: already running")
	ErrInvalidOriginMode = errors.New("starfield: invalid origin mode")
)

// Option configures a Field.
type Option func(*Field)

// WithRand sets the random source used for star creation and resets.
func WithRand(r *rand.Rand) Option {
	return func(f *Field) { f.rng = r }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *log.Logger) Option {
	return func(f *Field) { f.logger = l }
}

// WithOriginTracker sets the tracker used in OriginTrack mode.
func WithOriginTracker(t OriginTracker) Option {
	return func(f *Field) { f.tracker = t }
}

// Field is one starfield animation bound to a container.
type Field struct {
	container Container
	sched     Scheduler
	rng       *rand.Rand
	logger    *log.Logger
	tracker   OriginTracker

	mu          sync.Mutex
	cfg         Config
	stars       []star
	surface     Surface
	width       int // Logical units
	height      int
	ratio       float64
	multiplier  float64
	accelerate  bool
	running     bool
	generation  uint64
	frameID     loop.FrameID
	hasFrame    bool
	disconnect  func()
	path        []draw.Point // Scratch for render
	trailBacker []draw.Point

	// Resize notifications only record the new size; the next frame applies it.
	live        atomic.Bool
	sizeMu      sync.Mutex
	pendingW    int
	pendingH    int
	sizePending bool
}

// New creates a stopped field. Call Setup to start it.
func New(container Container, sched Scheduler, opts ...Option) *Field {
	f := &Field{
		container:  container,
		sched:      sched,
		cfg:        Defaults(),
		ratio:      1,
		multiplier: restMultiplier,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	return f
}

// Setup merges o into the configuration, attaches a surface, populates the
// stars and starts the frame loop. Nothing is left behind on error.
func (f *Field) Setup(o Overrides) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return ErrAlreadyRunning
	}
	if f.container == nil {
		f.logger.Warn("starfield not started", "err", ErrNoContainer)
		return ErrNoContainer
	}
	if f.sched == nil {
		return ErrNoScheduler
	}

	cfg, err := f.cfg.Merge(o)
	if err != nil {
		return fmt.Errorf("starfield: setup: %w", err)
	}
	surface, err := f.container.Attach()
	if err != nil {
		return fmt.Errorf("starfield: attach surface: %w", err)
	}

	f.cfg = cfg
	f.surface = surface
	f.resize(f.container.Size())
	f.multiplier = restMultiplier
	f.populate()

	f.sizeMu.Lock()
	f.sizePending = false
	f.sizeMu.Unlock()
	f.live.Store(true)
	f.disconnect = f.container.ObserveResize(f.onResize)

	f.running = true
	f.generation++
	f.requestFrame()

	f.logger.Debug("starfield started",
		"stars", len(f.stars), "width", f.width, "height", f.height, "ratio", f.ratio, "origin", f.cfg.OriginMode)
	return nil
}

// Cleanup stops the loop and releases the surface and stars. It is safe to
// call at any time, any number of times.
func (f *Field) Cleanup() {
	f.live.Store(false)

	f.mu.Lock()
	defer f.mu.Unlock()

	wasRunning := f.running
	f.running = false
	if f.hasFrame {
		f.sched.CancelFrame(f.frameID)
		f.hasFrame = false
	}
	if f.disconnect != nil {
		f.disconnect()
		f.disconnect = nil
	}
	if f.surface != nil {
		f.container.Detach(f.surface)
		f.surface = nil
	}
	f.stars = nil
	f.trailBacker = nil
	f.accelerate = false
	f.multiplier = restMultiplier

	if wasRunning {
		f.logger.Debug("starfield stopped")
	}
}

// SetAccelerate selects whether the global multiplier eases up or down.
func (f *Field) SetAccelerate(enabled bool) {
	f.mu.Lock()
	f.accelerate = enabled
	f.mu.Unlock()
}

// SetOrigin sets the fixed origin used when not tracking.
func (f *Field) SetOrigin(x, y float64) {
	f.mu.Lock()
	f.cfg.OriginX = ptr(x)
	f.cfg.OriginY = ptr(y)
	f.mu.Unlock()
}

// SetOriginX sets the fixed origin's x coordinate.
func (f *Field) SetOriginX(x float64) {
	f.mu.Lock()
	f.cfg.OriginX = ptr(x)
	f.mu.Unlock()
}

// SetOriginY sets the fixed origin's y coordinate.
func (f *Field) SetOriginY(y float64) {
	f.mu.Lock()
	f.cfg.OriginY = ptr(y)
	f.mu.Unlock()
}

// SetOriginMode switches between tracking and the fixed origin.
func (f *Field) SetOriginMode(m OriginMode) {
	if m != OriginTrack && m != OriginFixed {
		return
	}
	f.mu.Lock()
	f.cfg.OriginMode = m
	f.mu.Unlock()
}

// Running reports whether the loop is active.
func (f *Field) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Accelerating reports the current accelerate flag.
func (f *Field) Accelerating() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accelerate
}

// Multiplier returns the global speed multiplier.
func (f *Field) Multiplier() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.multiplier
}

// Size returns the canvas size in logical units.
func (f *Field) Size() (width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}

// Config returns a copy of the active configuration.
func (f *Field) Config() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cfg
	if c.OriginX != nil {
		c.OriginX = ptr(*c.OriginX)
	}
	if c.OriginY != nil {
		c.OriginY = ptr(*c.OriginY)
	}
	return c
}

// Stars returns a snapshot of every star. It is nil when not running.
func (f *Field) Stars() []Star {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stars == nil {
		return nil
	}
	out := make([]Star, len(f.stars))
	for i := range f.stars {
		out[i] = f.stars[i].snapshot()
	}
	return out
}

// requestFrame schedules the next frame for the current session.
func (f *Field) requestFrame() {
	gen := f.generation
	f.frameID = f.sched.RequestFrame(func(now time.Time) { f.frame(gen, now) })
	f.hasFrame = true
}

// frame runs one update and render. Callbacks left over from an earlier
// session do nothing.
func (f *Field) frame(gen uint64, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.running || gen != f.generation {
		return
	}
	f.requestFrame()

	f.applyPendingSize()
	f.update()
	f.render()
}

func (f *Field) onResize(width, height int) {
	if !f.live.Load() {
		return
	}
	f.sizeMu.Lock()
	f.pendingW, f.pendingH = width, height
	f.sizePending = true
	f.sizeMu.Unlock()
}

func (f *Field) applyPendingSize() {
	f.sizeMu.Lock()
	w, h, ok := f.pendingW, f.pendingH, f.sizePending
	f.sizePending = false
	f.sizeMu.Unlock()

	if ok {
		f.resize(w, h)
	}
}

// resize updates the logical size and the surface backing store. Stars and
// trails are left alone.
func (f *Field) resize(width, height int) {
	f.width = max(width, 0)
	f.height = max(height, 0)
	f.ratio = f.container.PixelRatio()
	if f.ratio <= 0 || !isFinite(f.ratio) {
		f.ratio = 1
	}
	f.surface.SetSize(
		int(math.Round(float64(f.width)*f.ratio)),
		int(math.Round(float64(f.height)*f.ratio)),
	)
}
