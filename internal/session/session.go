// Package session runs one starfield on a terminal, locally or over SSH.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/input"
	"github.com/tomz197/starfield/internal/layout"
	"github.com/tomz197/starfield/internal/loop"
	"github.com/tomz197/starfield/internal/starfield"
)

// ErrIdle is returned by Run when the session saw no input for IdleTimeout.
var ErrIdle = errors.New("session: idle timeout")

// Movement per frame of a held arrow key, in logical units.
const (
	moveStepX = 2
	moveStepY = 2
)

// shutdownDisplay is how long the shutdown notice stays up before disconnecting.
var shutdownDisplay = 3 * time.Second

// Options configures a session.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Profile      termenv.Profile
	FPS          int
	Mouse        bool
	Banner       string
	ShowStatus   bool

	// IdleTimeout disconnects after this long without input; zero disables it.
	// A warning is shown once IdleWarning has passed.
	IdleTimeout time.Duration
	IdleWarning time.Duration

	// Shutdown, when closed, shows a notice and ends the session.
	Shutdown <-chan struct{}

	Overrides starfield.Overrides
	Logger    *log.Logger
	Rand      *rand.Rand
}

// Session owns the terminal, the input stream and one starfield.
type Session struct {
	opts        Options
	writer      io.Writer
	canvas      *draw.Canvas
	chunkWriter *draw.ChunkWriter
	inputStream *input.Stream
	sched       *loop.Scheduler
	host        *terminalHost
	field       *starfield.Field
	logger      *log.Logger

	banner     *layout.Element
	bannerCell cellRect // Where the banner was drawn last frame
	hover      layout.Hover
	pointerX   float64
	pointerY   float64
	pointerSet bool
	boost      bool

	lastInput     time.Time
	idle          bool
	shuttingDown  time.Time
	overlayActive bool
}

// New creates a session reading keys from r and drawing to w.
func New(r *bufio.Reader, w io.Writer, opts Options) *Session {
	if opts.TermSizeFunc == nil {
		opts.TermSizeFunc = draw.DefaultTermSizeFunc
	}
	if opts.FPS <= 0 {
		opts.FPS = loop.DefaultFPS
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	cols, rows, err := opts.TermSizeFunc()
	if err != nil {
		cols, rows = 80, 24
	}

	canvas := draw.NewCanvas(cols, rows*2)
	host := newTerminalHost(canvas, cols, rows)
	sched := loop.NewScheduler()

	s := &Session{
		opts:        opts,
		writer:      w,
		canvas:      canvas,
		chunkWriter: draw.NewChunkWriter(w),
		inputStream: input.StartStream(r),
		sched:       sched,
		host:        host,
		logger:      logger,
		lastInput:   time.Now(),
	}
	if opts.Banner != "" {
		s.banner = layout.NewCentered(opts.Banner, bannerWidth(opts.Banner), bannerRows*2, float64(cols), float64(rows*2))
		s.banner.Clamp(float64(cols), float64(rows*2))
	}

	fieldOpts := []starfield.Option{starfield.WithLogger(logger)}
	if opts.Rand != nil {
		fieldOpts = append(fieldOpts, starfield.WithRand(opts.Rand))
	}
	if s.banner != nil {
		fieldOpts = append(fieldOpts, starfield.WithOriginTracker(s.banner))
	}
	s.field = starfield.New(host, sched, fieldOpts...)
	return s
}

// Field returns the session's starfield.
func (s *Session) Field() *starfield.Field {
	return s.field
}

// Run starts the starfield and blocks until the user quits, the input
// closes, ctx is canceled or the session goes idle.
func (s *Session) Run(ctx context.Context) error {
	draw.HideCursor(s.writer)
	defer draw.ShowCursor(s.writer)
	draw.ClearScreen(s.writer)
	if s.opts.Mouse {
		draw.EnableMouse(s.writer)
		defer draw.DisableMouse(s.writer)
	}

	if err := s.field.Setup(s.opts.Overrides); err != nil {
		return fmt.Errorf("start starfield: %w", err)
	}
	defer s.field.Cleanup()

	err := loop.Run(ctx, s.sched, loop.Options{
		FPS:    s.opts.FPS,
		Before: s.beforeFrame,
		After:  s.present,
	})

	draw.ClearScreen(s.writer)
	return err
}

// beforeFrame handles input and terminal resizes ahead of the frame callback.
func (s *Session) beforeFrame() error {
	now := time.Now()
	in := input.ReadInput(s.inputStream)

	if len(in.Pressed) > 0 {
		s.lastInput = now
		s.idle = false
	} else if s.opts.IdleTimeout > 0 {
		since := now.Sub(s.lastInput)
		if since > s.opts.IdleTimeout {
			s.logger.Info("session idle, disconnecting", "after", since.Round(time.Second))
			return ErrIdle
		}
		s.idle = s.opts.IdleWarning > 0 && since > s.opts.IdleWarning
	}

	if in.Quit {
		return loop.ErrStopped
	}
	if s.checkShutdown(now) {
		return loop.ErrStopped
	}

	s.syncSize()
	s.handleInput(in)
	return nil
}

// checkShutdown reports whether the shutdown notice has been shown long enough.
func (s *Session) checkShutdown(now time.Time) bool {
	if s.opts.Shutdown == nil {
		return false
	}
	if s.shuttingDown.IsZero() {
		select {
		case <-s.opts.Shutdown:
			s.shuttingDown = now
		default:
			return false
		}
	}
	return now.Sub(s.shuttingDown) >= shutdownDisplay
}

// syncSize polls the terminal size and forwards changes to the starfield.
// On a change the terminal is cleared so nothing is left outside the new canvas.
func (s *Session) syncSize() {
	cols, rows, err := s.opts.TermSizeFunc()
	if err != nil || cols <= 0 || rows <= 0 {
		return
	}
	if !s.host.resize(cols, rows) {
		return
	}

	s.chunkWriter.WriteString("\033[H\033[2J")
	s.canvas.ForceRedraw()
	if s.banner != nil {
		s.banner.Clamp(float64(cols), float64(rows*2))
		s.recheckHover()
	}
}

// handleInput applies keys and pointer reports to the starfield and banner.
func (s *Session) handleInput(in input.Input) {
	if in.Accelerate {
		s.boost = !s.boost
	}
	if in.ToggleOrigin {
		cfg := s.field.Config()
		mode := starfield.OriginFixed
		if cfg.OriginMode == starfield.OriginFixed {
			mode = starfield.OriginTrack
		}
		s.field.SetOriginMode(mode)
	}

	if s.banner != nil {
		dx, dy := 0.0, 0.0
		if in.Left {
			dx -= moveStepX
		}
		if in.Right {
			dx += moveStepX
		}
		if in.Up {
			dy -= moveStepY
		}
		if in.Down {
			dy += moveStepY
		}
		if dx != 0 || dy != 0 {
			w, h := s.host.Size()
			s.banner.Move(dx, dy)
			s.banner.Clamp(float64(w), float64(h))
			s.recheckHover()
		}
	}

	for _, m := range in.Mouse {
		// Pointer position in logical units, at the center of the reported cell.
		x := float64(m.X-1) + 0.5
		y := float64(m.Y-1)*2 + 1
		s.pointerX, s.pointerY, s.pointerSet = x, y, true

		if s.banner != nil {
			s.hover.Update(s.banner, x, y)
		}
		if m.Click() && s.field.Config().OriginMode == starfield.OriginFixed {
			s.field.SetOrigin(x, y)
		}
	}

	s.field.SetAccelerate(s.boost || s.hover.Inside())
}

func (s *Session) recheckHover() {
	s.hover.Recheck(s.banner, s.pointerX, s.pointerY, s.pointerSet)
}
