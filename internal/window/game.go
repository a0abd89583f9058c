// Package window hosts the starfield in a desktop window.
package window

import (
	"errors"
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/layout"
	"github.com/tomz197/starfield/internal/loop"
	"github.com/tomz197/starfield/internal/starfield"
)

// Banner size in logical units.
const (
	bannerWidth  = 220
	bannerHeight = 56
	moveStep     = 4
)

var bannerColor = color.NRGBA{R: 0xd8, G: 0xd8, B: 0xff, A: 0xff}

// Game is an ebiten.Game that runs one starfield. It is also the field's
// container: the logical size is the window size and the pixel ratio is the
// monitor's device scale factor.
type Game struct {
	cfg       config.Window
	overrides starfield.Overrides
	logger    *log.Logger

	sched   *loop.Scheduler
	field   *starfield.Field
	surface *surface
	banner  *layout.Element
	hover   layout.Hover
	boost   bool
	started bool

	mu        sync.Mutex
	width     int
	height    int
	ratio     float64
	observers map[int]func(int, int)
	nextObs   int
}

// New creates a game. The starfield starts on the first Update.
func New(cfg config.Window, overrides starfield.Overrides, logger *log.Logger) *Game {
	g := &Game{
		cfg:       cfg,
		overrides: overrides,
		logger:    logger,
		sched:     loop.NewScheduler(),
		surface:   &surface{},
		width:     cfg.Width,
		height:    cfg.Height,
		ratio:     1,
		observers: make(map[int]func(int, int)),
	}
	g.banner = layout.NewCentered(cfg.Title, bannerWidth, bannerHeight, float64(cfg.Width), float64(cfg.Height))
	g.field = starfield.New(g, g.sched, starfield.WithLogger(logger), starfield.WithOriginTracker(g.banner))
	return g
}

// Run opens the window and blocks until it is closed.
func Run(cfg config.Window, overrides starfield.Overrides, logger *log.Logger) error {
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	g := New(cfg, overrides, logger)
	defer g.field.Cleanup()

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

// Layout reports the device pixel size and forwards size changes to the field.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	if scale <= 0 {
		scale = 1
	}

	g.mu.Lock()
	changed := outsideWidth != g.width || outsideHeight != g.height || scale != g.ratio
	g.width, g.height, g.ratio = outsideWidth, outsideHeight, scale
	var fns []func(int, int)
	if changed {
		for _, fn := range g.observers {
			fns = append(fns, fn)
		}
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(outsideWidth, outsideHeight)
	}
	if changed {
		g.banner.Clamp(float64(outsideWidth), float64(outsideHeight))
	}
	return int(float64(outsideWidth) * scale), int(float64(outsideHeight) * scale)
}

// Update handles input and runs the starfield frame.
func (g *Game) Update() error {
	if !g.started {
		if err := g.field.Setup(g.overrides); err != nil {
			return fmt.Errorf("start starfield: %w", err)
		}
		g.started = true
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.boost = !g.boost
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		mode := starfield.OriginFixed
		if g.field.Config().OriginMode == starfield.OriginFixed {
			mode = starfield.OriginTrack
		}
		g.field.SetOriginMode(mode)
	}

	w, h := g.Size()
	dx, dy := 0.0, 0.0
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx -= moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx += moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy -= moveStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy += moveStep
	}
	if dx != 0 || dy != 0 {
		g.banner.Move(dx, dy)
		g.banner.Clamp(float64(w), float64(h))
	}

	// Cursor positions are in device pixels.
	cx, cy := ebiten.CursorPosition()
	ratio := g.PixelRatio()
	x, y := float64(cx)/ratio, float64(cy)/ratio
	if x < 0 || y < 0 || x >= float64(w) || y >= float64(h) {
		g.hover.Exit()
	} else {
		g.hover.Update(g.banner, x, y)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) &&
		g.field.Config().OriginMode == starfield.OriginFixed {
		g.field.SetOrigin(x, y)
	}

	g.field.SetAccelerate(g.boost || g.hover.Inside())
	g.sched.Tick(time.Now())
	return nil
}

// Draw blits the starfield and draws the banner on top.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.surface.img != nil {
		screen.DrawImage(g.surface.img, nil)
	}

	ratio := float32(g.PixelRatio())
	b := g.banner
	width := float32(1.5)
	if g.hover.Inside() {
		width = 3
	}
	vector.StrokeRect(screen, float32(b.X)*ratio, float32(b.Y)*ratio,
		float32(b.Width)*ratio, float32(b.Height)*ratio, width*ratio, bannerColor, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(float32(b.X+12)*ratio), int(float32(b.Y+b.Height/2-8)*ratio))

	mode := "track"
	if g.field.Config().OriginMode == starfield.OriginFixed {
		mode = "fixed"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("x%.1f  origin:%s  space warp  f origin  arrows move  q quit",
		g.field.Multiplier(), mode))
}

// Size implements starfield.Container.
func (g *Game) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

// PixelRatio implements starfield.Container.
func (g *Game) PixelRatio() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ratio
}

// Attach implements starfield.Container.
func (g *Game) Attach() (starfield.Surface, error) {
	return g.surface, nil
}

// Detach implements starfield.Container.
func (g *Game) Detach(starfield.Surface) {
	g.surface.release()
}

// ObserveResize implements starfield.Container.
func (g *Game) ObserveResize(fn func(int, int)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextObs
	g.nextObs++
	g.observers[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.observers, id)
	}
}

var (
	_ ebiten.Game         = (*Game)(nil)
	_ starfield.Container = (*Game)(nil)
)
