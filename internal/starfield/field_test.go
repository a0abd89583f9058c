package starfield

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/loop"
	"github.com/tomz197/starfield/internal/physics"
)

func TestSetupWithoutContainer(t *testing.T) {
	sched := loop.NewScheduler()
	f := New(nil, sched)

	if err := f.Setup(Overrides{}); !errors.Is(err, ErrNoContainer) {
		t.Fatalf("Setup() error = %v, want ErrNoContainer", err)
	}
	if f.Running() {
		t.Error("field is running after failed Setup")
	}
	if f.Stars() != nil {
		t.Error("stars allocated after failed Setup")
	}
	if n := sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
	f.Cleanup()
}

func TestSetupAttachError(t *testing.T) {
	boom := errors.New("no canvas")
	c := newFakeContainer(200, 100)
	c.attachErr = boom
	f, sched := newTestField(t, c)

	err := f.Setup(Overrides{})
	if !errors.Is(err, boom) {
		t.Fatalf("Setup() error = %v, want wrapped %v", err, boom)
	}
	if f.Running() || f.Stars() != nil {
		t.Error("partial state left after attach failure")
	}
	if c.observerCount() != 0 {
		t.Error("resize observer registered after attach failure")
	}
	if n := sched.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
}

func TestSetupInvalidColor(t *testing.T) {
	c := newFakeContainer(200, 100)
	f, _ := newTestField(t, c)

	err := f.Setup(Overrides{StarColor: strp("not-a-color")})
	if !errors.Is(err, draw.ErrInvalidColor) {
		t.Fatalf("Setup() error = %v, want ErrInvalidColor", err)
	}
	if c.isAttached() || f.Running() {
		t.Error("field started despite invalid configuration")
	}
}

func TestSetupTwice(t *testing.T) {
	f, sched := newTestField(t, newFakeContainer(200, 100))

	if err := f.Setup(Overrides{StarCount: intp(5)}); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := f.Setup(Overrides{StarCount: intp(50)}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Setup() error = %v, want ErrAlreadyRunning", err)
	}
	if n := len(f.Stars()); n != 5 {
		t.Errorf("second Setup changed star count to %d", n)
	}
	if n := sched.Pending(); n != 1 {
		t.Errorf("Pending() = %d, want exactly one frame request", n)
	}
}

func TestSetupMergesOverrides(t *testing.T) {
	f, _ := newTestField(t, newFakeContainer(200, 100))
	if err := f.Setup(Overrides{StarCount: intp(12), TrailFade: floatp(0.3)}); err != nil {
		t.Fatal(err)
	}

	cfg := f.Config()
	d := Defaults()
	if cfg.StarCount != 12 || cfg.TrailFade != 0.3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.BaseSpeed != d.BaseSpeed || cfg.AccelerationCeiling != d.AccelerationCeiling {
		t.Errorf("unset fields lost their defaults: %+v", cfg)
	}
	if w, h := f.Size(); w != 200 || h != 100 {
		t.Errorf("Size() = %dx%d, want 200x100", w, h)
	}
}

func TestStarCountIsConstant(t *testing.T) {
	f, sched := newTestField(t, newFakeContainer(120, 80))
	if err := f.Setup(Overrides{StarCount: intp(50)}); err != nil {
		t.Fatal(err)
	}
	f.SetAccelerate(true)

	for frame := 0; frame < 300; frame++ {
		tick(sched, 1)
		if n := len(f.Stars()); n != 50 {
			t.Fatalf("frame %d: %d stars, want 50", frame, n)
		}
	}
}

func TestTrailBound(t *testing.T) {
	for _, bound := range []int{2, 6, 20} {
		f, sched := newTestField(t, newFakeContainer(100, 100))
		if err := f.Setup(Overrides{StarCount: intp(30), TrailPoints: intp(bound)}); err != nil {
			t.Fatal(err)
		}
		f.SetAccelerate(true)

		for frame := 0; frame < 200; frame++ {
			tick(sched, 1)
			for i, s := range f.Stars() {
				if len(s.Trail) > bound {
					t.Fatalf("bound %d, frame %d: star %d trail has %d points", bound, frame, i, len(s.Trail))
				}
				if n := len(s.Trail); n > 0 && s.Trail[n-1] != (draw.Point{X: s.X, Y: s.Y}) {
					t.Fatalf("star %d: last trail point %v is not the position (%v, %v)", i, s.Trail[n-1], s.X, s.Y)
				}
			}
		}
		f.Cleanup()
	}
}

func TestResetIsLocalToOrigin(t *testing.T) {
	ox, oy := 60.0, 40.0
	tracker := OriginFunc(func() (float64, float64, bool) { return ox, oy, true })
	f, sched := newTestField(t, newFakeContainer(200, 150), WithOriginTracker(tracker))

	err := f.Setup(Overrides{
		StarCount:      intp(40),
		SpawnMinRadius: floatp(5),
		SpawnMaxRadius: floatp(20),
	})
	if err != nil {
		t.Fatal(err)
	}
	f.SetAccelerate(true)

	resets := 0
	for frame := 0; frame < 600; frame++ {
		// The origin wanders every frame; resets must follow it.
		ox = 60 + 40*math.Sin(float64(frame)/30)
		oy = 40 + 30*math.Cos(float64(frame)/45)
		tick(sched, 1)

		for i, s := range f.Stars() {
			if len(s.Trail) != 0 {
				continue
			}
			resets++
			d := physics.Distance(ox, oy, s.X, s.Y)
			if d < 5-1e-9 || d > 20+1e-9 {
				t.Fatalf("frame %d: star %d reset %.3f away from origin, want [5, 20]", frame, i, d)
			}
			want := physics.Angle(ox, oy, s.X, s.Y)
			if math.Abs(s.Angle-want) > 1e-9 {
				t.Fatalf("star %d: angle %v does not point away from origin (%v)", i, s.Angle, want)
			}
		}
	}
	if resets == 0 {
		t.Fatal("no star was reset in 600 frames")
	}
}

func TestMultiplierEasing(t *testing.T) {
	f, sched := newTestField(t, newFakeContainer(100, 100))
	err := f.Setup(Overrides{
		StarCount:           intp(3),
		AccelerationCeiling: floatp(4),
		AccelerationRate:    floatp(0.2),
		DecelerationRate:    floatp(0.1),
	})
	if err != nil {
		t.Fatal(err)
	}

	if m := f.Multiplier(); m != 1 {
		t.Fatalf("rest multiplier = %v, want 1", m)
	}

	f.SetAccelerate(true)
	tick(sched, 5)
	if m := f.Multiplier(); math.Abs(m-2) > 1e-9 {
		t.Errorf("after 5 accelerating frames multiplier = %v, want 2", m)
	}

	prev := f.Multiplier()
	for i := 0; i < 40; i++ {
		tick(sched, 1)
		m := f.Multiplier()
		if m < prev || m > 4 {
			t.Fatalf("accelerating multiplier went %v -> %v", prev, m)
		}
		prev = m
	}
	if prev != 4 {
		t.Errorf("multiplier settled at %v, want ceiling 4", prev)
	}

	f.SetAccelerate(false)
	tick(sched, 3)
	if m := f.Multiplier(); math.Abs(m-3.7) > 1e-9 {
		t.Errorf("after 3 decelerating frames multiplier = %v, want 3.7", m)
	}

	prev = f.Multiplier()
	for i := 0; i < 60; i++ {
		tick(sched, 1)
		m := f.Multiplier()
		if m > prev || m < 1 {
			t.Fatalf("decelerating multiplier went %v -> %v", prev, m)
		}
		prev = m
	}
	if prev != 1 {
		t.Errorf("multiplier settled at %v, want floor 1", prev)
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	c := newFakeContainer(100, 100)
	f, sched := newTestField(t, c)

	f.Cleanup()
	if err := f.Setup(Overrides{StarCount: intp(10)}); err != nil {
		t.Fatal(err)
	}
	tick(sched, 3)

	for i := 0; i < 2; i++ {
		f.Cleanup()
		if f.Running() {
			t.Errorf("cleanup %d: still running", i+1)
		}
		if f.Stars() != nil {
			t.Errorf("cleanup %d: stars not released", i+1)
		}
		if c.isAttached() {
			t.Errorf("cleanup %d: surface still attached", i+1)
		}
		if n := c.observerCount(); n != 0 {
			t.Errorf("cleanup %d: %d resize observers left", i+1, n)
		}
		if n := sched.Pending(); n != 0 {
			t.Errorf("cleanup %d: %d frames pending", i+1, n)
		}
	}
	if ran := sched.Tick(time.Time{}); ran != 0 {
		t.Errorf("Tick() after cleanup ran %d callbacks", ran)
	}
}

func TestRestartAfterCleanup(t *testing.T) {
	c := newFakeContainer(100, 100)
	f, sched := newTestField(t, c)

	if err := f.Setup(Overrides{StarCount: intp(4)}); err != nil {
		t.Fatal(err)
	}
	tick(sched, 2)
	f.Cleanup()

	if err := f.Setup(Overrides{}); err != nil {
		t.Fatalf("Setup() after Cleanup error = %v", err)
	}
	if n := len(f.Stars()); n != 4 {
		t.Errorf("restart has %d stars, want the 4 configured earlier", n)
	}
	if ran := sched.Tick(time.Time{}); ran != 1 {
		t.Errorf("Tick() ran %d callbacks, want 1", ran)
	}
}

func TestResizeKeepsStarsAndTrails(t *testing.T) {
	c := newFakeContainer(400, 400)
	c.ratio = 2
	f, sched := newTestField(t, c)

	err := f.Setup(Overrides{
		StarCount:   intp(25),
		BaseSpeed:   floatp(0.1),
		TrailPoints: intp(64),
		OriginMode:  modep(OriginFixed),
		OriginX:     floatp(200),
		OriginY:     floatp(200),
	})
	if err != nil {
		t.Fatal(err)
	}
	tick(sched, 5)
	before := f.Stars()

	c.resize(400, 300)
	if w, h := f.Size(); w != 400 || h != 400 {
		t.Errorf("resize applied outside a frame: %dx%d", w, h)
	}

	tick(sched, 1)
	if w, h := f.Size(); w != 400 || h != 300 {
		t.Errorf("Size() = %dx%d, want 400x300", w, h)
	}
	c.surface.mu.Lock()
	sw, sh := c.surface.width, c.surface.height
	c.surface.mu.Unlock()
	if sw != 800 || sh != 600 {
		t.Errorf("surface backing size = %dx%d, want 800x600", sw, sh)
	}

	after := f.Stars()
	if len(after) != len(before) {
		t.Fatalf("resize changed star count %d -> %d", len(before), len(after))
	}
	for i := range before {
		if len(after[i].Trail) != len(before[i].Trail)+1 {
			t.Fatalf("star %d: trail %d -> %d points across resize", i, len(before[i].Trail), len(after[i].Trail))
		}
		for j, p := range before[i].Trail {
			if after[i].Trail[j] != p {
				t.Fatalf("star %d: trail point %d changed across resize", i, j)
			}
		}
	}
}

func TestResizeOutsideSessionIsIgnored(t *testing.T) {
	c := newFakeContainer(200, 100)
	f, sched := newTestField(t, c)

	f.onResize(10, 10)
	if err := f.Setup(Overrides{StarCount: intp(3)}); err != nil {
		t.Fatal(err)
	}
	tick(sched, 1)
	if w, h := f.Size(); w != 200 || h != 100 {
		t.Errorf("resize before setup leaked into the session: %dx%d", w, h)
	}

	f.Cleanup()
	f.onResize(50, 50)
	c.resize(60, 60)
	if w, h := f.Size(); w != 200 || h != 100 {
		t.Errorf("resize after cleanup changed size to %dx%d", w, h)
	}
}

func TestLongRunStaysFinite(t *testing.T) {
	c := newFakeContainer(160, 90)
	f, sched := newTestField(t, c)
	if err := f.Setup(Overrides{StarCount: intp(10), BaseSpeed: floatp(1)}); err != nil {
		t.Fatal(err)
	}

	for frame := 0; frame < 1000; frame++ {
		f.SetAccelerate(frame%200 < 100)
		if frame == 500 {
			c.resize(90, 160)
		}
		tick(sched, 1)
	}

	stars := f.Stars()
	if len(stars) != 10 {
		t.Fatalf("%d stars, want 10", len(stars))
	}
	for i, s := range stars {
		for _, v := range []float64{s.X, s.Y, s.Angle, s.Speed} {
			if !isFinite(v) {
				t.Fatalf("star %d has non-finite state %+v", i, s)
			}
		}
		if s.Speed < 0.5 || s.Speed > 1.3 {
			t.Errorf("star %d speed %v outside [0.5, 1.3]", i, s.Speed)
		}
		if len(s.Trail) > Defaults().TrailPoints {
			t.Errorf("star %d trail has %d points", i, len(s.Trail))
		}
	}
}

func TestStarAtOriginHasDefinedAngle(t *testing.T) {
	c := newFakeContainer(200, 200)
	f, sched := newTestField(t, c, WithRand(rand.New(constSource{})))

	err := f.Setup(Overrides{
		StarCount:      intp(4),
		OriginMode:     modep(OriginFixed),
		OriginX:        floatp(100),
		OriginY:        floatp(100),
		SpawnMinRadius: floatp(0),
		SpawnMaxRadius: floatp(0),
	})
	if err != nil {
		t.Fatal(err)
	}

	for i, s := range f.Stars() {
		if s.X != 100 || s.Y != 100 {
			t.Fatalf("star %d created at (%v, %v), want the origin", i, s.X, s.Y)
		}
		if s.Angle != 0 {
			t.Errorf("star %d angle = %v, want fallback 0", i, s.Angle)
		}
	}

	f.SetAccelerate(true)
	tick(sched, 400)
	for i, s := range f.Stars() {
		if !isFinite(s.X) || !isFinite(s.Y) || !isFinite(s.Angle) {
			t.Fatalf("star %d went non-finite: %+v", i, s)
		}
		if len(s.Trail) == 0 {
			if d := physics.Distance(100, 100, s.X, s.Y); math.Abs(d-minSpawnJitter) > 1e-9 {
				t.Errorf("star %d reset %v from origin, want jitter %v", i, d, minSpawnJitter)
			}
		}
	}
}

func TestRenderScalesByPixelRatio(t *testing.T) {
	c := newFakeContainer(300, 200)
	c.ratio = 2
	f, sched := newTestField(t, c)
	if err := f.Setup(Overrides{StarCount: intp(20), TrailFade: floatp(0.4)}); err != nil {
		t.Fatal(err)
	}

	tick(sched, 1)
	if n := len(c.surface.lastStrokes()); n != 0 {
		t.Errorf("first frame stroked %d trails, want 0 (single-point trails)", n)
	}

	tick(sched, 4)
	strokes := c.surface.lastStrokes()
	var drawn []Star
	for _, s := range f.Stars() {
		if len(s.Trail) >= 2 {
			drawn = append(drawn, s)
		}
	}
	if len(strokes) != len(drawn) {
		t.Fatalf("stroked %d trails, want %d", len(strokes), len(drawn))
	}

	wantColor := Defaults().StarColor
	for i, st := range strokes {
		s := drawn[i]
		if st.width != 1.8*2 {
			t.Errorf("stroke %d width = %v, want 3.6", i, st.width)
		}
		if st.g.Stop != 0.4 || st.g.Color != wantColor {
			t.Errorf("stroke %d gradient = %+v", i, st.g)
		}
		if st.g.From != st.path[0] || st.g.To != (draw.Point{X: s.X * 2, Y: s.Y * 2}) {
			t.Errorf("stroke %d gradient runs %v -> %v", i, st.g.From, st.g.To)
		}
		for j, p := range s.Trail {
			if st.path[j] != (draw.Point{X: p.X * 2, Y: p.Y * 2}) {
				t.Fatalf("stroke %d point %d = %v, want %v scaled by 2", i, j, st.path[j], p)
			}
		}
	}

	c.surface.mu.Lock()
	fills := c.surface.fills
	c.surface.mu.Unlock()
	if fills != 5 {
		t.Errorf("surface filled %d times over 5 frames", fills)
	}
}

func TestHueJitter(t *testing.T) {
	c := newFakeContainer(100, 100)
	f, sched := newTestField(t, c)
	if err := f.Setup(Overrides{StarCount: intp(30), HueJitter: floatp(25)}); err != nil {
		t.Fatal(err)
	}
	tick(sched, 3)

	base, _, _ := Defaults().StarColor.Hsl()
	varied := false
	for _, st := range c.surface.lastStrokes() {
		h, _, _ := st.g.Color.Hsl()
		diff := math.Abs(h - base)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > 25+1e-6 {
			t.Errorf("hue %v is %v degrees from %v", h, diff, base)
		}
		if diff > 1e-6 {
			varied = true
		}
	}
	if !varied {
		t.Error("no stroke had its hue shifted")
	}
}

func TestOriginResolution(t *testing.T) {
	missing := OriginFunc(func() (float64, float64, bool) { return 0, 0, false })
	present := OriginFunc(func() (float64, float64, bool) { return 7, 9, true })

	tests := []struct {
		name    string
		tracker OriginTracker
		mode    OriginMode
		x, y    *float64
		wantX   float64
		wantY   float64
	}{
		{"fixed center", nil, OriginFixed, nil, nil, 100, 50},
		{"fixed explicit", nil, OriginFixed, floatp(3), floatp(4), 3, 4},
		{"fixed x only", nil, OriginFixed, floatp(3), nil, 3, 50},
		{"fixed ignores tracker", present, OriginFixed, nil, floatp(4), 100, 4},
		{"track", present, OriginTrack, floatp(3), floatp(4), 7, 9},
		{"track without element", missing, OriginTrack, nil, floatp(4), 100, 4},
		{"track without tracker", nil, OriginTrack, nil, nil, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(newFakeContainer(200, 100), loop.NewScheduler(), WithOriginTracker(tt.tracker))
			f.width, f.height = 200, 100
			f.cfg.OriginMode = tt.mode
			f.cfg.OriginX, f.cfg.OriginY = tt.x, tt.y

			x, y := f.origin()
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("origin() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestSetters(t *testing.T) {
	f, _ := newTestField(t, newFakeContainer(100, 100))

	f.SetOrigin(1, 2)
	f.SetOriginX(5)
	f.SetOriginMode(OriginFixed)
	f.SetOriginMode(OriginMode(42))
	f.SetAccelerate(true)

	cfg := f.Config()
	if *cfg.OriginX != 5 || *cfg.OriginY != 2 {
		t.Errorf("origin = (%v, %v), want (5, 2)", *cfg.OriginX, *cfg.OriginY)
	}
	if cfg.OriginMode != OriginFixed {
		t.Errorf("OriginMode = %v, want fixed", cfg.OriginMode)
	}
	if !f.Accelerating() {
		t.Error("Accelerating() = false after SetAccelerate(true)")
	}

	// Setup keeps origins set beforehand.
	if err := f.Setup(Overrides{}); err != nil {
		t.Fatal(err)
	}
	f.SetOriginY(8)
	cfg = f.Config()
	if *cfg.OriginX != 5 || *cfg.OriginY != 8 {
		t.Errorf("origin after Setup = (%v, %v), want (5, 8)", *cfg.OriginX, *cfg.OriginY)
	}
}

func TestConcurrentUse(t *testing.T) {
	c := newFakeContainer(120, 60)
	f, sched := newTestField(t, c)
	if err := f.Setup(Overrides{StarCount: intp(50)}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = loop.Run(ctx, sched, loop.Options{FPS: 500})
	}()
	go func() {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			f.SetAccelerate(i%2 == 0)
			f.SetOrigin(float64(i%120), float64(i%60))
			c.resize(100+i%40, 50+i%20)
			_ = f.Stars()
			time.Sleep(time.Millisecond)
		}
	}()
	wg.Wait()

	f.Cleanup()
	if n := len(f.Stars()); n != 0 {
		t.Errorf("%d stars after cleanup", n)
	}
}
