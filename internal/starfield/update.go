package starfield

import (
	"math"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/physics"
)

// minSpawnJitter keeps a reset star off the origin when both spawn radii are zero.
const minSpawnJitter = 0.5

// populate creates StarCount stars scattered over the canvas, each heading
// away from the origin. Trails share one backing array.
func (f *Field) populate() {
	n := f.cfg.StarCount
	bound := f.cfg.TrailPoints
	f.stars = make([]star, n)
	f.trailBacker = make([]draw.Point, n*bound)
	f.path = make([]draw.Point, 0, bound)

	ox, oy := f.origin()
	for i := range f.stars {
		s := &f.stars[i]
		s.trail = f.trailBacker[i*bound : (i+1)*bound : (i+1)*bound]
		s.x = f.rng.Float64() * float64(f.width)
		s.y = f.rng.Float64() * float64(f.height)
		s.setAngle(physics.Angle(ox, oy, s.x, s.y))
		s.speed = f.rollSpeed()
	}
}

func (f *Field) rollSpeed() float64 {
	return f.cfg.BaseSpeed * (0.5 + f.rng.Float64()*0.8)
}

// update eases the global multiplier and advances every star.
func (f *Field) update() {
	cfg := &f.cfg
	if f.accelerate {
		f.multiplier = math.Min(f.multiplier+cfg.AccelerationRate, cfg.AccelerationCeiling)
	} else {
		f.multiplier = math.Max(f.multiplier-cfg.DecelerationRate, restMultiplier)
	}

	ox, oy := f.origin()
	limit := float64(max(f.width, f.height))
	limitSq := limit * limit

	for i := range f.stars {
		s := &f.stars[i]
		v := s.speed * f.multiplier
		s.x += s.cos * v
		s.y += s.sin * v
		s.push(draw.Point{X: s.x, Y: s.y})

		if physics.DistanceSquared(ox, oy, s.x, s.y) > limitSq {
			f.reset(s, ox, oy)
		}
	}
}

// reset moves s next to the origin with a fresh heading, speed and trail.
func (f *Field) reset(s *star, ox, oy float64) {
	lo, hi := f.cfg.SpawnMinRadius, f.cfg.SpawnMaxRadius
	r := lo + f.rng.Float64()*(hi-lo)
	if r <= 0 {
		r = minSpawnJitter
	}
	theta := f.rng.Float64() * 2 * math.Pi

	s.x = ox + math.Cos(theta)*r
	s.y = oy + math.Sin(theta)*r
	s.setAngle(physics.Angle(ox, oy, s.x, s.y))
	s.speed = f.rollSpeed()
	s.clearTrail()
}
