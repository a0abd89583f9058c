package starfield

import (
	"math"

	"github.com/tomz197/starfield/internal/draw"
)

// Star is a read-only snapshot of one particle.
type Star struct {
	X, Y  float64
	Angle float64 // Radians, direction of travel
	Speed float64
	Trail []draw.Point // Oldest first; the last point is the current position
}

// star is a particle owned by the field. Direction is cached as cos/sin at
// creation and reset since the angle never changes mid-flight.
type star struct {
	x, y     float64
	angle    float64
	cos, sin float64
	speed    float64

	// Ring buffer of recent positions
	trail []draw.Point
	head  int
	n     int
}

func (s *star) setAngle(a float64) {
	s.angle = a
	s.sin, s.cos = math.Sincos(a)
}

// push appends p to the trail, evicting the oldest point when full.
func (s *star) push(p draw.Point) {
	if len(s.trail) == 0 {
		return
	}
	if s.n < len(s.trail) {
		s.trail[(s.head+s.n)%len(s.trail)] = p
		s.n++
		return
	}
	s.trail[s.head] = p
	s.head = (s.head + 1) % len(s.trail)
}

func (s *star) clearTrail() {
	s.head = 0
	s.n = 0
}

// appendTrail appends the trail to dst, oldest point first.
func (s *star) appendTrail(dst []draw.Point) []draw.Point {
	for i := 0; i < s.n; i++ {
		dst = append(dst, s.trail[(s.head+i)%len(s.trail)])
	}
	return dst
}

func (s *star) snapshot() Star {
	return Star{
		X:     s.x,
		Y:     s.y,
		Angle: s.angle,
		Speed: s.speed,
		Trail: s.appendTrail(make([]draw.Point, 0, s.n)),
	}
}
