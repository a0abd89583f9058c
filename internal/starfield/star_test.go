package starfield

import (
	"math"
	"testing"

	"github.com/tomz197/starfield/internal/draw"
)

func TestStarTrailRing(t *testing.T) {
	s := star{trail: make([]draw.Point, 3)}

	for i := 1; i <= 5; i++ {
		s.push(draw.Point{X: float64(i)})
	}
	got := s.appendTrail(nil)
	want := []draw.Point{{X: 3}, {X: 4}, {X: 5}}
	if len(got) != len(want) {
		t.Fatalf("trail = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trail = %v, want %v", got, want)
		}
	}

	s.clearTrail()
	if n := len(s.appendTrail(nil)); n != 0 {
		t.Errorf("trail has %d points after clear", n)
	}
	s.push(draw.Point{X: 9})
	if got := s.appendTrail(nil); len(got) != 1 || got[0].X != 9 {
		t.Errorf("trail after clear and push = %v", got)
	}
}

func TestStarSnapshotIsCopy(t *testing.T) {
	s := star{trail: make([]draw.Point, 4)}
	s.setAngle(math.Pi / 2)
	s.push(draw.Point{X: 1, Y: 1})
	s.push(draw.Point{X: 2, Y: 2})

	snap := s.snapshot()
	snap.Trail[0].X = 100
	if s.trail[0].X != 1 {
		t.Error("snapshot shares the trail buffer")
	}
	if math.Abs(s.cos) > 1e-12 || s.sin != 1 {
		t.Errorf("cached direction = (%v, %v), want (0, 1)", s.cos, s.sin)
	}
}
