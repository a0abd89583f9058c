package window

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/tomz197/starfield/internal/draw"
)

// surface is an offscreen ebiten image the starfield paints into.
// It is kept across frames so the translucent fill leaves trails behind.
type surface struct {
	img           *ebiten.Image
	width, height int
}

func (s *surface) SetSize(width, height int) {
	if width == s.width && height == s.height && s.img != nil {
		return
	}
	if s.img != nil {
		s.img.Deallocate()
		s.img = nil
	}
	s.width, s.height = width, height
	if width > 0 && height > 0 {
		s.img = ebiten.NewImage(width, height)
		s.img.Fill(color.Black)
	}
}

func (s *surface) Fill(c draw.Color) {
	if s.img == nil || c.A <= 0 {
		return
	}
	vector.DrawFilledRect(s.img, 0, 0, float32(s.width), float32(s.height), c, false)
}

// StrokeTrail strokes each segment in the gradient color at its midpoint and
// rounds the joints and caps with discs.
func (s *surface) StrokeTrail(path []draw.Point, g draw.Gradient, width float64) {
	if s.img == nil || len(path) < 2 {
		return
	}
	w := float32(width)
	r := w / 2

	for i := 1; i < len(path); i++ {
		p0, p1 := path[i-1], path[i]
		col := g.At(draw.Point{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2})
		if col.A <= 0 {
			continue
		}
		vector.StrokeLine(s.img, float32(p0.X), float32(p0.Y), float32(p1.X), float32(p1.Y), w, col, true)
		vector.DrawFilledCircle(s.img, float32(p1.X), float32(p1.Y), r, col, true)
	}
}

func (s *surface) release() {
	if s.img != nil {
		s.img.Deallocate()
		s.img = nil
	}
	s.width, s.height = 0, 0
}
