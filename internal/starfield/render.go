package starfield

import "github.com/tomz197/starfield/internal/draw"

// render fades the surface and strokes every trail with at least two points.
// Geometry is scaled from logical units to device pixels.
func (f *Field) render() {
	cfg := &f.cfg
	r := f.ratio

	f.surface.Fill(cfg.BackgroundFade)
	width := cfg.LineWidth * r

	for i := range f.stars {
		s := &f.stars[i]
		if s.n < 2 {
			continue
		}

		f.path = s.appendTrail(f.path[:0])
		for j := range f.path {
			f.path[j].X *= r
			f.path[j].Y *= r
		}

		col := cfg.StarColor
		if cfg.HueJitter > 0 {
			col = col.ShiftHue((f.rng.Float64()*2 - 1) * cfg.HueJitter)
		}

		f.surface.StrokeTrail(f.path, draw.Gradient{
			From:  f.path[0],
			To:    draw.Point{X: s.x * r, Y: s.y * r},
			Stop:  cfg.TrailFade,
			Color: col,
		}, width)
	}
}
