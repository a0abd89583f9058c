package draw

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Gradient is a two-stop linear gradient running from From to To.
// It is transparent at From, reaches Color at the Stop fraction of the
// line and holds that color up to To and beyond. Points behind From are
// transparent, matching a padded canvas gradient.
type Gradient struct {
	From, To Point
	Stop     float64
	Color    Color
}

// Alpha returns the gradient opacity at p, projected onto the gradient line.
// A zero-length gradient paints nothing.
func (g Gradient) Alpha(p Point) float64 {
	dx := g.To.X - g.From.X
	dy := g.To.Y - g.From.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return 0
	}

	t := ((p.X-g.From.X)*dx + (p.Y-g.From.Y)*dy) / lengthSq
	switch {
	case t <= 0:
		return 0
	case t >= g.Stop:
		return g.Color.A
	}
	return g.Color.A * t / g.Stop
}

// At returns the gradient color at p.
func (g Gradient) At(p Point) Color {
	return Color{Color: g.Color.Color, A: g.Alpha(p)}
}
