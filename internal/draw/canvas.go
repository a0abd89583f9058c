package draw

import (
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Canvas is a color pixel buffer that composites like a 2D canvas context.
// Pixels start black and every drawing operation blends source-over onto them.
// For terminal output each cell covers two vertically stacked pixels and is
// drawn with the upper half-block character.
type Canvas struct {
	width  int
	height int
	pixels []colorful.Color // Flat slice: [y * width + x]

	// Per-stroke coverage so overlapping segments of one path blend once.
	coverage []float64
	touched  []int

	// Last emitted terminal cells for differential rendering
	cells []cell
	dirty bool

	// Reusable buffers to reduce allocations
	renderBuf strings.Builder
	numBuf    [20]byte
	seqCache  map[seqKey]string
	seqFor    termenv.Profile
}

// cell is a packed pair of 24-bit colors for the top and bottom pixel.
type cell struct {
	top, bottom uint32
}

// invalidCell never matches a packed color, forcing the cell to be re-emitted.
var invalidCell = cell{top: 1 << 31}

type seqKey struct {
	rgb uint32
	bg  bool
}

// NewCanvas creates a canvas of width x height pixels.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.SetSize(width, height)
	return c
}

// SetSize reallocates the canvas when the size changes. Like a canvas
// element, changing the size discards the current contents.
func (c *Canvas) SetSize(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	if width == c.width && height == c.height && c.pixels != nil {
		return
	}

	c.width = width
	c.height = height
	c.pixels = make([]colorful.Color, width*height)
	c.coverage = make([]float64, width*height)
	c.touched = c.touched[:0]
	c.cells = make([]cell, width*c.rows())
	c.dirty = true
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// rows returns the number of terminal rows needed to show the canvas.
func (c *Canvas) rows() int {
	return (c.height + 1) / 2
}

// Clear resets all pixels to black.
func (c *Canvas) Clear() {
	clear(c.pixels)
}

// At returns the pixel at (x, y); out of range pixels are black.
func (c *Canvas) At(x, y int) colorful.Color {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return colorful.Color{}
	}
	return c.pixels[y*c.width+x]
}

// Fill paints the whole canvas with col, blending by its opacity.
func (c *Canvas) Fill(col Color) {
	if col.A <= 0 {
		return
	}
	for i := range c.pixels {
		c.pixels[i] = col.Over(c.pixels[i], 1)
	}
}

// StrokeTrail strokes the polyline through path using the gradient as the
// stroke color. width is the line width in pixels; caps and joins are round.
func (c *Canvas) StrokeTrail(path []Point, g Gradient, width float64) {
	if len(path) < 2 || c.width == 0 || c.height == 0 {
		return
	}

	radius := width / 2
	if radius < 0.5 {
		radius = 0.5
	}

	for i := 1; i < len(path); i++ {
		c.stampSegment(path[i-1], path[i], radius, g)
	}

	for _, idx := range c.touched {
		c.pixels[idx] = c.pixels[idx].BlendRgb(g.Color.Color, min(c.coverage[idx], 1))
		c.coverage[idx] = 0
	}
	c.touched = c.touched[:0]
}

// stampSegment sweeps a disc of the given radius along p1->p2.
func (c *Canvas) stampSegment(p1, p2 Point, radius float64, g Gradient) {
	length := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	steps := int(math.Ceil(length / 0.5))
	if steps == 0 {
		c.stamp(p1, radius, g)
		return
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		c.stamp(Point{X: p1.X + (p2.X-p1.X)*t, Y: p1.Y + (p2.Y-p1.Y)*t}, radius, g)
	}
}

// stamp records gradient coverage for every pixel whose center lies within
// radius of p, plus the pixel containing p.
func (c *Canvas) stamp(p Point, radius float64, g Gradient) {
	x0 := int(math.Floor(p.X - radius))
	x1 := int(math.Floor(p.X + radius))
	y0 := int(math.Floor(p.Y - radius))
	y1 := int(math.Floor(p.Y + radius))
	px, py := int(math.Floor(p.X)), int(math.Floor(p.Y))
	rSq := radius * radius

	for y := max(y0, 0); y <= min(y1, c.height-1); y++ {
		cy := float64(y) + 0.5
		for x := max(x0, 0); x <= min(x1, c.width-1); x++ {
			cx := float64(x) + 0.5
			dx, dy := cx-p.X, cy-p.Y
			if dx*dx+dy*dy > rSq && (x != px || y != py) {
				continue
			}
			c.cover(y*c.width+x, g.Alpha(Point{X: cx, Y: cy}))
		}
	}
}

func (c *Canvas) cover(idx int, alpha float64) {
	if alpha <= c.coverage[idx] {
		return
	}
	if c.coverage[idx] == 0 {
		c.touched = append(c.touched, idx)
	}
	c.coverage[idx] = alpha
}

// ForceRedraw makes the next Render emit every cell.
func (c *Canvas) ForceRedraw() {
	c.dirty = true
}

// Invalidate marks a rectangle of terminal cells (0-based) for re-emission,
// e.g. after text was written over them.
func (c *Canvas) Invalidate(col, row, width, height int) {
	for r := max(row, 0); r < min(row+height, c.rows()); r++ {
		for cl := max(col, 0); cl < min(col+width, c.width); cl++ {
			c.cells[r*c.width+cl] = invalidCell
		}
	}
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// Render outputs the cells that changed since the previous Render using
// half-block characters colored for the given profile. The Ascii profile
// falls back to shade characters.
func (c *Canvas) Render(w io.Writer, profile termenv.Profile) {
	if profile != c.seqFor || c.seqCache == nil {
		c.seqCache = make(map[seqKey]string)
		c.seqFor = profile
		c.dirty = true
	}

	c.renderBuf.Reset()
	lastRow, lastCol := -1, -1
	wrote := false

	for row := 0; row < c.rows(); row++ {
		topOffset := row * 2 * c.width
		bottomY := row*2 + 1

		for col := 0; col < c.width; col++ {
			k := cell{top: pack(c.pixels[topOffset+col])}
			if bottomY < c.height {
				k.bottom = pack(c.pixels[topOffset+c.width+col])
			}

			idx := row*c.width + col
			if !c.dirty && c.cells[idx] == k {
				continue
			}
			c.cells[idx] = k

			if row != lastRow || col != lastCol {
				c.moveCursor(col+1, row+1)
			}
			c.writeCell(k, profile)
			lastRow, lastCol = row, col+1
			wrote = true
		}
	}
	c.dirty = false

	if wrote {
		c.renderBuf.WriteString("\033[0m")
	}

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

func (c *Canvas) moveCursor(col, row int) {
	c.renderBuf.WriteString("\033[")
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(row), 10))
	c.renderBuf.WriteByte(';')
	c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(col), 10))
	c.renderBuf.WriteByte('H')
}

func (c *Canvas) writeCell(k cell, profile termenv.Profile) {
	if profile == termenv.Ascii {
		lum := max(Luminance(unpack(k.top)), Luminance(unpack(k.bottom)))
		c.renderBuf.WriteRune(ShadeLevel(lum))
		return
	}

	c.renderBuf.WriteString("\033[")
	c.writeSequence(k.top, false, profile)
	c.renderBuf.WriteByte(';')
	c.writeSequence(k.bottom, true, profile)
	c.renderBuf.WriteByte('m')
	c.renderBuf.WriteRune(BlockUpperHalf)
}

// writeSequence appends the SGR parameters for a packed color.
// Truecolor is formatted directly; palette profiles go through termenv and
// are cached per 15-bit color bucket.
func (c *Canvas) writeSequence(rgb uint32, bg bool, profile termenv.Profile) {
	if profile == termenv.TrueColor {
		if bg {
			c.renderBuf.WriteString("48;2;")
		} else {
			c.renderBuf.WriteString("38;2;")
		}
		c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgb>>16&0xff), 10))
		c.renderBuf.WriteByte(';')
		c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgb>>8&0xff), 10))
		c.renderBuf.WriteByte(';')
		c.renderBuf.Write(strconv.AppendInt(c.numBuf[:0], int64(rgb&0xff), 10))
		return
	}

	key := seqKey{rgb: rgb >> 3 & 0x1f1f1f, bg: bg}
	seq, ok := c.seqCache[key]
	if !ok {
		seq = profile.FromColor(unpackRGBA(rgb)).Sequence(bg)
		if seq == "" {
			seq = "0"
		}
		c.seqCache[key] = seq
	}
	c.renderBuf.WriteString(seq)
}

// Image copies the canvas into an opaque RGBA image.
func (c *Canvas) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			r, g, b := c.pixels[y*c.width+x].Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}

func pack(col colorful.Color) uint32 {
	r, g, b := col.Clamped().RGB255()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func unpack(rgb uint32) colorful.Color {
	return colorful.Color{
		R: float64(rgb>>16&0xff) / 255,
		G: float64(rgb>>8&0xff) / 255,
		B: float64(rgb&0xff) / 255,
	}
}

func unpackRGBA(rgb uint32) color.RGBA {
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
}
