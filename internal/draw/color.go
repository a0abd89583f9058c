package draw

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidColor is returned by ParseColor for unrecognized input.
var ErrInvalidColor = errors.New("invalid color")

// Color is a straight (non-premultiplied) alpha color.
type Color struct {
	colorful.Color
	A float64 // Opacity in [0,1]
}

// Transparent is fully transparent black.
var Transparent = Color{}

// NewColor builds a color from 8-bit channels and an opacity.
func NewColor(r, g, b uint8, a float64) Color {
	return Color{
		Color: colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255},
		A:     clamp01(a),
	}
}

// RGBA implements color.Color with premultiplied 16-bit channels.
func (c Color) RGBA() (r, g, b, a uint32) {
	cc := c.Color.Clamped()
	a16 := clamp01(c.A) * 0xffff
	return uint32(cc.R*a16 + 0.5), uint32(cc.G*a16 + 0.5), uint32(cc.B*a16 + 0.5), uint32(a16 + 0.5)
}

// ShiftHue rotates the hue by deg degrees, keeping saturation, lightness and opacity.
func (c Color) ShiftHue(deg float64) Color {
	h, s, l := c.Hsl()
	h = math.Mod(h+deg, 360)
	if h < 0 {
		h += 360
	}
	return Color{Color: colorful.Hsl(h, s, l).Clamped(), A: c.A}
}

// Over composites c onto dst with the given coverage (source-over).
func (c Color) Over(dst colorful.Color, coverage float64) colorful.Color {
	a := c.A * coverage
	if a <= 0 {
		return dst
	}
	if a >= 1 {
		return c.Color
	}
	return dst.BlendRgb(c.Color, a)
}

// String formats the color as a CSS rgba() value.
func (c Color) String() string {
	r, g, b := c.Color.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// Luminance returns the relative brightness of an opaque color in [0,1].
func Luminance(c colorful.Color) float64 {
	return clamp01(0.2126*c.R + 0.7152*c.G + 0.0722*c.B)
}

// ParseColor parses CSS-style colors: "#rgb", "#rrggbb", "#rrggbbaa",
// "rgb(r, g, b)", "rgba(r, g, b, a)" and "transparent".
// rgb() also accepts a fourth alpha component.
func ParseColor(s string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "transparent":
		return Transparent, nil
	case strings.HasPrefix(v, "#"):
		if c, ok := parseHex(v); ok {
			return c, nil
		}
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		if c, ok := parseRGBFunc(v); ok {
			return c, nil
		}
	}
	return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// MustParseColor is ParseColor for package-level literals.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(v string) (Color, bool) {
	alpha := 1.0
	switch len(v) {
	case 4:
		v = string([]byte{'#', v[1], v[1], v[2], v[2], v[3], v[3]})
	case 7:
	case 9:
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return Color{}, false
		}
		alpha = float64(a) / 255
		v = v[:7]
	default:
		return Color{}, false
	}

	c, err := colorful.Hex(v)
	if err != nil {
		return Color{}, false
	}
	return Color{Color: c, A: alpha}, true
}

func parseRGBFunc(v string) (Color, bool) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return Color{}, false
	}
	parts := strings.FieldsFunc(v[open+1:len(v)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return Color{}, false
		}
		ch[i] = math.Min(math.Max(f, 0), 255) / 255
	}

	alpha := 1.0
	if len(parts) == 4 {
		raw := parts[3]
		scale := 1.0
		if strings.HasSuffix(raw, "%") {
			raw = strings.TrimSuffix(raw, "%")
			scale = 100
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Color{}, false
		}
		alpha = clamp01(f / scale)
	}

	return Color{Color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, A: alpha}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
