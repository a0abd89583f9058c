package starfield

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/physics"
)

// OriginMode selects how the emission origin is resolved each frame.
type OriginMode int

const (
	// OriginTrack follows the center of the tracked element.
	OriginTrack OriginMode = iota
	// OriginFixed uses OriginX/OriginY, or the canvas center.
	OriginFixed
)

func (m OriginMode) String() string {
	switch m {
	case OriginTrack:
		return "track"
	case OriginFixed:
		return "fixed"
	}
	return fmt.Sprintf("OriginMode(%d)", int(m))
}

// UnmarshalText parses "track" or "fixed", including the long forms
// "auto-track-element" and "fixed-point".
func (m *OriginMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "track", "auto", "auto-track-element":
		*m = OriginTrack
	case "fixed", "fixed-point":
		*m = OriginFixed
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOriginMode, text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m OriginMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Limits applied when normalizing a Config.
const (
	restMultiplier = 1.0 // Global multiplier at rest, leaving BaseSpeed unchanged
	minTrailPoints = 2
	maxTrailPoints = 64
	maxHueJitter   = 180
)

// Config holds the tunable parameters of a starfield.
type Config struct {
	StarCount      int
	BaseSpeed      float64
	TrailFade      float64 // Gradient stop where a trail reaches full opacity
	StarColor      draw.Color
	BackgroundFade draw.Color // Translucent fill painted every frame

	AccelerationCeiling float64
	AccelerationRate    float64
	DecelerationRate    float64

	SpawnMinRadius float64
	SpawnMaxRadius float64

	OriginMode OriginMode
	OriginX    *float64 // nil means canvas center
	OriginY    *float64

	HueJitter   float64 // Degrees
	TrailPoints int
	LineWidth   float64
}

// Defaults returns the stock configuration.
func Defaults() Config {
	return Config{
		StarCount:           400,
		BaseSpeed:           0.9,
		TrailFade:           0.6,
		StarColor:           draw.NewColor(180, 180, 255, 1),
		BackgroundFade:      draw.NewColor(0, 0, 0, 0.18),
		AccelerationCeiling: 10,
		AccelerationRate:    0.2,
		DecelerationRate:    0.2,
		SpawnMinRadius:      1,
		SpawnMaxRadius:      40,
		OriginMode:          OriginTrack,
		TrailPoints:         6,
		LineWidth:           1.8,
	}
}

// Overrides holds caller-supplied settings. Nil fields keep the current value.
type Overrides struct {
	StarCount      *int
	BaseSpeed      *float64
	TrailFade      *float64
	StarColor      *string
	BackgroundFade *string

	AccelerationCeiling *float64
	AccelerationRate    *float64
	DecelerationRate    *float64

	SpawnMinRadius *float64
	SpawnMaxRadius *float64

	OriginMode *OriginMode
	OriginX    *float64
	OriginY    *float64

	HueJitter   *float64
	TrailPoints *int
	LineWidth   *float64
}

// Merge applies o on top of c (a shallow merge) and normalizes the result.
// Only malformed colors are errors; out of range numbers are clamped.
func (c Config) Merge(o Overrides) (Config, error) {
	set(&c.StarCount, o.StarCount)
	set(&c.BaseSpeed, o.BaseSpeed)
	set(&c.TrailFade, o.TrailFade)
	set(&c.AccelerationCeiling, o.AccelerationCeiling)
	set(&c.AccelerationRate, o.AccelerationRate)
	set(&c.DecelerationRate, o.DecelerationRate)
	set(&c.SpawnMinRadius, o.SpawnMinRadius)
	set(&c.SpawnMaxRadius, o.SpawnMaxRadius)
	set(&c.OriginMode, o.OriginMode)
	set(&c.HueJitter, o.HueJitter)
	set(&c.TrailPoints, o.TrailPoints)
	set(&c.LineWidth, o.LineWidth)

	if o.OriginX != nil {
		c.OriginX = ptr(*o.OriginX)
	}
	if o.OriginY != nil {
		c.OriginY = ptr(*o.OriginY)
	}

	if o.StarColor != nil {
		col, err := draw.ParseColor(*o.StarColor)
		if err != nil {
			return c, fmt.Errorf("star color: %w", err)
		}
		c.StarColor = col
	}
	if o.BackgroundFade != nil {
		col, err := draw.ParseColor(*o.BackgroundFade)
		if err != nil {
			return c, fmt.Errorf("background fade: %w", err)
		}
		c.BackgroundFade = col
	}

	return c.Normalize(), nil
}

// Normalize clamps every field into its usable range.
func (c Config) Normalize() Config {
	d := Defaults()

	c.StarCount = max(c.StarCount, 0)
	c.BaseSpeed = finiteOr(math.Max(c.BaseSpeed, 0), d.BaseSpeed)
	c.TrailFade = physics.Clamp(finiteOr(c.TrailFade, d.TrailFade), 0, 1)

	c.AccelerationCeiling = math.Max(finiteOr(c.AccelerationCeiling, d.AccelerationCeiling), restMultiplier)
	c.AccelerationRate = math.Abs(finiteOr(c.AccelerationRate, d.AccelerationRate))
	c.DecelerationRate = math.Abs(finiteOr(c.DecelerationRate, d.DecelerationRate))

	c.SpawnMinRadius = math.Max(finiteOr(c.SpawnMinRadius, d.SpawnMinRadius), 0)
	c.SpawnMaxRadius = math.Max(finiteOr(c.SpawnMaxRadius, d.SpawnMaxRadius), c.SpawnMinRadius)

	if c.OriginMode != OriginTrack && c.OriginMode != OriginFixed {
		c.OriginMode = d.OriginMode
	}
	if c.OriginX != nil && !isFinite(*c.OriginX) {
		c.OriginX = nil
	}
	if c.OriginY != nil && !isFinite(*c.OriginY) {
		c.OriginY = nil
	}

	c.HueJitter = physics.Clamp(math.Abs(finiteOr(c.HueJitter, 0)), 0, maxHueJitter)
	c.TrailPoints = min(max(c.TrailPoints, minTrailPoints), maxTrailPoints)
	if c.LineWidth <= 0 || !isFinite(c.LineWidth) {
		c.LineWidth = d.LineWidth
	}
	return c
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func ptr[T any](v T) *T {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOr(v, fallback float64) float64 {
	if isFinite(v) {
		return v
	}
	return fallback
}
