package config

import "github.com/tomz197/starfield/internal/starfield"

// Starfield holds engine overrides. Unset variables keep the engine defaults.
type Starfield struct {
	StarCount      *int     `env:"STARFIELD_STAR_COUNT"`
	BaseSpeed      *float64 `env:"STARFIELD_BASE_SPEED"`
	TrailFade      *float64 `env:"STARFIELD_TRAIL_FADE"`
	StarColor      *string  `env:"STARFIELD_STAR_COLOR"`
	BackgroundFade *string  `env:"STARFIELD_BACKGROUND_FADE"`

	AccelerationCeiling *float64 `env:"STARFIELD_ACCELERATION_CEILING"`
	AccelerationRate    *float64 `env:"STARFIELD_ACCELERATION_RATE"`
	DecelerationRate    *float64 `env:"STARFIELD_DECELERATION_RATE"`

	SpawnMinRadius *float64 `env:"STARFIELD_SPAWN_MIN_RADIUS"`
	SpawnMaxRadius *float64 `env:"STARFIELD_SPAWN_MAX_RADIUS"`

	OriginMode *starfield.OriginMode `env:"STARFIELD_ORIGIN_MODE"`
	OriginX    *float64              `env:"STARFIELD_ORIGIN_X"`
	OriginY    *float64              `env:"STARFIELD_ORIGIN_Y"`

	HueJitter   *float64 `env:"STARFIELD_HUE_JITTER"`
	TrailPoints *int     `env:"STARFIELD_TRAIL_POINTS"`
	LineWidth   *float64 `env:"STARFIELD_LINE_WIDTH"`
}

// Overrides converts the settings for starfield.Field.Setup.
func (s Starfield) Overrides() starfield.Overrides {
	return starfield.Overrides{
		StarCount:           s.StarCount,
		BaseSpeed:           s.BaseSpeed,
		TrailFade:           s.TrailFade,
		StarColor:           s.StarColor,
		BackgroundFade:      s.BackgroundFade,
		AccelerationCeiling: s.AccelerationCeiling,
		AccelerationRate:    s.AccelerationRate,
		DecelerationRate:    s.DecelerationRate,
		SpawnMinRadius:      s.SpawnMinRadius,
		SpawnMaxRadius:      s.SpawnMaxRadius,
		OriginMode:          s.OriginMode,
		OriginX:             s.OriginX,
		OriginY:             s.OriginY,
		HueJitter:           s.HueJitter,
		TrailPoints:         s.TrailPoints,
		LineWidth:           s.LineWidth,
	}
}
