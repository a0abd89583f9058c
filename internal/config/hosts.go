package config

import "time"

// Terminal configures a terminal session, local or over SSH.
type Terminal struct {
	// ColorProfile forces truecolor, 256, 16 or ascii. Empty detects it.
	ColorProfile string `env:"COLOR_PROFILE"`
	FPS          int    `env:"FPS" envDefault:"30"`
	Mouse        bool   `env:"MOUSE" envDefault:"true"`
	Banner       string `env:"BANNER" envDefault:"STARFIELD"`
	ShowStatus   bool   `env:"SHOW_STATUS" envDefault:"true"`
}

// SSH configures the SSH server.
type SSH struct {
	Host            string        `env:"SSH_HOST" envDefault:"::"`
	Port            string        `env:"SSH_PORT" envDefault:"2222"`
	HostKeyPath     string        `env:"SSH_HOST_KEY" envDefault:"/app/keys/host_key"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`
	IdleWarning     time.Duration `env:"IDLE_WARNING" envDefault:"4m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Web configures the HTTP snapshot server.
type Web struct {
	Host      string `env:"WEB_HOST" envDefault:"0.0.0.0"`
	Port      string `env:"WEB_PORT" envDefault:"8080"`
	SSHHost   string `env:"SSH_DISPLAY_HOST" envDefault:"your-server.com"`
	MaxFrames int    `env:"WEB_MAX_FRAMES" envDefault:"600"`
	MaxWidth  int    `env:"WEB_MAX_WIDTH" envDefault:"1920"`
	MaxHeight int    `env:"WEB_MAX_HEIGHT" envDefault:"1080"`
}

// Window configures the desktop window.
type Window struct {
	Title  string `env:"WINDOW_TITLE" envDefault:"starfield"`
	Width  int    `env:"WINDOW_WIDTH" envDefault:"1280"`
	Height int    `env:"WINDOW_HEIGHT" envDefault:"720"`
	TPS    int    `env:"WINDOW_TPS" envDefault:"60"`
}
