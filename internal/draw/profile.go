package draw

import (
	"strings"

	"github.com/muesli/termenv"
)

// ParseProfile maps a configured color profile name to a termenv profile.
// An empty name or "auto" reports ok=false so callers can detect one.
func ParseProfile(name string) (profile termenv.Profile, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "truecolor", "24bit", "rgb":
		return termenv.TrueColor, true
	case "256", "ansi256":
		return termenv.ANSI256, true
	case "16", "ansi":
		return termenv.ANSI, true
	case "ascii", "none", "mono":
		return termenv.Ascii, true
	}
	return termenv.Ascii, false
}

// ProfileFor guesses the color profile of a remote terminal from its TERM
// value and environment, e.g. for an SSH session where the terminal cannot
// be queried directly.
func ProfileFor(term string, environ []string) termenv.Profile {
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "NO_COLOR":
			if value != "" {
				return termenv.Ascii
			}
		case "COLORTERM":
			if value == "truecolor" || value == "24bit" {
				return termenv.TrueColor
			}
		}
	}

	term = strings.ToLower(term)
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.Contains(term, "truecolor"), strings.Contains(term, "24bit"),
		strings.Contains(term, "kitty"), strings.Contains(term, "alacritty"),
		strings.Contains(term, "ghostty"), strings.Contains(term, "wezterm"):
		return termenv.TrueColor
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	}
	return termenv.ANSI
}
