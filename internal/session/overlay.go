package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/tomz197/starfield/internal/starfield"
)

// bannerRows is the banner height in terminal rows (frame, label, frame).
const bannerRows = 3

// cellRect is a 0-based rectangle of terminal cells.
type cellRect struct {
	col, row, width, height int
}

// bannerWidth returns the banner width in cells for a label.
func bannerWidth(label string) float64 {
	return float64(runewidth.StringWidth(label) + 6)
}

func (s *Session) bannerRect() cellRect {
	if s.banner == nil {
		return cellRect{}
	}
	return cellRect{
		col:    int(math.Round(s.banner.X)),
		row:    int(math.Round(s.banner.Y / 2)),
		width:  int(s.banner.Width),
		height: bannerRows,
	}
}

// present renders the canvas and the text overlays, then flushes the frame.
func (s *Session) present() error {
	// On overlay transitions do a full terminal clear so text from the
	// previous state does not persist on screen.
	overlay := s.idle || !s.shuttingDown.IsZero()
	if overlay != s.overlayActive {
		s.chunkWriter.WriteString("\033[H\033[2J")
		s.canvas.ForceRedraw()
		s.overlayActive = overlay
	}

	rect := s.bannerRect()
	if rect != s.bannerCell {
		old := s.bannerCell
		s.canvas.Invalidate(old.col, old.row, old.width, old.height)
		s.bannerCell = rect
	}

	s.canvas.Render(s.chunkWriter, s.opts.Profile)

	cols, rows := s.host.cells()
	switch {
	case !s.shuttingDown.IsZero():
		s.drawShutdownNotice(cols, rows)
	case s.idle:
		s.drawIdleWarning(cols, rows)
	default:
		s.drawBanner(cols, rows)
		if s.opts.ShowStatus {
			s.drawStatus(cols, rows)
		}
	}

	return s.chunkWriter.Flush()
}

// drawBanner draws the tracked element as a framed label.
func (s *Session) drawBanner(cols, rows int) {
	if s.banner == nil || s.banner.Hidden {
		return
	}
	r := s.bannerCell
	if r.col < 0 || r.row < 0 || r.col+r.width > cols || r.row+r.height > rows {
		return
	}

	inner := r.width - 2
	label := s.banner.Label
	pad := inner - runewidth.StringWidth(label)
	mid := strings.Repeat(" ", pad/2) + label + strings.Repeat(" ", pad-pad/2)

	color := "#d8d8ff"
	if s.hover.Inside() {
		color = "#ffffff"
	}
	style := func(text string) string {
		return s.opts.Profile.String(text).Foreground(s.opts.Profile.Color(color)).Bold().String()
	}

	cw := s.chunkWriter
	cw.WriteAt(r.col+1, r.row+1, style("╭"+strings.Repeat("─", inner)+"╮"))
	cw.WriteAt(r.col+1, r.row+2, style("│"+mid+"│"))
	cw.WriteAt(r.col+1, r.row+3, style("╰"+strings.Repeat("─", inner)+"╯"))
}

// drawStatus draws the help and speed line on the bottom row.
// Fields use fixed-width formatting so shrinking values leave no residue.
func (s *Session) drawStatus(cols, rows int) {
	cfg := s.field.Config()
	mode := "track"
	if cfg.OriginMode == starfield.OriginFixed {
		mode = "fixed"
	}
	text := fmt.Sprintf(" x%-5.1f origin:%-5s  space warp  f origin  arrows move  q quit ",
		s.field.Multiplier(), mode)
	if runewidth.StringWidth(text) > cols {
		text = runewidth.Truncate(text, cols, "")
	}
	s.chunkWriter.WriteAt(1, rows, s.dim(text))
}

// drawIdleWarning draws the inactivity warning screen.
func (s *Session) drawIdleWarning(cols, rows int) {
	left := max(s.opts.IdleTimeout-time.Since(s.lastInput), 0)
	s.drawCentered(cols, rows, []string{
		"INACTIVITY WARNING",
		"",
		fmt.Sprintf("You will be disconnected in %d seconds.", int(left.Seconds())),
		"",
		"Press any key to continue",
	})
}

// drawShutdownNotice draws the server shutdown notification screen.
func (s *Session) drawShutdownNotice(cols, rows int) {
	left := max(shutdownDisplay-time.Since(s.shuttingDown), 0)
	s.drawCentered(cols, rows, []string{
		"SERVER SHUTTING DOWN",
		"",
		"Please reconnect in a moment.",
		"",
		fmt.Sprintf("Disconnecting in %d seconds...", int(left.Seconds())+1),
	})
}

func (s *Session) drawCentered(cols, rows int, lines []string) {
	top := rows/2 - len(lines)/2
	for i, line := range lines {
		if line == "" {
			continue
		}
		col := max(cols/2-runewidth.StringWidth(line)/2, 1)
		s.chunkWriter.WriteAt(col, top+i, line)
	}
}

func (s *Session) dim(text string) string {
	return s.opts.Profile.String(text).Foreground(s.opts.Profile.Color("#8888aa")).String()
}
