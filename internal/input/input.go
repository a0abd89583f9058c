// Package input decodes terminal key presses and mouse reports.
package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
type Input struct {
	Quit bool

	// Held movement keys
	Left  bool
	Right bool
	Up    bool
	Down  bool

	// Pressed this frame
	Accelerate   bool
	ToggleOrigin bool

	Mouse   []Mouse
	Pressed []byte
}

// keyState tracks the last time each movement key was pressed.
type keyState struct {
	left  time.Time
	right time.Time
	up    time.Time
	down  time.Time
}

// Stream delivers input bytes via a channel and tracks key state between frames.
type Stream struct {
	ch      chan byte
	state   keyState
	pending []byte // Incomplete escape sequence from the previous read
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch: make(chan byte, 128),
	}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking).
// A closed stream reports Quit.
func ReadInput(s *Stream) Input {
	return s.read(time.Now())
}

func (s *Stream) read(now time.Time) Input {
	buf := s.pending
	s.pending = nil
	fresh := 0

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
			fresh++
		default:
			break drain
		}
	}

	keys, mice, rest := Parse(buf)
	// A sequence that did not grow since the last frame was a bare ESC.
	if len(rest) > 0 && (fresh == 0 || s.closed) {
		if rest[0] == '\x1b' && len(rest) == 1 {
			keys = append(keys, KeyEscape)
		}
		rest = nil
	}
	s.pending = append([]byte(nil), rest...)

	in := Input{Quit: s.closed, Mouse: mice, Pressed: buf}
	for _, k := range keys {
		switch k {
		case KeyQuit, KeyEscape:
			in.Quit = true
		case KeyLeft:
			s.state.left = now
		case KeyRight:
			s.state.right = now
		case KeyUp:
			s.state.up = now
		case KeyDown:
			s.state.down = now
		case KeySpace:
			in.Accelerate = true
		case KeyOrigin:
			in.ToggleOrigin = true
		}
	}

	// Keys are "held" if seen within the hold duration
	in.Left = now.Sub(s.state.left) < keyHoldDuration
	in.Right = now.Sub(s.state.right) < keyHoldDuration
	in.Up = now.Sub(s.state.up) < keyHoldDuration
	in.Down = now.Sub(s.state.down) < keyHoldDuration
	return in
}
