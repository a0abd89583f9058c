package input

import (
	"bytes"
	"strconv"
)

// Key is a decoded key press.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeySpace
	KeyOrigin
	KeyEscape
	KeyEnter
)

// Mouse is an SGR mouse report. X and Y are 1-based cell coordinates.
type Mouse struct {
	X, Y    int
	Button  int // 0 left, 1 middle, 2 right, 3 none
	Motion  bool
	Release bool
	Wheel   bool
}

// Click reports whether m is a left button press.
func (m Mouse) Click() bool {
	return m.Button == 0 && !m.Motion && !m.Release && !m.Wheel
}

// Parse decodes keys and mouse reports from buf. An escape sequence cut off
// at the end of buf is returned in rest so it can be completed by the next read.
func Parse(buf []byte) (keys []Key, mice []Mouse, rest []byte) {
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b != '\x1b' {
			if k := keyFor(b); k != KeyNone {
				keys = append(keys, k)
			}
			continue
		}

		// Lone ESC at the end may be the start of a sequence.
		if i+1 >= len(buf) {
			return keys, mice, buf[i:]
		}
		if buf[i+1] != '[' {
			keys = append(keys, KeyEscape)
			continue
		}
		if i+2 >= len(buf) {
			return keys, mice, buf[i:]
		}

		switch buf[i+2] {
		case 'A':
			keys = append(keys, KeyUp)
			i += 2
		case 'B':
			keys = append(keys, KeyDown)
			i += 2
		case 'C':
			keys = append(keys, KeyRight)
			i += 2
		case 'D':
			keys = append(keys, KeyLeft)
			i += 2
		case '<':
			m, n, ok := parseSGRMouse(buf[i+3:])
			if n < 0 {
				return keys, mice, buf[i:]
			}
			if ok {
				mice = append(mice, m)
			}
			i += 2 + n
		default:
			// Unknown CSI: skip to its final byte.
			j := i + 2
			for j < len(buf) && (buf[j] < 0x40 || buf[j] > 0x7e) {
				j++
			}
			if j >= len(buf) {
				return keys, mice, buf[i:]
			}
			i = j
		}
	}
	return keys, mice, nil
}

// parseSGRMouse decodes "b;x;yM" or "b;x;ym". n is the number of bytes
// consumed including the final byte, or -1 if the report is still arriving.
// ok is false for a malformed report.
func parseSGRMouse(buf []byte) (m Mouse, n int, ok bool) {
	end := bytes.IndexAny(buf, "Mm")
	if end < 0 {
		for _, c := range buf {
			if (c < '0' || c > '9') && c != ';' {
				return Mouse{}, 0, false
			}
		}
		return Mouse{}, -1, false
	}

	fields := bytes.Split(buf[:end], []byte{';'})
	if len(fields) != 3 {
		return Mouse{}, end + 1, false
	}
	var v [3]int
	for i, f := range fields {
		x, err := strconv.Atoi(string(f))
		if err != nil {
			return Mouse{}, end + 1, false
		}
		v[i] = x
	}

	code := v[0]
	m = Mouse{
		X:       v[1],
		Y:       v[2],
		Button:  code & 3,
		Motion:  code&32 != 0,
		Wheel:   code&64 != 0,
		Release: buf[end] == 'm',
	}
	return m, end + 1, true
}

func keyFor(b byte) Key {
	switch b {
	case 'q', 'Q', 0x03:
		return KeyQuit
	case 'a', 'A', 'h', 'H':
		return KeyLeft
	case 'd', 'D', 'l', 'L':
		return KeyRight
	case 'w', 'W', 'k', 'K':
		return KeyUp
	case 's', 'S', 'j', 'J':
		return KeyDown
	case ' ':
		return KeySpace
	case 'f', 'F':
		return KeyOrigin
	case '\n', '\r':
		return KeyEnter
	}
	return KeyNone
}
