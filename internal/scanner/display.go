package scanner

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

// Brightness levels of a smeared frame.
const (
	Lit         uint8 = 255
	SlightlyDim uint8 = 180
	Dim         uint8 = 120
	Dark        uint8 = 0
)

// Display renders a frame of light brightness values.
type Display interface {
	Show(frame []uint8)
}

// Smear returns a frame of n lights with light index fully lit, its direct
// neighbors slightly dimmed and the next ones out dimmed.
func Smear(index, n int) []uint8 {
	frame := make([]uint8, n)
	for i := range frame {
		switch d := abs(i - index); d {
		case 0:
			frame[i] = Lit
		case 1:
			frame[i] = SlightlyDim
		case 2:
			frame[i] = Dim
		default:
			frame[i] = Dark
		}
	}
	return frame
}

// Blank returns a frame of n dark lights.
func Blank(n int) []uint8 {
	return make([]uint8, n)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// TextDisplay writes one line per changed frame, e.g. "scanner-1 [ .o@o.   ]".
type TextDisplay struct {
	mu    sync.Mutex
	w     io.Writer
	label string
	last  []uint8
}

// NewTextDisplay creates a display writing to w.
func NewTextDisplay(w io.Writer, label string) *TextDisplay {
	return &TextDisplay{w: w, label: label}
}

// Show implements Display. Repeated identical frames are not rewritten.
func (d *TextDisplay) Show(frame []uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last != nil && slices.Equal(d.last, frame) {
		return
	}
	d.last = slices.Clone(frame)
	fmt.Fprintf(d.w, "%s [%s]\n", d.label, Render(frame))
}

// Render draws a frame with one rune per light.
func Render(frame []uint8) string {
	var sb strings.Builder
	for _, v := range frame {
		switch {
		case v >= Lit:
			sb.WriteByte('@')
		case v >= SlightlyDim:
			sb.WriteByte('o')
		case v >= Dim:
			sb.WriteByte('.')
		default:
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
