// Package term draws editor buffers on a terminal and turns terminal key
// events into key names.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Frame is everything drawn in one pass.
type Frame struct {
	// Text is the buffer contents.
	Text string

	// Carets are caret offsets into Text. The first one is the primary
	// caret and gets the terminal cursor.
	Carets []int

	// Status is drawn on the last row.
	Status string

	// Message is drawn right-aligned on the status row.
	Message string
}

// Screen implements drawing and key input using tcell.
type Screen struct {
	screen tcell.Screen
	mu     sync.Mutex
}

// New creates a Screen on the controlling terminal.
func New() (*Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Screen{screen: screen}, nil
}

// NewWithScreen wraps an existing tcell screen.
func NewWithScreen(screen tcell.Screen) *Screen {
	return &Screen{screen: screen}
}

// Init takes over the terminal.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.screen.Init(); err != nil {
		return err
	}
	s.screen.SetCursorStyle(tcell.CursorStyleSteadyBlock)
	return nil
}

// Shutdown restores the terminal.
func (s *Screen) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Fini()
}

// Size returns the terminal size in cells.
func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.screen.Size()
}

// PollEvent blocks for the next terminal event. It returns nil once the
// screen is shut down.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

// Beep rings the terminal bell.
func (s *Screen) Beep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.screen.Beep() // best-effort; terminal may not support beep
}

// Draw renders f, scrolling so that the primary caret stays visible.
func (s *Screen) Draw(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	width, height := s.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}
	rows := height - 1

	primary := -1
	secondary := make(map[int]bool, len(f.Carets))
	for i, c := range f.Carets {
		if i == 0 {
			primary = c
			continue
		}
		secondary[c] = true
	}

	top := 0
	if primary >= 0 {
		row, _ := position(f.Text, primary)
		if row >= rows {
			top = row - rows + 1
		}
	}

	plain := tcell.StyleDefault
	reverse := plain.Reverse(true)
	cursorX, cursorY := -1, -1

	row, col, offset := 0, 0, 0
	place := func() {
		y := row - top
		if y < 0 || y >= rows || col >= width {
			return
		}
		if offset == primary {
			cursorX, cursorY = col, y
		}
	}
	for _, r := range f.Text {
		place()
		y := row - top
		if r == '\n' {
			if secondary[offset] && y >= 0 && y < rows && col < width {
				s.screen.SetContent(col, y, ' ', nil, reverse)
			}
			row, col = row+1, 0
			offset++
			continue
		}
		if y >= 0 && y < rows && col < width {
			style := plain
			if secondary[offset] {
				style = reverse
			}
			if r == '\t' {
				r = ' '
			}
			s.screen.SetContent(col, y, r, nil, style)
		}
		col++
		offset++
	}
	place()

	s.drawStatus(width, height-1, f.Status, f.Message)

	if cursorX >= 0 {
		s.screen.ShowCursor(cursorX, cursorY)
	} else {
		s.screen.HideCursor()
	}
	s.screen.Show()
}

func (s *Screen) drawStatus(width, y int, status, message string) {
	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		s.screen.SetContent(x, y, ' ', nil, style)
	}
	x := 0
	for _, r := range status {
		if x >= width {
			break
		}
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
	msg := []rune(message)
	start := width - len(msg)
	if start <= x {
		return
	}
	for i, r := range msg {
		s.screen.SetContent(start+i, y, r, nil, style)
	}
}

// position returns the row and column of a rune offset.
func position(text string, offset int) (row, col int) {
	i := 0
	for _, r := range text {
		if i == offset {
			return row, col
		}
		if r == '\n' {
			row, col = row+1, 0
		} else {
			col++
		}
		i++
	}
	return row, col
}

// KeyName returns the key name of a terminal key event. Printable runes
// stand for themselves; everything else uses an angle-bracket name. The
// second result is false for keys without a name.
func KeyName(ev *tcell.EventKey) (string, bool) {
	k := ev.Key()
	switch k {
	case tcell.KeyRune:
		r := ev.Rune()
		switch r {
		case ' ':
			return "<space>", true
		case '<':
			return "<lt>", true
		}
		if ev.Modifiers()&tcell.ModAlt != 0 {
			return fmt.Sprintf("<a-%c>", r), true
		}
		return string(r), true
	case tcell.KeyEscape:
		return "<esc>", true
	case tcell.KeyEnter:
		return "<cr>", true
	case tcell.KeyTab:
		return "<tab>", true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "<bs>", true
	case tcell.KeyDelete:
		return "<del>", true
	case tcell.KeyUp:
		return "<up>", true
	case tcell.KeyDown:
		return "<down>", true
	case tcell.KeyLeft:
		return "<left>", true
	case tcell.KeyRight:
		return "<right>", true
	case tcell.KeyHome:
		return "<home>", true
	case tcell.KeyEnd:
		return "<end>", true
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return fmt.Sprintf("<c-%c>", 'a'+rune(k-tcell.KeyCtrlA)), true
	}
	return "", false
}
