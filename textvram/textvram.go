// Package textvram provides the text video RAM of the display controller.
//
// The video RAM holds two planes of AttrOffset bytes each: character codes
// first, then one attribute (palette index) per character at the same offset
// plus AttrOffset. The whole buffer is what a full redraw transfers.
package textvram

import (
	"image"
)

// Default geometry of the NTSC text screen.
const (
	DefaultCols = 42
	DefaultRows = 27
)

// Control characters interpreted by PrintChar.
const (
	Newline   = '\n'
	Backspace = 0x08
)

// Cell is one character position.
type Cell struct {
	Char  byte
	Color byte // palette index
}

// Screen is a text screen with a cursor and a 256-entry palette.
type Screen struct {
	Pix        []byte          // Characters, then attributes
	AttrOffset int             // Offset of the attribute plane
	Rect       image.Rectangle // Bounds in cells

	Palette [256]RGB565

	cursor      int
	cursorColor byte
}

// New creates a blank cols x rows screen. AttrOffset is cols*rows.
func New(cols, rows int) *Screen {
	if cols <= 0 || rows <= 0 {
		return &Screen{Rect: image.Rect(0, 0, 0, 0)}
	}
	n := cols * rows
	return &Screen{
		Pix:        make([]byte, 2*n),
		AttrOffset: n,
		Rect:       image.Rect(0, 0, cols, rows),
	}
}

// Cols returns the number of characters per line.
func (s *Screen) Cols() int {
	return s.Rect.Dx()
}

// Rows returns the number of lines.
func (s *Screen) Rows() int {
	return s.Rect.Dy()
}

// Bounds returns the screen bounds in cells.
func (s *Screen) Bounds() image.Rectangle {
	return s.Rect
}

// VRAM returns both planes. Writes to the slice change the screen.
func (s *Screen) VRAM() []byte {
	return s.Pix
}

// CellAt returns the cell at (x, y).
func (s *Screen) CellAt(x, y int) Cell {
	if !(image.Point{X: x, Y: y}.In(s.Rect)) {
		return Cell{}
	}
	i := s.cellOffset(x, y)
	return Cell{Char: s.Pix[i], Color: s.Pix[i+s.AttrOffset]}
}

// SetCell stores c at (x, y) without moving the cursor.
func (s *Screen) SetCell(x, y int, c Cell) {
	if !(image.Point{X: x, Y: y}.In(s.Rect)) {
		return
	}
	i := s.cellOffset(x, y)
	s.Pix[i] = c.Char
	s.Pix[i+s.AttrOffset] = c.Color
}

// cellOffset returns the character plane offset of (x, y).
func (s *Screen) cellOffset(x, y int) int {
	return (y-s.Rect.Min.Y)*s.Cols() + (x - s.Rect.Min.X)
}

// Cursor returns the cursor position. At the end of the screen y equals Rows.
func (s *Screen) Cursor() (x, y int) {
	if s.Cols() == 0 {
		return 0, 0
	}
	return s.cursor % s.Cols(), s.cursor / s.Cols()
}

// CursorColor returns the palette index used for new characters.
func (s *Screen) CursorColor() byte {
	return s.cursorColor
}

// CursorChar returns the character under the cursor, or 0 past the end.
func (s *Screen) CursorChar() byte {
	if s.cursor < 0 || s.cursor >= s.size() {
		return 0
	}
	return s.Pix[s.cursor]
}

func (s *Screen) size() int {
	return s.Cols() * s.Rows()
}

// SetCursor moves the cursor to (x, y) and sets its color. Out of range
// coordinates are ignored.
func (s *Screen) SetCursor(x, y, c byte) {
	if int(x) >= s.Cols() || int(y) >= s.Rows() {
		return
	}
	s.cursor = int(y)*s.Cols() + int(x)
	s.cursorColor = c
}

// SetCursorColor changes the color without moving the cursor.
func (s *Screen) SetCursorColor(c byte) {
	s.cursorColor = c
}

// PrintChar prints n at the cursor and advances it. Printing past the last
// cell scrolls the screen up first.
func (s *Screen) PrintChar(n byte) {
	end := s.size()
	if s.cursor < 0 || s.cursor > end || end == 0 {
		return
	}
	if s.cursor == end {
		s.ScrollUp()
		s.cursor -= s.Cols()
	}
	switch n {
	case Newline:
		s.cursor += s.Cols() - s.cursor%s.Cols()
	case Backspace:
		if s.cursor > 0 {
			s.cursor--
		}
	default:
		s.Pix[s.cursor] = n
		s.Pix[s.cursor+s.AttrOffset] = s.cursorColor
		s.cursor++
	}
}

// PrintString prints each byte of str up to the first NUL.
func (s *Screen) PrintString(str []byte) {
	for _, b := range str {
		if b == 0 {
			return
		}
		s.PrintChar(b)
	}
}

// PrintNumber prints n in decimal.
func (s *Screen) PrintNumber(n uint32) {
	s.PrintString(FormatNumber(n))
}

// PrintNumberWidth prints n in decimal in e columns.
func (s *Screen) PrintNumberWidth(n uint32, e byte) {
	s.PrintString(FormatNumberWidth(n, e))
}

// Clear zeros both planes and homes the cursor.
func (s *Screen) Clear() {
	for i := range s.Pix {
		s.Pix[i] = 0
	}
	s.cursor = 0
}

// SetPalette sets palette entry n from 8-bit components.
func (s *Screen) SetPalette(n, b, r, g byte) {
	s.Palette[n] = PackRGB565(b, r, g)
}

// ScrollUp moves every line up by one and blanks the last line.
func (s *Screen) ScrollUp() {
	s.WindowScroll(0, s.Rows()-1)
}

// WindowScroll moves lines y1+1..y2 up by one and blanks line y2.
func (s *Screen) WindowScroll(y1, y2 int) {
	if y1 < 0 || y2 >= s.Rows() || y1 > y2 {
		return
	}
	w := s.Cols()
	start, end := y1*w, (y2+1)*w
	copy(s.Pix[start:end-w], s.Pix[start+w:end])
	copy(s.Pix[s.AttrOffset+start:s.AttrOffset+end-w], s.Pix[s.AttrOffset+start+w:s.AttrOffset+end])
	s.blank(end-w, end)
}

// ScrollDown moves every line down by one and blanks the first line.
func (s *Screen) ScrollDown() {
	if s.size() == 0 {
		return
	}
	w, end := s.Cols(), s.size()
	copy(s.Pix[w:end], s.Pix[:end-w])
	copy(s.Pix[s.AttrOffset+w:s.AttrOffset+end], s.Pix[s.AttrOffset:s.AttrOffset+end-w])
	s.blank(0, w)
}

func (s *Screen) blank(from, to int) {
	for i := from; i < to; i++ {
		s.Pix[i] = 0
		s.Pix[i+s.AttrOffset] = 0
	}
}
