package ntsclink

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ntsclink/parbus"
	"periph.io/x/devices/v3/ntsclink/seriallink"
	"periph.io/x/devices/v3/ntsclink/textvram"
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Link carries bytes to the display controller. *parbus.Initiator and
// *seriallink.Conn implement it.
type Link interface {
	wire.Sender
	Halt() error
}

// Opts is the configuration for the display.
type Opts struct {
	// Text geometry in characters, 1 to 255 each. It must match the
	// display controller.
	Cols int
	Rows int

	// Palette index of the cursor after initialization.
	CursorColor byte

	// Skip loading the default palette.
	KeepPalette bool

	// Optional hardware reset pin, active low.
	RST gpio.PinIO

	// Stall limit of each handshake wait for links built by NewParallel and
	// NewSerial. Zero uses the transport default; negative waits forever.
	Timeout time.Duration
}

// DefaultOpts is used when nil is passed to a constructor.
var DefaultOpts = Opts{
	Cols:        textvram.DefaultCols,
	Rows:        textvram.DefaultRows,
	CursorColor: 7,
}

var (
	errHalted      = errors.New("ntsclink: halted")
	errCursorRange = errors.New("ntsclink: cursor out of range")
	errNoReadback  = errors.New("ntsclink: link cannot read from the display")
)

// Dev is the host side handle of the text display.
//
// Dev keeps a copy of the video RAM and applies every request to it the same
// way the display controller does, so Redraw and the scroll operations can
// send the whole screen. It is safe for concurrent use.
type Dev struct {
	mu sync.Mutex

	// Communication
	l   Link
	rst gpio.PinIO

	// Local copy of the video RAM and palette
	screen *textvram.Screen

	// State
	bg     textvram.RGB565
	halted bool
}

// NewParallel creates a display driven over the parallel handshake bus.
//
// opts can be nil to use DefaultOpts.
func NewParallel(p parbus.Pins, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}
	ini, err := parbus.NewInitiator(p, &parbus.Opts{Timeout: o.Timeout})
	if err != nil {
		return nil, err
	}
	return newDev(ini, o)
}

// NewSerial creates a display reached through a serial bridge.
func NewSerial(port string, baud uint, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}
	c, err := seriallink.Open(port, baud, &seriallink.Opts{Timeout: o.Timeout})
	if err != nil {
		return nil, err
	}
	d, err := newDev(c, o)
	if err != nil {
		c.Halt()
		return nil, err
	}
	return d, nil
}

// New creates a display on an existing link.
func New(l Link, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}
	return newDev(l, o)
}

func checkOpts(opts *Opts) (*Opts, error) {
	// Apply defaults and validate options
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Cols <= 0 || opts.Cols > 255 {
		return nil, errors.New("ntsclink: columns must be between 1 and 255")
	}
	if opts.Rows <= 0 || opts.Rows > 255 {
		return nil, errors.New("ntsclink: rows must be between 1 and 255")
	}
	return opts, nil
}

func newDev(l Link, opts *Opts) (*Dev, error) {
	// Create device
	d := &Dev{
		l:      l,
		rst:    opts.RST,
		screen: textvram.New(opts.Cols, opts.Rows),
	}
	// Initialize the display
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init resets the display controller and brings it to a known state.
func (d *Dev) init(opts *Opts) error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ntsclink: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		// Released to an input, the pull-up ends the reset.
		if err := d.rst.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("ntsclink: failed to release RST: %w", err)
		}
	}
	// Load the default palette unless the caller set one up already
	if !opts.KeepPalette {
		if err := d.InitPalette(); err != nil {
			return err
		}
	}
	if err := d.SetCursorColor(opts.CursorColor); err != nil {
		return err
	}
	// Clear text VRAM on both sides
	return d.Clear()
}

// send transmits f and, once the display has taken all of it, applies the
// same change to the local copy.
func (d *Dev) send(f wire.Frame, apply func(s *textvram.Screen)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendLocked(f, apply)
}

func (d *Dev) sendLocked(f wire.Frame, apply func(s *textvram.Screen)) error {
	if d.halted {
		return errHalted
	}
	// The copy is only updated when the display took the whole frame
	if err := wire.Transmit(context.Background(), d.l, f); err != nil {
		return fmt.Errorf("ntsclink: %s: %w", wire.Name(f.Cmd), err)
	}
	if apply != nil {
		apply(d.screen)
	}
	return nil
}

// SetCursor moves the cursor to (x, y) and sets its color.
func (d *Dev) SetCursor(x, y, c byte) error {
	if int(x) >= d.screen.Cols() || int(y) >= d.screen.Rows() {
		return errCursorRange
	}
	return d.send(wire.SetCursorFrame(x, y, c), func(s *textvram.Screen) {
		s.SetCursor(x, y, c)
	})
}

// SetCursorColor changes the color of the following characters without
// moving the cursor.
func (d *Dev) SetCursorColor(c byte) error {
	return d.send(wire.SetCursorColorFrame(c), func(s *textvram.Screen) {
		s.SetCursorColor(c)
	})
}

// PrintChar prints one character at the cursor. '\n' moves to the next line
// and 0x08 moves back one cell.
func (d *Dev) PrintChar(n byte) error {
	return d.send(wire.CharFrame(n), func(s *textvram.Screen) {
		s.PrintChar(n)
	})
}

// PutCursorChar prints the character under the cursor again, in the cursor
// color, and leaves the cursor where it was.
func (d *Dev) PutCursorChar() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.screen.CursorChar()
	if err := d.sendLocked(wire.CharFrame(c), func(s *textvram.Screen) { s.PrintChar(c) }); err != nil {
		return err
	}
	return d.sendLocked(wire.CharFrame(textvram.Backspace), func(s *textvram.Screen) {
		s.PrintChar(textvram.Backspace)
	})
}

// PrintString prints str up to its first NUL byte.
func (d *Dev) PrintString(str string) error {
	_, err := d.write([]byte(str), true)
	return err
}

// Write prints p. NUL bytes are printed as character 0.
func (d *Dev) Write(p []byte) (int, error) {
	return d.write(p, false)
}

// Printf formats according to a format specifier and prints the result.
func (d *Dev) Printf(format string, a ...interface{}) error {
	_, err := fmt.Fprintf(d, format, a...)
	return err
}

func (d *Dev) write(p []byte, stopAtNUL bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for len(p) > 0 {
		i := 0
		for i < len(p) && p[i] != 0 {
			i++
		}
		if i > 0 {
			chunk := p[:i]
			err := d.sendLocked(wire.PrintStrFrame(chunk), func(s *textvram.Screen) {
				s.PrintString(chunk)
			})
			if err != nil {
				return n, err
			}
			n += i
		}
		if i == len(p) || stopAtNUL {
			break
		}
		if err := d.sendLocked(wire.CharFrame(0), func(s *textvram.Screen) {
			s.PrintChar(0)
		}); err != nil {
			return n, err
		}
		n++
		p = p[i+1:]
	}
	return n, nil
}

// PrintNumber prints n in decimal at the cursor.
func (d *Dev) PrintNumber(n uint32) error {
	return d.send(wire.PrintNumFrame(n), func(s *textvram.Screen) {
		s.PrintNumber(n)
	})
}

// PrintNumberWidth prints n in decimal right-aligned in e columns, padded
// with spaces. Digits that do not fit are dropped from the left.
func (d *Dev) PrintNumberWidth(n uint32, e byte) error {
	return d.send(wire.PrintNumWidthFrame(n, e), func(s *textvram.Screen) {
		s.PrintNumberWidth(n, e)
	})
}

// Clear blanks the screen and homes the cursor.
func (d *Dev) Clear() error {
	return d.send(wire.CLSFrame(), func(s *textvram.Screen) {
		s.Clear()
	})
}

// SetPalette sets palette entry n from 8-bit blue, red and green components.
func (d *Dev) SetPalette(n, b, r, g byte) error {
	return d.send(wire.SetPaletteFrame(n, b, r, g), func(s *textvram.Screen) {
		s.SetPalette(n, b, r, g)
	})
}

// InitPalette loads the default palette: entries 0-7 are the eight full
// intensity colors, 8-15 the same at half intensity and the rest white.
func (d *Dev) InitPalette() error {
	for i := 0; i < 256; i++ {
		b, r, g := DefaultPalette(byte(i))
		if err := d.SetPalette(byte(i), b, r, g); err != nil {
			return err
		}
	}
	return nil
}

// DefaultPalette returns the blue, red and green components of entry i of
// the default palette. Bit 0 of the index selects blue, bit 1 red and bit 2
// green.
func DefaultPalette(i byte) (b, r, g byte) {
	var k byte
	switch {
	case i < 8:
		k = 255
	case i < 16:
		k = 128
	default:
		return 255, 255, 255
	}
	return k * (i & 1), k * (i >> 1 & 1), k * (i >> 2 & 1)
}

// SetBackground sets the background color from 8-bit blue, red and green
// components and redraws the screen. The display controller has no command
// for it, so the color is only kept by d; see Background.
func (d *Dev) SetBackground(b, r, g byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	d.bg = textvram.PackRGB565(b, r, g)
	return d.redrawLocked()
}

// Background returns the color last set by SetBackground, black by default.
func (d *Dev) Background() textvram.RGB565 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bg
}

// Redraw sends the whole local copy of the video RAM to the display.
func (d *Dev) Redraw() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.redrawLocked()
}

func (d *Dev) redrawLocked() error {
	return d.sendLocked(wire.RedrawFrame(d.screen.VRAM()), nil)
}

// ScrollUp moves every line up by one, blanks the last line and redraws.
func (d *Dev) ScrollUp() error {
	return d.scroll(func(s *textvram.Screen) { s.ScrollUp() })
}

// ScrollDown moves every line down by one, blanks the first line and
// redraws.
func (d *Dev) ScrollDown() error {
	return d.scroll(func(s *textvram.Screen) { s.ScrollDown() })
}

// WindowScroll moves lines y1+1 to y2 up by one, blanks line y2 and redraws.
func (d *Dev) WindowScroll(y1, y2 int) error {
	if y1 < 0 || y2 >= d.screen.Rows() || y1 > y2 {
		return errors.New("ntsclink: scroll window out of range")
	}
	return d.scroll(func(s *textvram.Screen) { s.WindowScroll(y1, y2) })
}

func (d *Dev) scroll(apply func(s *textvram.Screen)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	apply(d.screen)
	return d.redrawLocked()
}

// ReadCursorChar asks the display for the character under its cursor. The
// link must implement wire.Receiver.
func (d *Dev) ReadCursorChar() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return 0, errHalted
	}
	r, ok := d.l.(wire.Receiver)
	if !ok {
		return 0, errNoReadback
	}
	b, err := r.Receive(context.Background())
	if err != nil {
		return 0, fmt.Errorf("ntsclink: read: %w", err)
	}
	return b, nil
}

// ColorModel returns the color model of the palette entries.
func (d *Dev) ColorModel() color.Model {
	return textvram.RGB565Model
}

// Palette returns palette entry n as last set through d.
func (d *Dev) Palette(n byte) textvram.RGB565 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen.Palette[n]
}

// Bounds returns the screen bounds in characters.
func (d *Dev) Bounds() image.Rectangle {
	return d.screen.Bounds()
}

// Cursor returns the cursor position.
func (d *Dev) Cursor() (x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen.Cursor()
}

// CellAt returns the character and color at (x, y).
func (d *Dev) CellAt(x, y int) textvram.Cell {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen.CellAt(x, y)
}

// Text returns the characters on screen, one line per row.
func (d *Dev) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screen.Text()
}

// Halt releases the link. After calling Halt every operation fails.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return nil
	}
	d.halted = true
	return d.l.Halt()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ntsclink.Dev{%dx%d}", d.screen.Cols(), d.screen.Rows())
}
