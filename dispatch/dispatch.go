// Package dispatch turns the byte stream received by the display controller
// into display operations.
//
// A command byte selects the pending command and empties the parameter
// buffer. Data bytes that follow are appended to the buffer; the pending
// command decides when enough has arrived to call the display:
//
//	0x00-0x7F  print the byte itself, immediately
//	PRINTCHAR  print every data byte
//	PRINTSTR   print the buffer at a 0x00 terminator or at 255 bytes
//	TEXTREDRAW copy data bytes into video RAM, dropping any excess
//	CLS        clear immediately
//	others     call the display when the buffer length matches
//	           wire.RequiredLen; the buffer is not emptied afterwards
//
// Data for unknown commands is buffered and never acted on.
package dispatch

import (
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Display is the text screen driven by the dispatcher.
type Display interface {
	SetCursor(x, y, c byte)
	SetCursorColor(c byte)
	PrintChar(n byte)
	PrintString(s []byte)
	PrintNumber(n uint32)
	PrintNumberWidth(n uint32, e byte)
	Clear()
	SetPalette(n, b, r, g byte)
	// VRAM returns the video RAM, 2*ATTROFFSET bytes.
	VRAM() []byte
}

// CursorReader is implemented by displays that can report the character
// under the cursor.
type CursorReader interface {
	CursorChar() byte
}

// Dispatcher is the command/parameter state machine. It is not safe for
// concurrent use; the handshake delivers one byte at a time.
type Dispatcher struct {
	d   Display
	obs Observer

	cmd    byte
	params [wire.ParamMax]byte
	pos    uint8 // wraps like the controller's byte counter
	redraw int
}

// New returns a Dispatcher in the idle state. obs may be nil.
func New(d Display, obs Observer) *Dispatcher {
	p := &Dispatcher{d: d, obs: obs}
	p.Reset()
	return p
}

// Reset returns to the idle state.
func (p *Dispatcher) Reset() {
	p.cmd = wire.Nop
	p.pos = 0
	p.redraw = 0
}

// Pending returns the pending command byte.
func (p *Dispatcher) Pending() byte {
	return p.cmd
}

// Buffered returns the parameter bytes collected since the last command or
// string flush.
func (p *Dispatcher) Buffered() []byte {
	return append([]byte(nil), p.params[:p.pos]...)
}

// Redrawn returns how many video RAM bytes the current redraw has written.
func (p *Dispatcher) Redrawn() int {
	return p.redraw
}

// Handle feeds one byte according to its mode.
func (p *Dispatcher) Handle(m wire.Mode, b byte) {
	wire.Deliver(p, m, b)
}

// Command accepts a command byte.
func (p *Dispatcher) Command(b byte) {
	p.cmd = b
	p.pos = 0
	p.emit(Event{Kind: CommandAccepted, Cmd: b})
	switch {
	case b == wire.CLS:
		p.d.Clear()
	case b == wire.TextRedraw:
		p.redraw = 0
	case b < wire.CharLimit:
		p.d.PrintChar(b)
	}
}

// Data accepts a parameter byte for the pending command.
func (p *Dispatcher) Data(b byte) {
	p.params[p.pos] = b
	p.pos++

	switch p.cmd {
	case wire.PrintChar:
		p.d.PrintChar(b)
	case wire.PrintStr:
		p.printStr(b)
	case wire.TextRedraw:
		p.redrawByte(b)
	default:
		if _, ok := wire.RequiredLen(p.cmd); !ok {
			p.emit(Event{Kind: DataIgnored, Cmd: p.cmd, Data: b})
		}
	}

	if n, ok := wire.RequiredLen(p.cmd); ok && int(p.pos) == n {
		p.invoke()
	}
}

func (p *Dispatcher) printStr(b byte) {
	switch {
	case b == 0:
		p.flushStr(p.params[:p.pos-1])
	case p.pos == wire.StrMax:
		p.flushStr(p.params[:wire.StrMax])
	}
}

func (p *Dispatcher) flushStr(s []byte) {
	str := append([]byte(nil), s...)
	p.pos = 0
	p.emit(Event{Kind: Dispatched, Cmd: wire.PrintStr, Params: str})
	p.d.PrintString(str)
}

func (p *Dispatcher) redrawByte(b byte) {
	vram := p.d.VRAM()
	if p.redraw >= len(vram) {
		p.emit(Event{Kind: RedrawOverflow, Cmd: wire.TextRedraw, Data: b})
		return
	}
	vram[p.redraw] = b
	p.redraw++
}

// Status returns the byte answered to a read request: the character under
// the display cursor when the display can report it, otherwise 0.
func (p *Dispatcher) Status() byte {
	if r, ok := p.d.(CursorReader); ok {
		return r.CursorChar()
	}
	return 0
}

var (
	_ wire.Handler = &Dispatcher{}
	_ wire.Status  = &Dispatcher{}
)
