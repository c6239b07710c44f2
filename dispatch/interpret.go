package dispatch

import (
	"periph.io/x/devices/v3/ntsclink/wire"
)

// invoke calls the display operation of the pending command with arguments
// decoded from a buffer that holds exactly wire.RequiredLen bytes.
func (p *Dispatcher) invoke() {
	a := p.params[:p.pos]
	p.emit(Event{Kind: Dispatched, Cmd: p.cmd, Params: append([]byte(nil), a...)})

	switch p.cmd {
	case wire.SetCursorColor:
		p.d.SetCursorColor(a[0])
	case wire.SetCursor:
		p.d.SetCursor(a[0], a[1], a[2])
	case wire.PrintNum:
		p.d.PrintNumber(wire.Decode(a, 4))
	case wire.SetPalette:
		p.d.SetPalette(a[0], a[1], a[2], a[3])
	case wire.PrintNumWidth:
		p.d.PrintNumberWidth(wire.Decode(a, 4), a[4])
	}
}
