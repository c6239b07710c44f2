// Package wire defines the byte protocol spoken between the host and the
// display controller.
//
// Each transfer carries one byte plus a mode flag telling the receiver whether
// the byte is a command or data. A command byte below 0x80 is shorthand for
// "print this character". Command bytes at or above 0x80 select an operation
// whose parameters follow as data bytes.
package wire

import (
	"context"
	"errors"
	"fmt"
)

// Mode tells the receiver how to interpret a byte.
type Mode uint8

const (
	Data    Mode = iota // Parameter byte
	Command             // Command byte
)

func (m Mode) String() string {
	if m == Command {
		return "command"
	}
	return "data"
}

// Command identifiers.
const (
	// CharLimit is the first byte value that is not a printable character
	// shorthand.
	CharLimit = 0x80

	Nop            = 0x80 // Idle marker
	SetCursor      = 0x90 // x, y, color
	SetCursorColor = 0x91 // color
	PrintChar      = 0x92 // one character per data byte, repeatable
	PrintStr       = 0x93 // bytes until 0x00 or StrMax
	PrintNum       = 0x94 // uint32 little-endian
	PrintNumWidth  = 0x95 // uint32 little-endian, width
	CLS            = 0x96 // no parameters
	SetPalette     = 0x97 // index, blue, red, green
	TextRedraw     = 0x98 // 2*ATTROFFSET bytes of video RAM
)

// StrMax is the number of string bytes the receiver buffers before it prints
// without waiting for a terminator.
const StrMax = 255

// ParamMax is the size of the receiver parameter buffer.
const ParamMax = 256

// ErrStalled is returned by transports when a handshake wait did not resolve
// before its deadline.
var ErrStalled = errors.New("link stalled")

var names = map[byte]string{
	Nop:            "NOP",
	SetCursor:      "SETCURSOR",
	SetCursorColor: "SETCURSORCOLOR",
	PrintChar:      "PRINTCHAR",
	PrintStr:       "PRINTSTR",
	PrintNum:       "PRINTNUM",
	PrintNumWidth:  "PRINTNUM2",
	CLS:            "CLS",
	SetPalette:     "SET_PALETTE",
	TextRedraw:     "TEXTREDRAW",
}

// Name returns a readable name for a command byte.
func Name(cmd byte) string {
	if cmd < CharLimit {
		return fmt.Sprintf("CHAR(%#02x)", cmd)
	}
	if n, ok := names[cmd]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(%#02x)", cmd)
}

// RequiredLen returns the number of parameter bytes after which cmd is
// dispatched. Commands that are not dispatched by length report false.
func RequiredLen(cmd byte) (int, bool) {
	switch cmd {
	case SetCursorColor:
		return 1, true
	case SetCursor:
		return 3, true
	case PrintNum, SetPalette:
		return 4, true
	case PrintNumWidth:
		return 5, true
	}
	return 0, false
}

// Decode reads a little-endian unsigned integer of width bytes (1, 2 or 4)
// from the start of b. Missing bytes read as zero.
func Decode(b []byte, width int) uint32 {
	var v uint32
	for i := 0; i < width && i < 4; i++ {
		if i < len(b) {
			v |= uint32(b[i]) << (8 * i)
		}
	}
	return v
}

// Handler receives bytes on the display side.
type Handler interface {
	Command(b byte)
	Data(b byte)
}

// Status supplies the byte returned for a read request.
type Status interface {
	Status() byte
}

// Sender transfers one byte to the display.
type Sender interface {
	Send(ctx context.Context, m Mode, b byte) error
}

// Receiver reads one byte back from the display.
type Receiver interface {
	Receive(ctx context.Context) (byte, error)
}

// Deliver feeds a byte to h according to its mode.
func Deliver(h Handler, m Mode, b byte) {
	if m == Command {
		h.Command(b)
	} else {
		h.Data(b)
	}
}
