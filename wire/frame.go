package wire

import (
	"context"
	"encoding/binary"
)

// Frame is one command byte followed by its data bytes.
type Frame struct {
	Cmd  byte
	Data []byte
}

// Len returns the number of transfers the frame takes.
func (f Frame) Len() int {
	return 1 + len(f.Data)
}

// Transmit sends the command byte of f followed by each data byte in order.
func Transmit(ctx context.Context, s Sender, f Frame) error {
	if err := s.Send(ctx, Command, f.Cmd); err != nil {
		return err
	}
	for _, b := range f.Data {
		if err := s.Send(ctx, Data, b); err != nil {
			return err
		}
	}
	return nil
}

// CharFrame returns the frame printing n. Characters below CharLimit are
// sent as a bare command byte.
func CharFrame(n byte) Frame {
	if n < CharLimit {
		return Frame{Cmd: n}
	}
	return Frame{Cmd: PrintChar, Data: []byte{n}}
}

// SetCursorFrame moves the cursor to (x, y) with color c.
func SetCursorFrame(x, y, c byte) Frame {
	return Frame{Cmd: SetCursor, Data: []byte{x, y, c}}
}

// SetCursorColorFrame changes the cursor color.
func SetCursorColorFrame(c byte) Frame {
	return Frame{Cmd: SetCursorColor, Data: []byte{c}}
}

// PrintStrFrame prints s. s stops at its first NUL byte; the terminator is
// appended. Strings longer than StrMax are split by the receiver, which
// prints the same characters in the same order.
func PrintStrFrame(s []byte) Frame {
	data := make([]byte, 0, len(s)+1)
	for _, b := range s {
		if b == 0 {
			break
		}
		data = append(data, b)
	}
	return Frame{Cmd: PrintStr, Data: append(data, 0)}
}

// PrintNumFrame prints n in decimal.
func PrintNumFrame(n uint32) Frame {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, n)
	return Frame{Cmd: PrintNum, Data: data}
}

// PrintNumWidthFrame prints n in decimal right-aligned in e columns.
func PrintNumWidthFrame(n uint32, e byte) Frame {
	data := make([]byte, 5)
	binary.LittleEndian.PutUint32(data, n)
	data[4] = e
	return Frame{Cmd: PrintNumWidth, Data: data}
}

// CLSFrame clears the screen.
func CLSFrame() Frame {
	return Frame{Cmd: CLS}
}

// SetPaletteFrame sets palette entry n. The component order on the wire is
// blue, red, green.
func SetPaletteFrame(n, b, r, g byte) Frame {
	return Frame{Cmd: SetPalette, Data: []byte{n, b, r, g}}
}

// RedrawFrame replaces the whole video RAM with vram.
func RedrawFrame(vram []byte) Frame {
	data := make([]byte, len(vram))
	copy(data, vram)
	return Frame{Cmd: TextRedraw, Data: data}
}
