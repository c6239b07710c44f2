// Package parbus moves bytes across the byte-wide parallel handshake bus
// between the host and the display controller.
//
// The bus has eight data lines, a D/C mode line (High = command), the active
// low strobes /WR and /RD driven by the host, and /BUSY driven by the display
// (Low = busy).
//
// Writing a byte (host side):
//
//	host waits until /BUSY is High
//	host shows the byte on the data lines and sets D/C
//	host sets /WR Low
//	display latches data and D/C, then sets /BUSY Low
//	host waits until /BUSY is Low, then sets /WR High
//	host releases the data lines
//	display waits until /WR is High, then applies the byte
//	display sets /BUSY High when done
//
// Reading a byte runs the same sequence with /RD, and the display drives the
// data lines until /RD returns High.
package parbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Pins are the bus lines as seen from one side.
type Pins struct {
	D    [8]gpio.PinIO // D0 is the least significant bit
	DC   gpio.PinIO    // Mode: High = command, Low = data
	WR   gpio.PinIO    // Write strobe, active low
	RD   gpio.PinIO    // Read strobe, active low
	BUSY gpio.PinIO    // Busy, active low
}

func (p *Pins) check() error {
	for i, d := range p.D {
		if d == nil {
			return fmt.Errorf("parbus: data line D%d is nil", i)
		}
	}
	if p.DC == nil || p.WR == nil || p.RD == nil || p.BUSY == nil {
		return errors.New("parbus: DC, WR, RD and BUSY are required")
	}
	return nil
}

// Opts configures the handshake waits.
type Opts struct {
	// Timeout bounds every handshake wait. Zero means DefaultTimeout; a
	// negative value waits forever.
	Timeout time.Duration
	// Poll bounds each edge wait so context cancellation is noticed.
	// Zero means DefaultPoll.
	Poll time.Duration
}

const (
	DefaultTimeout = time.Second
	DefaultPoll    = time.Millisecond
)

func (o *Opts) withDefaults() Opts {
	var r Opts
	if o != nil {
		r = *o
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeout
	}
	if r.Poll <= 0 {
		r.Poll = DefaultPoll
	}
	return r
}

// waitLevel blocks until p reads want. It returns wire.ErrStalled after
// timeout (unless timeout is negative) and ctx.Err() on cancellation.
func waitLevel(ctx context.Context, p gpio.PinIn, want gpio.Level, timeout, poll time.Duration) error {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if p.Read() == want {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		slice := poll
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				return wire.ErrStalled
			}
			if left < slice {
				slice = left
			}
		}
		p.WaitForEdge(slice)
	}
}

// level converts a bit to a line level.
func level(b byte, bit uint) gpio.Level {
	return gpio.Level(b>>bit&1 == 1)
}

// driveData shows b on the data lines.
func driveData(d *[8]gpio.PinIO, b byte) error {
	for i, p := range d {
		if err := p.Out(level(b, uint(i))); err != nil {
			return fmt.Errorf("parbus: drive D%d: %w", i, err)
		}
	}
	return nil
}

// releaseData turns the data lines back into pulled-up inputs.
func releaseData(d *[8]gpio.PinIO) error {
	for i, p := range d {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("parbus: release D%d: %w", i, err)
		}
	}
	return nil
}

// readData samples the data lines.
func readData(d *[8]gpio.PinIO) byte {
	var b byte
	for i, p := range d {
		if p.Read() == gpio.High {
			b |= 1 << uint(i)
		}
	}
	return b
}

// wrap prefixes err with the handshake phase it happened in.
func wrap(phase string, err error) error {
	return fmt.Errorf("parbus: %s: %w", phase, err)
}

// wrapErr is wrap for a cleanup step; it returns nil when err is nil.
func wrapErr(phase string, err error) error {
	if err == nil {
		return nil
	}
	return wrap(phase, err)
}
