package parbus

import (
	"context"
	"errors"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Initiator is the host side of the bus. It is safe for concurrent use; one
// transfer is in flight at a time.
type Initiator struct {
	mu   sync.Mutex
	p    Pins
	opts Opts
}

// NewInitiator configures the host side lines: strobes and D/C driven High,
// /BUSY and the data lines as pulled-up inputs.
func NewInitiator(p Pins, opts *Opts) (*Initiator, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	for _, o := range []gpio.PinIO{p.DC, p.WR, p.RD} {
		if err := o.Out(gpio.High); err != nil {
			return nil, wrap("configure "+o.Name(), err)
		}
	}
	if err := p.BUSY.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, wrap("configure BUSY", err)
	}
	if err := releaseData(&p.D); err != nil {
		return nil, err
	}
	return &Initiator{p: p, opts: opts.withDefaults()}, nil
}

// Send writes one byte with the given mode.
func (i *Initiator) Send(ctx context.Context, m wire.Mode, b byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.waitBusy(ctx, gpio.High); err != nil {
		return wrap("wait ready", err)
	}
	if err := i.p.DC.Out(gpio.Level(m == wire.Command)); err != nil {
		return wrap("set DC", err)
	}
	if err := driveData(&i.p.D, b); err != nil {
		return err
	}
	if err := i.p.WR.Out(gpio.Low); err != nil {
		return wrap("assert WR", err)
	}
	if err := i.waitBusy(ctx, gpio.Low); err != nil {
		// Give the bus back before reporting.
		return errors.Join(wrap("wait acknowledge", err),
			wrapErr("release WR", i.p.WR.Out(gpio.High)),
			releaseData(&i.p.D))
	}
	if err := i.p.WR.Out(gpio.High); err != nil {
		return wrap("release WR", err)
	}
	return releaseData(&i.p.D)
}

// Receive reads one byte from the display.
func (i *Initiator) Receive(ctx context.Context) (byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.waitBusy(ctx, gpio.High); err != nil {
		return 0, wrap("wait ready", err)
	}
	if err := i.p.RD.Out(gpio.Low); err != nil {
		return 0, wrap("assert RD", err)
	}
	if err := i.waitBusy(ctx, gpio.Low); err != nil {
		return 0, errors.Join(wrap("wait data", err),
			wrapErr("release RD", i.p.RD.Out(gpio.High)))
	}
	b := readData(&i.p.D)
	if err := i.p.RD.Out(gpio.High); err != nil {
		return 0, wrap("release RD", err)
	}
	return b, nil
}

func (i *Initiator) waitBusy(ctx context.Context, want gpio.Level) error {
	return waitLevel(ctx, i.p.BUSY, want, i.opts.Timeout, i.opts.Poll)
}

// Halt returns the strobes to idle and releases the data lines.
func (i *Initiator) Halt() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.p.WR.Out(gpio.High); err != nil {
		return err
	}
	if err := i.p.RD.Out(gpio.High); err != nil {
		return err
	}
	return releaseData(&i.p.D)
}

func (i *Initiator) String() string {
	return "parbus.Initiator{" + i.p.WR.Name() + "}"
}
