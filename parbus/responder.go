package parbus

import (
	"context"
	"errors"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Responder is the display side of the bus. It feeds every byte written by
// the host to a wire.Handler. If the handler also implements wire.Status,
// read requests are answered with its Status byte, otherwise with 0.
type Responder struct {
	p    Pins
	h    wire.Handler
	st   wire.Status
	opts Opts
}

// NewResponder configures the display side lines: strobes, D/C and data as
// pulled-up inputs, /BUSY driven Low until Serve or Step runs.
func NewResponder(p Pins, h wire.Handler, opts *Opts) (*Responder, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	if err := p.BUSY.Out(gpio.Low); err != nil {
		return nil, wrap("configure BUSY", err)
	}
	for _, s := range []gpio.PinIO{p.WR, p.RD} {
		if err := s.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, wrap("configure "+s.Name(), err)
		}
	}
	if err := p.DC.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, wrap("configure DC", err)
	}
	if err := releaseData(&p.D); err != nil {
		return nil, err
	}
	r := &Responder{p: p, h: h, opts: opts.withDefaults()}
	r.st, _ = h.(wire.Status)
	return r, nil
}

// Serve handles transfers until ctx is done or a handshake stalls. /BUSY is
// left Low on return so the host does not start another transfer.
func (r *Responder) Serve(ctx context.Context) error {
	for {
		if err := r.Step(ctx); err != nil {
			return errors.Join(err, wrapErr("assert BUSY", r.p.BUSY.Out(gpio.Low)))
		}
	}
}

// Step signals ready, waits for one strobe and handles that transfer. The
// wait for the strobe is bounded only by ctx.
func (r *Responder) Step(ctx context.Context) error {
	if err := r.p.BUSY.Out(gpio.High); err != nil {
		return wrap("release BUSY", err)
	}
	for {
		wr, rd := r.p.WR.Read(), r.p.RD.Read()
		switch {
		case wr == gpio.Low && rd == gpio.High:
			return r.write(ctx)
		case rd == gpio.Low && wr == gpio.High:
			return r.read(ctx)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		r.p.WR.WaitForEdge(r.opts.Poll)
	}
}

func (r *Responder) write(ctx context.Context) error {
	b := readData(&r.p.D)
	m := wire.Data
	if r.p.DC.Read() == gpio.High {
		m = wire.Command
	}
	if err := r.p.BUSY.Out(gpio.Low); err != nil {
		return wrap("assert BUSY", err)
	}
	// The host must be off the bus before the byte is applied.
	if err := waitLevel(ctx, r.p.WR, gpio.High, r.opts.Timeout, r.opts.Poll); err != nil {
		return wrap("wait WR release", err)
	}
	wire.Deliver(r.h, m, b)
	return nil
}

func (r *Responder) read(ctx context.Context) error {
	var v byte
	if r.st != nil {
		v = r.st.Status()
	}
	if err := driveData(&r.p.D, v); err != nil {
		return err
	}
	if err := r.p.BUSY.Out(gpio.Low); err != nil {
		return errors.Join(wrap("assert BUSY", err), releaseData(&r.p.D))
	}
	if err := waitLevel(ctx, r.p.RD, gpio.High, r.opts.Timeout, r.opts.Poll); err != nil {
		return errors.Join(wrap("wait RD release", err), releaseData(&r.p.D))
	}
	return releaseData(&r.p.D)
}

// Halt drives /BUSY Low and releases the data lines.
func (r *Responder) Halt() error {
	if err := r.p.BUSY.Out(gpio.Low); err != nil {
		return err
	}
	return releaseData(&r.p.D)
}
