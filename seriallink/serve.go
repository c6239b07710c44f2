package seriallink

import (
	"context"
	"fmt"
	"io"

	"periph.io/x/devices/v3/ntsclink/wire"
)

// Serve is the display side of a serial link. It feeds every write to h and
// answers read requests with st.Status(), or 0 when st is nil.
//
// Serve returns when ctx is done, when rw fails, or on a malformed transfer.
// Reads on rw are not interruptible; close rw after Serve returns to release
// them.
func Serve(ctx context.Context, rw io.ReadWriter, h wire.Handler, st wire.Status) error {
	frames := make(chan [3]byte)
	failed := make(chan error, 1)
	go func() {
		var f [3]byte
		for {
			if _, err := io.ReadFull(rw, f[:]); err != nil {
				failed <- err
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failed:
			return fmt.Errorf("seriallink: read: %w", err)
		case f := <-frames:
			a, err := answer(f, h, st)
			if err != nil {
				return err
			}
			// Echo the sequence number so the host can pair the answer.
			if _, err := rw.Write([]byte{f[1], a}); err != nil {
				return fmt.Errorf("seriallink: write: %w", err)
			}
		}
	}
}

func answer(f [3]byte, h wire.Handler, st wire.Status) (byte, error) {
	flags, b := f[0], f[2]
	if flags&^(FlagCommand|FlagRead) != 0 {
		return 0, fmt.Errorf("%w: flags %#02x", ErrProtocol, flags)
	}
	if flags&FlagRead != 0 {
		if st == nil {
			return 0, nil
		}
		return st.Status(), nil
	}
	m := wire.Data
	if flags&FlagCommand != 0 {
		m = wire.Command
	}
	wire.Deliver(h, m, b)
	return ACK, nil
}
