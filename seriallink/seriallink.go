// Package seriallink carries the display byte stream over a serial port, for
// hosts that reach the display controller through a USB-CDC or UART bridge
// instead of the parallel bus.
//
// Each transfer is three bytes from the host: a flags byte, a sequence number
// and the value. The responder answers every transfer with two bytes, the
// sequence number it answers and the reply. A write is answered with ACK once
// the byte has been applied, which plays the role of /BUSY going High again.
// A read request is answered with the status byte.
//
// The sequence number lets the host tell a late answer to a transfer that
// already timed out from the answer it is waiting for, so the link stays in
// step after a stall.
package seriallink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"periph.io/x/devices/v3/ntsclink/wire"
)

// Flag bits of the first byte of a transfer.
const (
	FlagCommand = 1 << 0 // value is a command byte
	FlagRead    = 1 << 1 // read request, value is ignored
)

// ACK answers a completed write.
const ACK = 0x06

// DefaultTimeout bounds the wait for each answer.
const DefaultTimeout = time.Second

// ErrProtocol is returned when the peer sends something the protocol does
// not allow.
var ErrProtocol = errors.New("seriallink: protocol error")

// Opts configures a Conn.
type Opts struct {
	// Timeout bounds the wait for each answer. Zero means DefaultTimeout; a
	// negative value waits forever.
	Timeout time.Duration
}

// Conn is the host side of a serial link. It is safe for concurrent use.
type Conn struct {
	mu      sync.Mutex
	rwc     io.ReadWriteCloser
	timeout time.Duration

	seq byte
	in  chan [2]byte
	err error // set before in is closed

	closeOnce sync.Once
	closeErr  error
}

// Open opens the serial port by name, 8N1 at baud.
func Open(port string, baud uint, opts *Opts) (*Conn, error) {
	rwc, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("seriallink: open %s: %w", port, err)
	}
	return NewConn(rwc, opts), nil
}

// NewConn speaks the protocol over an already open stream. The Conn owns rwc
// and closes it on Halt.
func NewConn(rwc io.ReadWriteCloser, opts *Opts) *Conn {
	c := &Conn{rwc: rwc, timeout: DefaultTimeout, in: make(chan [2]byte, 32)}
	if opts != nil && opts.Timeout != 0 {
		c.timeout = opts.Timeout
	}
	go c.readLoop()
	return c
}

// readLoop splits the stream into answers.
func (c *Conn) readLoop() {
	var a [2]byte
	for {
		if _, err := io.ReadFull(c.rwc, a[:]); err != nil {
			c.err = err
			close(c.in)
			return
		}
		c.in <- a
	}
}

// Send writes one byte with the given mode and waits for its ACK.
func (c *Conn) Send(ctx context.Context, m wire.Mode, b byte) error {
	var flags byte
	if m == wire.Command {
		flags = FlagCommand
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	a, err := c.transfer(ctx, flags, b)
	if err != nil {
		return err
	}
	if a != ACK {
		return fmt.Errorf("%w: answer %#02x instead of ACK", ErrProtocol, a)
	}
	return nil
}

// Receive reads the display status byte.
func (c *Conn) Receive(ctx context.Context) (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transfer(ctx, FlagRead, 0)
}

func (c *Conn) transfer(ctx context.Context, flags, b byte) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.seq++
	if _, err := c.rwc.Write([]byte{flags, c.seq, b}); err != nil {
		return 0, fmt.Errorf("seriallink: write: %w", err)
	}
	return c.next(ctx, c.seq)
}

// next waits for the answer to transfer seq. Answers to earlier transfers
// that gave up waiting are dropped.
func (c *Conn) next(ctx context.Context, seq byte) (byte, error) {
	var expired <-chan time.Time
	if c.timeout >= 0 {
		t := time.NewTimer(c.timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		select {
		case a, ok := <-c.in:
			if !ok {
				return 0, fmt.Errorf("seriallink: read: %w", c.err)
			}
			if a[0] != seq {
				continue
			}
			return a[1], nil
		case <-expired:
			return 0, fmt.Errorf("seriallink: wait answer %d: %w", seq, wire.ErrStalled)
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Halt closes the port.
func (c *Conn) Halt() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

func (c *Conn) String() string {
	return "seriallink.Conn"
}

var (
	_ wire.Sender   = &Conn{}
	_ wire.Receiver = &Conn{}
)
