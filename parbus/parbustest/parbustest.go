// Package parbustest provides simulated GPIO lines for testing the parallel
// handshake bus without hardware.
//
// A Line is one shared signal. Every Pin attached to it may drive it; the
// line reads Low as soon as one driver pulls it Low (wired-AND), and floats
// High when nothing drives it, as if pulled up.
package parbustest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ntsclink/parbus"
)

// Line is one simulated signal shared by several pins.
type Line struct {
	name string

	mu      sync.Mutex
	drivers map[*Pin]gpio.Level
	level   gpio.Level
	rises   uint64
	falls   uint64
	changed chan struct{}
}

// NewLine returns an undriven line, which reads High.
func NewLine(name string) *Line {
	return &Line{
		name:    name,
		drivers: map[*Pin]gpio.Level{},
		level:   gpio.High,
		changed: make(chan struct{}),
	}
}

// Level returns the current level of the line.
func (l *Line) Level() gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Edges returns the number of rising and falling edges seen so far.
func (l *Line) Edges() (rises, falls uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rises, l.falls
}

// Pin returns a new endpoint on the line. The endpoint starts as an input.
func (l *Line) Pin(name string, num int) *Pin {
	return &Pin{N: name, Num: num, line: l, pull: gpio.PullUp}
}

// update recomputes the level; l.mu must be held.
func (l *Line) update() {
	lvl := gpio.High
	for _, v := range l.drivers {
		if v == gpio.Low {
			lvl = gpio.Low
			break
		}
	}
	if lvl == l.level {
		return
	}
	l.level = lvl
	if lvl == gpio.High {
		l.rises++
	} else {
		l.falls++
	}
	close(l.changed)
	l.changed = make(chan struct{})
}

// Pin is one endpoint of a Line. It implements gpio.PinIO.
type Pin struct {
	N   string
	Num int

	line *Line

	// Guarded by line.mu.
	out      bool
	pull     gpio.Pull
	edge     gpio.Edge
	seenRise uint64
	seenFall uint64
}

var errPWM = errors.New("parbustest: PWM not supported")

// String implements conn.Resource.
func (p *Pin) String() string {
	return fmt.Sprintf("%s(%s)", p.N, p.line.name)
}

// Halt implements conn.Resource. It releases the line.
func (p *Pin) Halt() error {
	return p.In(gpio.PullNoChange, gpio.NoEdge)
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.N
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.Num
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	p.line.mu.Lock()
	defer p.line.mu.Unlock()
	if p.out {
		return "Out"
	}
	return "In"
}

// In stops driving the line and arms edge detection. Edges seen before the
// call are forgotten.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	l := p.line
	l.mu.Lock()
	defer l.mu.Unlock()
	p.out = false
	if pull != gpio.PullNoChange {
		p.pull = pull
	}
	p.edge = edge
	p.seenRise, p.seenFall = l.rises, l.falls
	delete(l.drivers, p)
	l.update()
	return nil
}

// Read returns the line level.
func (p *Pin) Read() gpio.Level {
	return p.line.Level()
}

// pending reports and consumes an edge matching p.edge; l.mu must be held.
func (p *Pin) pending() bool {
	l := p.line
	hit := false
	if (p.edge == gpio.RisingEdge || p.edge == gpio.BothEdges) && l.rises > p.seenRise {
		hit = true
	}
	if (p.edge == gpio.FallingEdge || p.edge == gpio.BothEdges) && l.falls > p.seenFall {
		hit = true
	}
	if hit {
		p.seenRise, p.seenFall = l.rises, l.falls
	}
	return hit
}

// WaitForEdge waits for an edge armed by In. A negative timeout waits
// forever. An edge that happened since the last call is reported at once.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	l := p.line
	for {
		l.mu.Lock()
		if p.pending() {
			l.mu.Unlock()
			return true
		}
		changed := l.changed
		l.mu.Unlock()

		select {
		case <-changed:
		case <-expired:
			l.mu.Lock()
			defer l.mu.Unlock()
			return p.pending()
		}
	}
}

// Pull returns the pull configured by In.
func (p *Pin) Pull() gpio.Pull {
	p.line.mu.Lock()
	defer p.line.mu.Unlock()
	return p.pull
}

// DefaultPull implements gpio.PinIn.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Out drives the line.
func (p *Pin) Out(lvl gpio.Level) error {
	l := p.line
	l.mu.Lock()
	defer l.mu.Unlock()
	p.out = true
	l.drivers[p] = lvl
	l.update()
	return nil
}

// PWM implements gpio.PinOut.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errPWM
}

// Bus holds the lines of one simulated parallel bus.
type Bus struct {
	D                [8]*Line
	DC, WR, RD, BUSY *Line
}

// NewBus creates the twelve lines of a bus.
func NewBus() *Bus {
	b := &Bus{
		DC:   NewLine("DC"),
		WR:   NewLine("/WR"),
		RD:   NewLine("/RD"),
		BUSY: NewLine("/BUSY"),
	}
	for i := range b.D {
		b.D[i] = NewLine(fmt.Sprintf("D%d", i))
	}
	return b
}

// Pins returns a fresh set of endpoints on the bus lines. prefix names them.
func (b *Bus) Pins(prefix string) parbus.Pins {
	var p parbus.Pins
	for i, l := range b.D {
		p.D[i] = l.Pin(fmt.Sprintf("%sD%d", prefix, i), i)
	}
	p.DC = b.DC.Pin(prefix+"DC", 8)
	p.WR = b.WR.Pin(prefix+"WR", 9)
	p.RD = b.RD.Pin(prefix+"RD", 10)
	p.BUSY = b.BUSY.Pin(prefix+"BUSY", 11)
	return p
}

// NewPair returns the host and display side pins of a new bus.
func NewPair() (host, display parbus.Pins, bus *Bus) {
	bus = NewBus()
	return bus.Pins("HOST_"), bus.Pins("DISP_"), bus
}

var _ gpio.PinIO = &Pin{}
