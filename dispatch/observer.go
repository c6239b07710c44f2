package dispatch

import (
	"fmt"
	"log"

	"periph.io/x/devices/v3/ntsclink/wire"
)

// EventKind classifies an Event.
type EventKind int

const (
	CommandAccepted EventKind = iota // a command byte arrived
	Dispatched                       // a display operation was called with Params
	RedrawOverflow                   // a redraw byte past the end of video RAM was dropped
	DataIgnored                      // a data byte arrived for a command that never uses it
)

func (k EventKind) String() string {
	switch k {
	case CommandAccepted:
		return "command"
	case Dispatched:
		return "dispatch"
	case RedrawOverflow:
		return "overflow"
	case DataIgnored:
		return "ignored"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes one step of the dispatcher.
type Event struct {
	Kind   EventKind
	Cmd    byte
	Data   byte
	Params []byte
}

func (e Event) String() string {
	switch e.Kind {
	case Dispatched:
		return fmt.Sprintf("%s %s % x", e.Kind, wire.Name(e.Cmd), e.Params)
	case CommandAccepted:
		return fmt.Sprintf("%s %s", e.Kind, wire.Name(e.Cmd))
	}
	return fmt.Sprintf("%s %s %#02x", e.Kind, wire.Name(e.Cmd), e.Data)
}

// Observer is told about every event. It must not call back into the
// dispatcher.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// LogObserver writes events to a logger. A nil Logger uses the standard
// logger.
type LogObserver struct {
	Logger *log.Logger
	// Verbose also logs command bytes and ignored data.
	Verbose bool
}

// Observe implements Observer.
func (o *LogObserver) Observe(e Event) {
	if !o.Verbose && (e.Kind == CommandAccepted || e.Kind == DataIgnored) {
		return
	}
	if o.Logger == nil {
		log.Print(e)
		return
	}
	o.Logger.Print(e)
}

func (p *Dispatcher) emit(e Event) {
	if p.obs != nil {
		p.obs.Observe(e)
	}
}
