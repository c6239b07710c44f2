package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"testing"

	"periph.io/x/devices/v3/ntsclink/wire"
)

// recorder is a Display that logs every call.
type recorder struct {
	calls []string
	vram  []byte
	under byte
}

func newRecorder(n int) *recorder {
	return &recorder{vram: make([]byte, n)}
}

func (r *recorder) log(format string, a ...interface{}) {
	r.calls = append(r.calls, fmt.Sprintf(format, a...))
}

func (r *recorder) SetCursor(x, y, c byte)            { r.log("cursor %d,%d,%d", x, y, c) }
func (r *recorder) SetCursorColor(c byte)             { r.log("color %d", c) }
func (r *recorder) PrintChar(n byte)                  { r.log("char %q", n) }
func (r *recorder) PrintString(s []byte)              { r.log("str %q", s) }
func (r *recorder) PrintNumber(n uint32)              { r.log("num %d", n) }
func (r *recorder) PrintNumberWidth(n uint32, e byte) { r.log("num2 %d,%d", n, e) }
func (r *recorder) Clear()                            { r.log("cls") }
func (r *recorder) SetPalette(n, b, g, rr byte)       { r.log("palette %d,%d,%d,%d", n, b, g, rr) }
func (r *recorder) VRAM() []byte                      { return r.vram }

type cursorRecorder struct {
	*recorder
}

func (c cursorRecorder) CursorChar() byte { return c.under }

type step struct {
	m wire.Mode
	b byte
}

func cmd(b byte) step { return step{wire.Command, b} }

func data(bs ...byte) []step {
	out := make([]step, len(bs))
	for i, b := range bs {
		out[i] = step{wire.Data, b}
	}
	return out
}

func seq(parts ...interface{}) []step {
	var out []step
	for _, p := range parts {
		switch v := p.(type) {
		case step:
			out = append(out, v)
		case []step:
			out = append(out, v...)
		}
	}
	return out
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
		want  []string
	}{
		{
			"character shorthand",
			seq(cmd('H'), cmd('i')),
			[]string{`char 'H'`, `char 'i'`},
		},
		{
			"set cursor",
			seq(cmd(wire.SetCursor), data(3, 4, 2)),
			[]string{"cursor 3,4,2"},
		},
		{
			"set cursor incomplete",
			seq(cmd(wire.SetCursor), data(3, 4)),
			nil,
		},
		{
			"set cursor color",
			seq(cmd(wire.SetCursorColor), data(5)),
			[]string{"color 5"},
		},
		{
			"print number",
			seq(cmd(wire.PrintNum), data(0x39, 0x30, 0, 0)),
			[]string{"num 12345"},
		},
		{
			"print number width",
			seq(cmd(wire.PrintNumWidth), data(0xD2, 0x04, 0, 0, 6)),
			[]string{"num2 1234,6"},
		},
		{
			"palette",
			seq(cmd(wire.SetPalette), data(5, 10, 20, 30)),
			[]string{"palette 5,10,20,30"},
		},
		{
			"clear is immediate",
			seq(cmd(wire.CLS)),
			[]string{"cls"},
		},
		{
			"print char repeats",
			seq(cmd(wire.PrintChar), data('a', 'b', 'c')),
			[]string{`char 'a'`, `char 'b'`, `char 'c'`},
		},
		{
			"print string",
			seq(cmd(wire.PrintStr), data('o', 'k', 0)),
			[]string{`str "ok"`},
		},
		{
			"print string twice",
			seq(cmd(wire.PrintStr), data('a', 0, 'b', 0)),
			[]string{`str "a"`, `str "b"`},
		},
		{
			"empty string",
			seq(cmd(wire.PrintStr), data(0)),
			[]string{`str ""`},
		},
		{
			"unterminated string",
			seq(cmd(wire.PrintStr), data('x', 'y')),
			nil,
		},
		{
			"new command abandons parameters",
			seq(cmd(wire.SetCursor), data(1, 2), cmd(wire.SetCursorColor), data(9)),
			[]string{"color 9"},
		},
		{
			"extra bytes after dispatch are buffered",
			seq(cmd(wire.SetCursorColor), data(1, 2, 3)),
			[]string{"color 1"},
		},
		{
			"palette does not fire again for the next command",
			seq(cmd(wire.SetPalette), data(5, 10, 20, 30), cmd(wire.SetCursor), data(1)),
			[]string{"palette 5,10,20,30"},
		},
		{
			"nop abandons parameters",
			seq(cmd(wire.SetCursor), data(1, 2), cmd(wire.Nop), data(3)),
			nil,
		},
		{
			"nop ignores data",
			seq(cmd(wire.Nop), data(1, 2, 3, 4, 5)),
			nil,
		},
		{
			"unknown command ignores data",
			seq(cmd(0xA0), data(1, 2, 3, 4, 5)),
			nil,
		},
		{
			"idle data is ignored",
			data(1, 2, 3),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecorder(8)
			p := New(r, nil)
			for _, s := range tt.steps {
				p.Handle(s.m, s.b)
			}
			if len(r.calls) != len(tt.want) {
				t.Fatalf("calls = %q, want %q", r.calls, tt.want)
			}
			for i := range tt.want {
				if r.calls[i] != tt.want[i] {
					t.Errorf("call %d = %q, want %q", i, r.calls[i], tt.want[i])
				}
			}
		})
	}
}

func TestPrintStringFlushesAtLimit(t *testing.T) {
	r := newRecorder(8)
	p := New(r, nil)
	p.Command(wire.PrintStr)
	long := bytes.Repeat([]byte{'x'}, wire.StrMax+2)
	for _, b := range long {
		p.Data(b)
	}
	if len(r.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(r.calls))
	}
	if want := fmt.Sprintf("str %q", long[:wire.StrMax]); r.calls[0] != want {
		t.Errorf("first flush has wrong length: %d bytes", len(r.calls[0]))
	}
	if got := p.Buffered(); len(got) != 2 {
		t.Errorf("Buffered() = %d bytes, want 2", len(got))
	}
	p.Data(0)
	if r.calls[1] != `str "xx"` {
		t.Errorf("second flush = %q", r.calls[1])
	}
}

func TestRedraw(t *testing.T) {
	r := newRecorder(4)
	var overflow []byte
	obs := ObserverFunc(func(e Event) {
		if e.Kind == RedrawOverflow {
			overflow = append(overflow, e.Data)
		}
	})
	p := New(r, obs)
	p.Command(wire.TextRedraw)
	for _, b := range []byte{1, 2, 3, 4, 5, 6} {
		p.Data(b)
	}
	if !bytes.Equal(r.vram, []byte{1, 2, 3, 4}) {
		t.Errorf("vram = %v, want [1 2 3 4]", r.vram)
	}
	if !bytes.Equal(overflow, []byte{5, 6}) {
		t.Errorf("overflow = %v, want [5 6]", overflow)
	}
	if p.Redrawn() != 4 {
		t.Errorf("Redrawn() = %d, want 4", p.Redrawn())
	}

	// A new redraw starts at the top again.
	p.Command(wire.TextRedraw)
	p.Data(9)
	if r.vram[0] != 9 || p.Redrawn() != 1 {
		t.Errorf("restart: vram[0]=%d redrawn=%d", r.vram[0], p.Redrawn())
	}
}

func TestRedrawInterrupted(t *testing.T) {
	r := newRecorder(4)
	p := New(r, nil)
	p.Command(wire.TextRedraw)
	p.Data(1)
	p.Data(2)
	p.Command('A')
	p.Data(3)
	if !bytes.Equal(r.vram, []byte{1, 2, 0, 0}) {
		t.Errorf("vram = %v, want [1 2 0 0]", r.vram)
	}
}

func TestRequiredLenRepeatsAfterWrap(t *testing.T) {
	r := newRecorder(8)
	p := New(r, nil)
	p.Command(wire.SetCursorColor)
	for i := 0; i < wire.ParamMax; i++ {
		p.Data(byte(i))
	}
	if len(r.calls) != 1 {
		t.Fatalf("calls after %d bytes = %q", wire.ParamMax, r.calls)
	}
	// The counter has wrapped; the next byte lands at position 0 again.
	p.Data(42)
	if len(r.calls) != 2 || r.calls[1] != "color 42" {
		t.Errorf("calls = %q, want a second color 42", r.calls)
	}
}

func TestStatus(t *testing.T) {
	r := newRecorder(8)
	r.under = 'Q'
	if got := New(r, nil).Status(); got != 0 {
		t.Errorf("Status() without CursorReader = %#02x, want 0", got)
	}
	if got := New(cursorRecorder{r}, nil).Status(); got != 'Q' {
		t.Errorf("Status() = %q, want 'Q'", got)
	}
}

func TestResetAndPending(t *testing.T) {
	p := New(newRecorder(8), nil)
	if p.Pending() != wire.Nop {
		t.Errorf("Pending() = %#02x, want NOP", p.Pending())
	}
	p.Command(wire.SetCursor)
	p.Data(1)
	if p.Pending() != wire.SetCursor || !bytes.Equal(p.Buffered(), []byte{1}) {
		t.Errorf("Pending/Buffered = %#02x %v", p.Pending(), p.Buffered())
	}
	p.Reset()
	if p.Pending() != wire.Nop || len(p.Buffered()) != 0 {
		t.Error("Reset should return to idle")
	}
}

func TestEvents(t *testing.T) {
	var got []Event
	p := New(newRecorder(8), ObserverFunc(func(e Event) { got = append(got, e) }))
	p.Command(wire.SetCursorColor)
	p.Data(3)
	p.Command(0xA0)
	p.Data(7)

	want := []EventKind{CommandAccepted, Dispatched, CommandAccepted, DataIgnored}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("event %d kind = %v, want %v", i, got[i].Kind, k)
		}
	}
	if !bytes.Equal(got[1].Params, []byte{3}) {
		t.Errorf("dispatch params = %v", got[1].Params)
	}
	if s := got[1].String(); s != "dispatch SETCURSORCOLOR 03" {
		t.Errorf("String() = %q", s)
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	o := &LogObserver{Logger: log.New(&buf, "", 0)}
	p := New(newRecorder(8), o)
	p.Command(wire.SetPalette)
	for _, b := range []byte{1, 2, 3, 4} {
		p.Data(b)
	}
	out := buf.String()
	if strings.Contains(out, "command") {
		t.Errorf("quiet observer logged a command: %q", out)
	}
	if !strings.Contains(out, "dispatch SET_PALETTE 01 02 03 04") {
		t.Errorf("log = %q", out)
	}

	buf.Reset()
	o.Verbose = true
	p.Command(wire.CLS)
	if !strings.Contains(buf.String(), "command CLS") {
		t.Errorf("verbose log = %q", buf.String())
	}
}

// handlerSender delivers frames straight into a Dispatcher.
type handlerSender struct {
	p *Dispatcher
}

func (h handlerSender) Send(_ context.Context, m wire.Mode, b byte) error {
	h.p.Handle(m, b)
	return nil
}

func TestRoundTrip(t *testing.T) {
	frames := []struct {
		f    wire.Frame
		want string
	}{
		{wire.SetCursorFrame(3, 4, 2), "cursor 3,4,2"},
		{wire.SetCursorColorFrame(6), "color 6"},
		{wire.CharFrame('z'), `char 'z'`},
		{wire.CharFrame(0xE0), fmt.Sprintf("char %q", byte(0xE0))},
		{wire.PrintStrFrame([]byte("HI")), `str "HI"`},
		{wire.PrintNumFrame(4000000000), "num 4000000000"},
		{wire.PrintNumWidthFrame(77, 3), "num2 77,3"},
		{wire.CLSFrame(), "cls"},
		{wire.SetPaletteFrame(9, 1, 2, 3), "palette 9,1,2,3"},
	}
	for _, tt := range frames {
		r := newRecorder(8)
		p := New(r, nil)
		if err := wire.Transmit(context.Background(), handlerSender{p}, tt.f); err != nil {
			t.Fatalf("Transmit(%s) failed: %v", wire.Name(tt.f.Cmd), err)
		}
		if len(r.calls) != 1 || r.calls[0] != tt.want {
			t.Errorf("%s: calls = %q, want [%q]", wire.Name(tt.f.Cmd), r.calls, tt.want)
		}
	}
}
