package wire

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

type recorder struct {
	modes  []Mode
	bytes  []byte
	failAt int
}

func (r *recorder) Send(ctx context.Context, m Mode, b byte) error {
	if r.failAt > 0 && len(r.bytes) == r.failAt {
		return ErrStalled
	}
	r.modes = append(r.modes, m)
	r.bytes = append(r.bytes, b)
	return nil
}

func TestRequiredLen(t *testing.T) {
	tests := []struct {
		cmd    byte
		want   int
		wantOK bool
	}{
		{SetCursorColor, 1, true},
		{SetCursor, 3, true},
		{PrintNum, 4, true},
		{SetPalette, 4, true},
		{PrintNumWidth, 5, true},
		{PrintChar, 0, false},
		{PrintStr, 0, false},
		{CLS, 0, false},
		{TextRedraw, 0, false},
		{Nop, 0, false},
		{'A', 0, false},
		{0xFF, 0, false},
	}

	for _, tt := range tests {
		t.Run(Name(tt.cmd), func(t *testing.T) {
			got, ok := RequiredLen(tt.cmd)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("RequiredLen(%#02x) = (%d, %v), want (%d, %v)", tt.cmd, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		b     []byte
		width int
		want  uint32
	}{
		{"byte", []byte{0x7F, 0x01}, 1, 0x7F},
		{"short", []byte{0x34, 0x12, 0xFF}, 2, 0x1234},
		{"word", []byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
		{"max", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, 0xFFFFFFFF},
		{"short buffer", []byte{0x01}, 4, 0x01},
		{"width clamped", []byte{1, 0, 0, 0, 9}, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.b, tt.width); got != tt.want {
				t.Errorf("Decode(%v, %d) = %#x, want %#x", tt.b, tt.width, got, tt.want)
			}
		})
	}
}

func TestFrames(t *testing.T) {
	tests := []struct {
		name     string
		frame    Frame
		wantCmd  byte
		wantData []byte
	}{
		{"ascii char", CharFrame('A'), 'A', nil},
		{"high char", CharFrame(0xC1), PrintChar, []byte{0xC1}},
		{"set cursor", SetCursorFrame(3, 4, 2), SetCursor, []byte{3, 4, 2}},
		{"cursor color", SetCursorColorFrame(7), SetCursorColor, []byte{7}},
		{"string", PrintStrFrame([]byte("HI")), PrintStr, []byte{'H', 'I', 0}},
		{"string cut at NUL", PrintStrFrame([]byte{'A', 0, 'B'}), PrintStr, []byte{'A', 0}},
		{"number", PrintNumFrame(0x01020304), PrintNum, []byte{4, 3, 2, 1}},
		{"number width", PrintNumWidthFrame(258, 6), PrintNumWidth, []byte{2, 1, 0, 0, 6}},
		{"cls", CLSFrame(), CLS, nil},
		{"palette", SetPaletteFrame(5, 10, 20, 30), SetPalette, []byte{5, 10, 20, 30}},
		{"redraw", RedrawFrame([]byte{1, 2, 3, 4}), TextRedraw, []byte{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.frame.Cmd != tt.wantCmd {
				t.Errorf("Cmd = %#02x, want %#02x", tt.frame.Cmd, tt.wantCmd)
			}
			if !bytes.Equal(tt.frame.Data, tt.wantData) {
				t.Errorf("Data = %v, want %v", tt.frame.Data, tt.wantData)
			}
			if tt.frame.Len() != 1+len(tt.wantData) {
				t.Errorf("Len() = %d, want %d", tt.frame.Len(), 1+len(tt.wantData))
			}
		})
	}
}

func TestRedrawFrameCopies(t *testing.T) {
	vram := []byte{1, 2}
	f := RedrawFrame(vram)
	vram[0] = 9
	if f.Data[0] != 1 {
		t.Error("RedrawFrame should not alias the source buffer")
	}
}

func TestTransmit(t *testing.T) {
	r := &recorder{}
	if err := Transmit(context.Background(), r, SetCursorFrame(3, 4, 2)); err != nil {
		t.Fatalf("Transmit failed: %v", err)
	}
	wantModes := []Mode{Command, Data, Data, Data}
	wantBytes := []byte{SetCursor, 3, 4, 2}
	if !bytes.Equal(r.bytes, wantBytes) {
		t.Errorf("bytes = %v, want %v", r.bytes, wantBytes)
	}
	for i, m := range wantModes {
		if r.modes[i] != m {
			t.Errorf("mode[%d] = %v, want %v", i, r.modes[i], m)
		}
	}
}

func TestTransmitStopsOnError(t *testing.T) {
	r := &recorder{failAt: 2}
	err := Transmit(context.Background(), r, SetPaletteFrame(1, 2, 3, 4))
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("Transmit error = %v, want ErrStalled", err)
	}
	if len(r.bytes) != 2 {
		t.Errorf("sent %d bytes before failing, want 2", len(r.bytes))
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		cmd  byte
		want string
	}{
		{SetPalette, "SET_PALETTE"},
		{TextRedraw, "TEXTREDRAW"},
		{0x41, "CHAR(0x41)"},
		{0xA0, "UNKNOWN(0xa0)"},
	}
	for _, tt := range tests {
		if got := Name(tt.cmd); got != tt.want {
			t.Errorf("Name(%#02x) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if Command.String() != "command" || Data.String() != "data" {
		t.Errorf("Mode strings = %q, %q", Command.String(), Data.String())
	}
}
