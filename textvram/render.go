package textvram

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// printable maps a character code to what a terminal can show.
func printable(c byte) byte {
	if c < 0x20 || c >= 0x7F {
		return ' '
	}
	return c
}

// Text returns the character plane as lines of text, one per row.
func (s *Screen) Text() string {
	var b strings.Builder
	for y := 0; y < s.Rows(); y++ {
		line := make([]byte, s.Cols())
		for x := range line {
			line[x] = printable(s.CellAt(x, y).Char)
		}
		b.WriteString(strings.TrimRight(string(line), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteANSI writes the screen to w using 24-bit color escape sequences, one
// line per row. Runs of cells with the same color share one escape.
func (s *Screen) WriteANSI(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for y := 0; y < s.Rows(); y++ {
		last := -1
		for x := 0; x < s.Cols(); x++ {
			c := s.CellAt(x, y)
			if int(c.Color) != last {
				r, g, b := s.Palette[c.Color].Components()
				fmt.Fprintf(bw, "\x1b[38;2;%d;%d;%dm", r, g, b)
				last = int(c.Color)
			}
			bw.WriteByte(printable(c.Char))
		}
		bw.WriteString("\x1b[0m\r\n")
	}
	return bw.Flush()
}
