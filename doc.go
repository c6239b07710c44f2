// Package ntsclink drives a text display controller over a byte-wide
// parallel handshake bus.
//
// The display controller is a second microcontroller that generates an NTSC
// text screen from its own video RAM. The host sends it one byte at a time,
// each marked as a command or as data, and the controller turns the stream
// into text output.
//
// # Display Characteristics
//
// - 42×27 characters by default, any size up to 255×255
// - Two-plane video RAM: one character code and one palette index per cell
// - 256 entry palette of RGB565 colors
// - Hardware cursor with its own color, newline and backspace handling
// - Scrolling when printing past the last cell
//
// # Hardware Connection
//
//	Host Pin    → Display Pin
//	GND         → GND
//	D0-D7       → D0-D7 (bidirectional)
//	DC          → D/C (High = command)
//	WR          → /WR (active low)
//	RD          → /RD (active low)
//	BUSY        ← /BUSY (Low = busy)
//	RST         → Optional: /RESET of the display controller
//
// # Basic Usage
//
//	package main
//
//	import (
//		"fmt"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/devices/v3/ntsclink"
//		"periph.io/x/devices/v3/ntsclink/parbus"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		pins := parbus.Pins{
//			DC:   gpioreg.ByName("GPIO4"),
//			WR:   gpioreg.ByName("GPIO5"),
//			RD:   gpioreg.ByName("GPIO6"),
//			BUSY: gpioreg.ByName("GPIO7"),
//		}
//		for i := range pins.D {
//			pins.D[i] = gpioreg.ByName(fmt.Sprintf("GPIO%d", 16+i))
//		}
//
//		dev, _ := ntsclink.NewParallel(pins, nil)
//		defer dev.Halt()
//
//		dev.SetCursor(0, 0, 2)
//		dev.PrintString("Hello, world\n")
//		dev.PrintNumberWidth(42, 6)
//	}
//
// # Using Hardware Reset Pin (Optional)
//
// If the reset line of the display controller is connected to a GPIO, pass it
// in Opts. The driver holds it low for 10ms and then releases it to a pulled
// up input:
//
//	dev, _ := ntsclink.NewParallel(pins, &ntsclink.Opts{
//		Cols:        42,
//		Rows:        27,
//		CursorColor: 7,
//		RST:         gpioreg.ByName("GPIO25"),
//	})
//
// # Serial Bridge
//
// When the controller is reached through a USB-CDC or UART bridge instead of
// GPIO lines, use NewSerial. The byte stream is the same:
//
//	dev, _ := ntsclink.NewSerial("/dev/ttyACM0", 115200, nil)
//
// # Screen Copy
//
// Dev keeps its own copy of the video RAM and updates it with every request.
// ScrollUp, ScrollDown and WindowScroll change the copy and then send it in
// full with Redraw. Text and CellAt read the copy without touching the bus.
//
// # Colors
//
// Palette entries are set from 8-bit blue, red and green components and are
// stored as RGB565. The default palette has the eight primary colors at full
// intensity in entries 0-7, at half intensity in 8-15, and white above:
//
//	dev.SetPalette(20, 0, 255, 128) // blue, red, green
//	dev.SetCursorColor(20)
//
// # Display Side
//
// Package dispatch implements the controller half of the protocol. Feed it
// from a parbus.Responder or seriallink.Serve and give it a textvram.Screen
// to get a working display in software; see examples/ntsclink_slave.
package ntsclink
