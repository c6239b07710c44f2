package textvram

import "image/color"

// RGB565 is a palette color packed as 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// PackRGB565 packs 8-bit components the way the display controller does.
func PackRGB565(b, r, g uint8) RGB565 {
	return RGB565(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Components returns the 8-bit red, green and blue components.
// The low bits lost by packing are filled by replicating the high bits.
func (c RGB565) Components() (r, g, b uint8) {
	r5 := uint8(c>>11) & 0x1F
	g6 := uint8(c>>5) & 0x3F
	b5 := uint8(c) & 0x1F
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// RGBA converts the packed color to standard RGBA.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.Components()
	// 8-bit to 16-bit: 0xFF * 0x101 = 0xFFFF
	return uint32(r8) * 0x101, uint32(g8) * 0x101, uint32(b8) * 0x101, 0xFFFF
}

// toRGB565 converts any color.Color to RGB565.
func toRGB565(c color.Color) color.Color {
	if p, ok := c.(RGB565); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return PackRGB565(uint8(b>>8), uint8(r>>8), uint8(g>>8))
}

// RGB565Model converts colors to RGB565.
var RGB565Model = color.ModelFunc(toRGB565)
