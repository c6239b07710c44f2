// Package textvram provides the text video RAM of the display controller.
//
// The controller keeps two planes of AttrOffset bytes each. The character
// plane comes first; the attribute plane follows it and holds one palette
// index per character at the same offset plus AttrOffset.
//
// Memory layout example for a 4x1 screen (AttrOffset = 4):
//
//	Offset: 0   1   2   3   4   5   6   7
//	Value:  'H' 'I' 0   0   7   7   0   0
//	        (characters)    (palette indexes)
//
// This package provides:
//
// - RGB565: the packed palette color type
// - RGB565Model: a color model for converting standard Go colors to RGB565
// - Screen: the two planes plus a cursor, a cursor color and a palette
//
// Example usage:
//
//	s := textvram.New(textvram.DefaultCols, textvram.DefaultRows)
//	s.SetPalette(7, 255, 255, 255)
//	s.SetCursor(0, 0, 7)
//	s.PrintString([]byte("READY"))
//	s.WriteANSI(os.Stdout)
package textvram
