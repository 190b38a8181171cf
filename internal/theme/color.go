package theme

import (
	"fmt"
	"strings"
	"unicode"
)

// Color is an sRGB color with 8-bit channels.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Black is returned for strings that are not 3, 6 or 8 characters long.
var Black = Color{A: 0xFF}

// ParseHex reads "#RGB", "#RRGGBB" or "#AARRGGBB". Punctuation around the
// digits is ignored. The length of what remains picks the layout and its
// leading hex digits supply the value, so "#12G" parses as 0x12 in RGB form.
// Any other length yields opaque black.
func ParseHex(s string) Color {
	hex := strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	v := leadingHex(hex)

	switch len([]rune(hex)) {
	case 3:
		return Color{
			R: uint8((v >> 8 & 0xF) * 17),
			G: uint8((v >> 4 & 0xF) * 17),
			B: uint8((v & 0xF) * 17),
			A: 0xFF,
		}
	case 6:
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
	case 8:
		return Color{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
	default:
		return Black
	}
}

func leadingHex(s string) uint64 {
	var v uint64
	for _, r := range s {
		var d uint64
		switch {
		case r >= '0' && r <= '9':
			d = uint64(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint64(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = uint64(r-'A') + 10
		default:
			return v
		}
		if v > (1<<64-1)>>4 {
			return 1<<64 - 1
		}
		v = v<<4 | d
	}
	return v
}

// Hex formats the color as #RRGGBB, or #AARRGGBB when it is not opaque.
func (c Color) Hex() string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A, c.R, c.G, c.B)
}

// RGBA returns channels as fractions in [0, 1].
func (c Color) RGBA() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}

func (c Color) String() string {
	return c.Hex()
}
