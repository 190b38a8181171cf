package theme

// Brand palette.
var (
	Pink  = ParseHex("#FD29A9")
	Green = ParseHex("#44C099")

	BackgroundTop    = ParseHex("#1A1A1A")
	BackgroundBottom = ParseHex("#0A0A0A")
	Dock             = ParseHex("#000000")
)

// Palette maps names to brand colors for clients that theme themselves.
func Palette() map[string]Color {
	return map[string]Color{
		"pink":              Pink,
		"green":             Green,
		"background_top":    BackgroundTop,
		"background_bottom": BackgroundBottom,
		"dock":              Dock,
	}
}
