package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// LightTableTheme darkens the stock theme so the chrome recedes behind the
// canvas, and picks the selection amber up from the canvas palette.
type LightTableTheme struct{}

var _ fyne.Theme = (*LightTableTheme)(nil)

func (t *LightTableTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x1E, G: 0x1E, B: 0x23, A: 0xFF} // A shade above the canvas dark
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xFF, G: 0xC4, B: 0x00, A: 0xFF} // Amber, matches selection outlines
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0xC4, B: 0x00, A: 0x60}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF} // Visible gray scrollbar
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *LightTableTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *LightTableTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *LightTableTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16 // Wider scrollbar for easier grabbing
	case theme.SizeNameScrollBarSmall:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
