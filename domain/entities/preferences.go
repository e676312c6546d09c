package entities

import "fmt"

// ColorMode is the UI theme mode
type ColorMode string

const (
	ColorModeLight ColorMode = "light"
	ColorModeDark  ColorMode = "dark"

	DefaultColorMode = ColorModeDark
)

// ParseColorMode validates a mode string
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case ColorModeLight, ColorModeDark:
		return ColorMode(s), nil
	default:
		return "", fmt.Errorf("invalid color mode %q: must be light or dark", s)
	}
}

// Toggle returns the opposite mode
func (m ColorMode) Toggle() ColorMode {
	if m == ColorModeLight {
		return ColorModeDark
	}
	return ColorModeLight
}

// Preferences are the persisted user settings
type Preferences struct {
	ColorMode ColorMode `json:"color_mode" yaml:"color_mode"`
}

// Palette is the set of colors a renderer needs for a mode
type Palette struct {
	Mode       ColorMode `json:"mode"`
	Primary    string    `json:"primary"`
	Background string    `json:"background"`
	Paper      string    `json:"paper"`
	AppBar     string    `json:"app_bar"`
}

// PaletteFor returns the palette of the given mode
func PaletteFor(mode ColorMode) Palette {
	if mode == ColorModeLight {
		return Palette{
			Mode:       ColorModeLight,
			Primary:    "#1976d2",
			Background: "#ffffff",
			Paper:      "#ffffff",
			AppBar:     "#ffffff",
		}
	}
	return Palette{
		Mode:       ColorModeDark,
		Primary:    "#90caf9",
		Background: "#121212",
		Paper:      "#1e1e1e",
		AppBar:     "#1e1e1e",
	}
}
