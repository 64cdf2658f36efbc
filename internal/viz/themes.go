package viz

import (
	"image/color"
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the color scheme of the replay view. Colors are #rrggbb so they
// also drive the GIF palette.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Ink        lipgloss.Color // canvas drawing
	Accent     lipgloss.Color // headings, energy strip
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Alert      lipgloss.Color // recording indicator
}

var Themes = []Theme{
	{
		Name:       "night",
		Background: "#0b0e14",
		Ink:        "#7fdbff",
		Accent:     "#ff79c6",
		Text:       "#e6e6e6",
		Muted:      "#5c6370",
		Alert:      "#ff5555",
	},
	{
		Name:       "phosphor",
		Background: "#001100",
		Ink:        "#33ff33",
		Accent:     "#aaff88",
		Text:       "#33ff33",
		Muted:      "#116611",
		Alert:      "#ffff00",
	},
	{
		Name:       "paper",
		Background: "#fafafa",
		Ink:        "#1f2328",
		Accent:     "#0969da",
		Text:       "#1f2328",
		Muted:      "#8c959f",
		Alert:      "#cf222e",
	},
	{
		Name:       "ocean",
		Background: "#001a33",
		Ink:        "#00a8cc",
		Accent:     "#ffd700",
		Text:       "#e0f0ff",
		Muted:      "#4488aa",
		Alert:      "#ff4444",
	},
}

// ThemeByName looks up a theme; unknown names fall back to the first one.
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme cycles through Themes.
func NextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// rgba parses a #rrggbb color. Anything else is white.
func rgba(c lipgloss.Color) color.RGBA {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
