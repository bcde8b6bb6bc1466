// thcrap-launcher/ui/theme.go
package ui

import "github.com/charmbracelet/lipgloss"

// DefaultColors is the palette used when the settings hold no overrides.
var DefaultColors = map[string]string{
	"bg_main":   "#1f3b3e",
	"bg_button": "#475a61",
	"green":     "#5abd42",
	"red":       "#bd4242",
	"fg_1":      "#bbb",
	"fg_2":      "#eee",
}

type Theme struct {
	Title    lipgloss.Style
	Cell     lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Status   lipgloss.Style
}

// NewTheme layers overrides on top of DefaultColors.
func NewTheme(overrides map[string]string) Theme {
	c := make(map[string]lipgloss.Color, len(DefaultColors))
	for name, hex := range DefaultColors {
		c[name] = lipgloss.Color(hex)
	}
	for name, hex := range overrides {
		if _, known := c[name]; known && hex != "" {
			c[name] = lipgloss.Color(hex)
		}
	}

	cell := lipgloss.NewStyle().
		Foreground(c["fg_2"]).
		Background(c["bg_button"]).
		Align(lipgloss.Center).
		Padding(1, 2).
		Margin(0, 1, 1, 0)

	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(c["fg_2"]).
			Background(c["bg_main"]).
			Padding(0, 2),
		Cell:     cell,
		Selected: cell.Background(c["green"]).Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(c["fg_1"]),
		Status:   lipgloss.NewStyle().Foreground(c["red"]),
	}
}
