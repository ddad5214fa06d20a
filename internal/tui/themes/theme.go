package themes

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expenses/internal/model"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Muted       lipgloss.Style
	Amount      lipgloss.Style
	Selected    lipgloss.Style
	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	Dialog      lipgloss.Style
	StatusInfo  lipgloss.Style
	StatusError lipgloss.Style
	Primary     lipgloss.Color
	Border      lipgloss.Color
}

// Default is the default theme.
var Default = newTheme(
	lipgloss.Color("#2ec4b6"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#3b82f6"),
	lipgloss.Color("#ef4444"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#89dceb"),
	lipgloss.Color("#f38ba8"),
)

func newTheme(primary, border, foreground, muted, info, errColor lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Border:  border,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		Normal: lipgloss.NewStyle().
			Foreground(foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(foreground),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Amount: lipgloss.NewStyle().
			Bold(true).
			Foreground(foreground).
			Align(lipgloss.Right),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#1a1a1a")).
			Bold(true),
		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Underline(true).
			Padding(0, 1),
		InactiveTab: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(1, 2),
		StatusInfo: lipgloss.NewStyle().
			Foreground(info).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(errColor).
			Bold(true),
	}
}

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// CategoryIcons maps builtin category icons to emoji.
var CategoryIcons = map[model.BuiltinIcon]string{
	model.IconApartment:     "🏠",
	model.IconBar:           "🍺",
	model.IconCar:           "🚗",
	model.IconFastFood:      "🍔",
	model.IconGames:         "🎮",
	model.IconHealth:        "💊",
	model.IconShopping:      "🛍️",
	model.IconShoppingCart:  "🛒",
	model.IconSubscriptions: "📱",
	model.IconWork:          "💼",
	model.IconDefault:       "📦",
}

// GetCategoryIcon returns an icon for a category.
func GetCategoryIcon(icon model.IconRef) string {
	if e, ok := CategoryIcons[icon.Builtin]; ok {
		return e
	}
	return "❔"
}

// Swatch renders a small block in the category color.
func Swatch(c model.Category) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.RGB())).
		Render("██")
}
