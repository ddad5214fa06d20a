package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/tui/themes"
)

// CategorySelectedMsg is sent when a category was picked for a vendor. A nil
// CategoryID clears the vendor category.
type CategorySelectedMsg struct {
	CategoryID *int64
	Vendor     model.Vendor
}

// DialogClosedMsg is sent when the dialog is dismissed without a choice.
type DialogClosedMsg struct{}

// DialogKeys are the bindings used by the dialog.
type DialogKeys struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Cancel key.Binding
}

// DefaultDialogKeys returns the default dialog bindings.
func DefaultDialogKeys() DialogKeys {
	return DialogKeys{
		Up:     key.NewBinding(key.WithKeys("k", "up")),
		Down:   key.NewBinding(key.WithKeys("j", "down")),
		Choose: key.NewBinding(key.WithKeys("enter")),
		Cancel: key.NewBinding(key.WithKeys("esc", "q")),
	}
}

// CategoryDialogModel lets the user pick the category of a vendor. The first
// option is "None".
type CategoryDialogModel struct {
	theme      themes.Theme
	keys       DialogKeys
	vendor     model.Vendor
	categories []model.Category
	cursor     int
}

// NewCategoryDialog opens the dialog with the vendor's current category
// highlighted.
func NewCategoryDialog(vendor model.Vendor, categories []model.Category, theme themes.Theme) CategoryDialogModel {
	m := CategoryDialogModel{
		theme:      theme,
		keys:       DefaultDialogKeys(),
		vendor:     vendor,
		categories: categories,
	}
	if vendor.CategoryID != nil {
		for i, c := range categories {
			if c.ID == *vendor.CategoryID {
				m.cursor = i + 1
				break
			}
		}
	}
	return m
}

// Vendor returns the vendor being recategorized.
func (m CategoryDialogModel) Vendor() model.Vendor {
	return m.vendor
}

// Cursor returns the highlighted option; 0 is "None".
func (m CategoryDialogModel) Cursor() int {
	return m.cursor
}

// Update handles messages.
func (m CategoryDialogModel) Update(msg tea.Msg) (CategoryDialogModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(keyMsg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.categories))
	case key.Matches(keyMsg, m.keys.Cancel):
		return m, func() tea.Msg { return DialogClosedMsg{} }
	case key.Matches(keyMsg, m.keys.Choose):
		selected := CategorySelectedMsg{Vendor: m.vendor}
		if m.cursor > 0 {
			selected.CategoryID = model.Int64(m.categories[m.cursor-1].ID)
		}
		return m, func() tea.Msg { return selected }
	}
	return m, nil
}

// View renders the dialog.
func (m CategoryDialogModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render(fmt.Sprintf("Category for %s", m.vendor.Name)))
	b.WriteString("\n\n")

	b.WriteString(m.option(0, "   None"))
	for i, c := range m.categories {
		label := fmt.Sprintf("%s %s %s", themes.Swatch(c), themes.GetCategoryIcon(c.Icon), c.Name)
		b.WriteString(m.option(i+1, label))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("↑/↓ move • Enter choose • Esc cancel"))

	return m.theme.Dialog.Render(b.String())
}

func (m CategoryDialogModel) option(index int, label string) string {
	current := m.vendor.CategoryID == nil && index == 0 ||
		m.vendor.CategoryID != nil && index > 0 && m.categories[index-1].ID == *m.vendor.CategoryID
	marker := "  "
	if current {
		marker = "• "
	}

	line := marker + label
	if index == m.cursor {
		line = m.theme.Selected.Render("> " + line)
	} else {
		line = "  " + line
	}
	return line + "\n"
}
