package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/expenses/internal/tui/themes"
)

// Lines used by everything but the rows: tabs, title, pager, blank line,
// status and help.
const chromeHeight = 7

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.renderLoading()
	}

	if m.state == StateDialog {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.dialog.View())
	}

	var sections []string
	if len(m.currencies) == 0 {
		sections = append(sections, m.renderEmpty())
	} else {
		sections = append(sections,
			m.renderTabs(),
			m.renderTitle(),
			m.pager.View(),
			"",
			m.renderRows(),
		)
	}

	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	if m.config.ShowHelp || m.state == StateHelp {
		sections = append(sections, m.help.View(m.keymap))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Loading expenses..."),
		"",
		m.theme.Muted.Render("Building monthly reports"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderEmpty() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Title.Render("No purchases yet"),
		m.theme.Muted.Render("Import some with `expenses import sms <backup.xml>` or `expenses import ofx <file>`."),
	)
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.currencies))
	for i, code := range m.currencies {
		if code == m.currency {
			tabs[i] = m.theme.ActiveTab.Render(code)
		} else {
			tabs[i] = m.theme.InactiveTab.Render(code)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTitle() string {
	month, ok := m.currentMonth()
	if !ok {
		return ""
	}
	f := m.config.Formatter
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.theme.Title.Render(f.MonthTitle(month.Month)),
		"  ",
		m.theme.Amount.Render(f.Amount(month.Total, m.currency)),
	)
}

func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return m.theme.Muted.Render("Nothing this month")
	}

	visible := max(m.height-chromeHeight, 1)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.rows))

	f := m.config.Formatter
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r, cat, entry, _ := m.rowAt(i)

		var line string
		if r.kind == rowCategory {
			arrow := "▸"
			if m.expanded[cat.Category.ID] {
				arrow = "▾"
			}
			name := fmt.Sprintf("%s %s %s %s (%d)",
				arrow, themes.Swatch(cat.Category), themes.GetCategoryIcon(cat.Category.Icon),
				cat.Category.Name, len(cat.Purchases))
			line = m.columns(name, f.Amount(cat.Total, m.currency), true)
		} else {
			name := fmt.Sprintf("      %s  %s",
				entry.Vendor.Name, m.theme.Muted.Render(f.Timestamp(entry.Purchase.Timestamp)))
			line = m.columns(name, f.Amount(entry.Purchase.Amount, m.currency), false)
		}

		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// columns renders a left label and a right aligned amount on one line.
func (m Model) columns(label, amount string, bold bool) string {
	amountStyle := m.theme.Normal
	if bold {
		amountStyle = m.theme.Bold
	}
	right := amountStyle.Render(amount)

	gap := m.width - lipgloss.Width(label) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + right
}

func (m Model) renderStatus() string {
	if m.lastError != nil {
		return m.theme.StatusError.Render("✗ " + m.lastError.Error())
	}
	if m.status != "" {
		return m.theme.StatusInfo.Render("✓ " + m.status)
	}
	return ""
}
