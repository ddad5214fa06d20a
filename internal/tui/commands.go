package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expenses/internal/model"
)

// loadCategories loads categories from storage.
func (m Model) loadCategories() tea.Cmd {
	backend, timeout := m.config.Backend, m.config.Timeout
	return func() tea.Msg {
		if backend == nil {
			return categoriesLoadedMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		categories, err := backend.GetCategories(ctx)
		return categoriesLoadedMsg{categories: categories, err: err}
	}
}

// setVendorCategory stores the new vendor category. The report refresh
// arrives separately through the watcher.
func (m Model) setVendorCategory(vendor model.Vendor, categoryID *int64) tea.Cmd {
	backend, timeout := m.config.Backend, m.config.Timeout
	name := m.categoryName(categoryID)
	return func() tea.Msg {
		if backend == nil {
			return recategorizedMsg{vendor: vendor, err: fmt.Errorf("storage not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := backend.SetVendorCategory(ctx, vendor.ID, categoryID)
		return recategorizedMsg{vendor: vendor, category: name, err: err}
	}
}

func (m Model) categoryName(id *int64) string {
	if id == nil {
		return "None"
	}
	for _, c := range m.categories {
		if c.ID == *id {
			return c.Name
		}
	}
	return fmt.Sprintf("category #%d", *id)
}
