package tui

import (
	"github.com/Veraticus/expenses/internal/model"
)

// Data loading messages.
type categoriesLoadedMsg struct {
	err        error
	categories []model.Category
}

// recategorizedMsg reports the outcome of a vendor category change.
type recategorizedMsg struct {
	err      error
	vendor   model.Vendor
	category string
}
