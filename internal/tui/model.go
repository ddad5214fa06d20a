// Package tui is the interactive monthly expense browser.
package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/report"
	"github.com/Veraticus/expenses/internal/tui/components"
	"github.com/Veraticus/expenses/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateBrowse State = iota
	StateDialog
	StateHelp
)

type rowKind int

const (
	rowCategory rowKind = iota
	rowPurchase
)

// row is a visible line of the month page.
type row struct {
	kind     rowKind
	category int // index into MonthReport.Categories
	entry    int // index into CategorySummary.Purchases
}

// rowKey identifies a row across report rebuilds.
type rowKey struct {
	kind       rowKind
	categoryID int64
	purchaseID int64
}

// Model holds the browser state.
type Model struct {
	theme      themes.Theme
	lastError  error
	reports    map[string]*report.Collection
	expanded   map[int64]bool
	config     Config
	keymap     KeyMap
	status     string
	currency   string
	currencies []string
	categories []model.Category
	rows       []row
	help       help.Model
	dialog     components.CategoryDialogModel
	pager      paginator.Model
	width      int
	height     int
	cursor     int
	state      State
	quitting   bool
	ready      bool
}

// NewModel creates the browser model.
func NewModel(opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	pager := paginator.New()
	pager.PerPage = 1
	pager.ActiveDot = "●"
	pager.InactiveDot = "○"

	h := help.New()
	h.Width = cfg.Width

	return Model{
		theme:    cfg.Theme,
		config:   cfg,
		keymap:   DefaultKeyMap(),
		expanded: make(map[int64]bool),
		help:     h,
		pager:    pager,
		width:    cfg.Width,
		height:   cfg.Height,
		state:    StateBrowse,
	}
}

// Init loads the category list used by the recategorization dialog.
func (m Model) Init() tea.Cmd {
	return m.loadCategories()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case report.Update:
		if msg.Err != nil {
			m.lastError = msg.Err
			return m, nil
		}
		m.lastError = nil
		m.applyReports(msg.Reports)
		m.ready = true
		return m, m.loadCategories()

	case categoriesLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.categories = msg.categories
		return m, nil

	case components.CategorySelectedMsg:
		m.state = StateBrowse
		return m, m.setVendorCategory(msg.Vendor, msg.CategoryID)

	case components.DialogClosedMsg:
		m.state = StateBrowse
		return m, nil

	case recategorizedMsg:
		if msg.err != nil {
			m.lastError = fmt.Errorf("failed to recategorize %s: %w", msg.vendor.Name, msg.err)
			return m, nil
		}
		m.lastError = nil
		m.status = fmt.Sprintf("%s is now in %s", msg.vendor.Name, msg.category)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateDialog:
		var cmd tea.Cmd
		m.dialog, cmd = m.dialog.Update(msg)
		return m, cmd

	case StateHelp:
		if key.Matches(msg, m.keymap.Help, m.keymap.Back) {
			m.state = StateBrowse
			m.help.ShowAll = false
		} else if key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.state = StateHelp
		m.help.ShowAll = true

	case key.Matches(msg, m.keymap.Up):
		m.cursor = max(m.cursor-1, 0)

	case key.Matches(msg, m.keymap.Down):
		m.cursor = max(min(m.cursor+1, len(m.rows)-1), 0)

	case key.Matches(msg, m.keymap.OlderPage):
		m.setPage(m.pager.Page + 1)

	case key.Matches(msg, m.keymap.NewerPage):
		m.setPage(m.pager.Page - 1)

	case key.Matches(msg, m.keymap.Home):
		m.setPage(0)

	case key.Matches(msg, m.keymap.End):
		m.setPage(m.collection().Len() - 1)

	case key.Matches(msg, m.keymap.Currency):
		m.nextCurrency()

	case key.Matches(msg, m.keymap.Toggle):
		m.toggleCurrent()

	case key.Matches(msg, m.keymap.Select):
		return m.selectCurrent()
	}

	return m, nil
}

// applyReports swaps in freshly built reports, keeping the selected
// currency, month and row when they still exist.
func (m *Model) applyReports(reports map[string]*report.Collection) {
	selected, hasSelection := m.selectedKey()
	month, hasMonth := m.currentMonth()

	m.reports = reports
	m.currencies = make([]string, 0, len(reports))
	for code := range reports {
		m.currencies = append(m.currencies, code)
	}
	sort.Strings(m.currencies)

	if _, ok := reports[m.currency]; !ok {
		m.currency = ""
		if len(m.currencies) > 0 {
			m.currency = m.currencies[0]
		}
	}

	page := m.pager.Page
	if hasMonth {
		if i := m.collection().MonthIndex(month.Month); i >= 0 {
			page = i
		}
	}
	m.resetPager(page)

	m.rebuildRows()
	if hasSelection {
		m.selectKey(selected)
	}
}

func (m *Model) collection() *report.Collection {
	return m.reports[m.currency]
}

func (m Model) currentMonth() (report.MonthReport, bool) {
	return m.reports[m.currency].Page(m.pager.Page)
}

func (m *Model) resetPager(page int) {
	total := m.collection().Len()
	m.pager.TotalPages = total
	if total > 12 {
		m.pager.Type = paginator.Arabic
	} else {
		m.pager.Type = paginator.Dots
	}
	m.pager.Page = max(min(page, total-1), 0)
}

func (m *Model) setPage(page int) {
	if page < 0 || page >= m.collection().Len() || page == m.pager.Page {
		return
	}
	m.pager.Page = page
	m.cursor = 0
	m.rebuildRows()
}

func (m *Model) nextCurrency() {
	if len(m.currencies) < 2 {
		return
	}
	i := sort.SearchStrings(m.currencies, m.currency)
	m.currency = m.currencies[(i+1)%len(m.currencies)]
	m.resetPager(0)
	m.cursor = 0
	m.rebuildRows()
}

// rebuildRows flattens the current month into category rows followed by the
// purchases of expanded categories.
func (m *Model) rebuildRows() {
	m.rows = nil
	month, ok := m.currentMonth()
	if ok {
		for ci, cat := range month.Categories {
			m.rows = append(m.rows, row{kind: rowCategory, category: ci})
			if !m.expanded[cat.Category.ID] {
				continue
			}
			for ei := range cat.Purchases {
				m.rows = append(m.rows, row{kind: rowPurchase, category: ci, entry: ei})
			}
		}
	}
	m.cursor = max(min(m.cursor, len(m.rows)-1), 0)
}

func (m Model) rowAt(i int) (row, report.CategorySummary, report.Entry, bool) {
	month, ok := m.currentMonth()
	if !ok || i < 0 || i >= len(m.rows) {
		return row{}, report.CategorySummary{}, report.Entry{}, false
	}
	r := m.rows[i]
	cat := month.Categories[r.category]
	var entry report.Entry
	if r.kind == rowPurchase {
		entry = cat.Purchases[r.entry]
	}
	return r, cat, entry, true
}

func (m Model) selectedKey() (rowKey, bool) {
	r, cat, entry, ok := m.rowAt(m.cursor)
	if !ok {
		return rowKey{}, false
	}
	return rowKey{kind: r.kind, categoryID: cat.Category.ID, purchaseID: entry.Purchase.ID}, true
}

// selectKey moves the cursor to the row matching k. A purchase that moved to
// another category is followed there when that category is expanded.
func (m *Model) selectKey(k rowKey) {
	for i := range m.rows {
		r, cat, entry, _ := m.rowAt(i)
		if r.kind != k.kind {
			continue
		}
		if k.kind == rowCategory && cat.Category.ID == k.categoryID ||
			k.kind == rowPurchase && entry.Purchase.ID == k.purchaseID {
			m.cursor = i
			return
		}
	}
}

func (m *Model) toggleCurrent() {
	r, cat, _, ok := m.rowAt(m.cursor)
	if !ok {
		return
	}
	id := cat.Category.ID
	m.expanded[id] = !m.expanded[id]
	m.rebuildRows()

	if r.kind == rowPurchase {
		m.selectKey(rowKey{kind: rowCategory, categoryID: id})
	}
}

func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	r, _, entry, ok := m.rowAt(m.cursor)
	if !ok {
		return m, nil
	}
	if r.kind == rowCategory {
		m.toggleCurrent()
		return m, nil
	}

	m.dialog = components.NewCategoryDialog(entry.Vendor, m.categories, m.theme)
	m.state = StateDialog
	m.status = ""
	return m, nil
}

// Currency returns the selected currency code.
func (m Model) Currency() string {
	return m.currency
}

// Page returns the selected month page, 0 being the most recent month.
func (m Model) Page() int {
	return m.pager.Page
}

// State returns the current state.
func (m Model) State() State {
	return m.state
}
